package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/notekeeper"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session token",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := withApp(func(ctx context.Context, app *notekeeper.App) error {
			return app.Store.Logout()
		})
		if err != nil {
			fatal("Error logging out", err)
		}
		fmt.Println("Logged out")
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
