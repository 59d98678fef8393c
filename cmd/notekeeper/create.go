package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/notekeeper"
	"github.com/aretw0/notekeeper/pkg/core"
)

var (
	createTitle   string
	createContent string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a note",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := withApp(func(ctx context.Context, app *notekeeper.App) error {
			return app.Store.CreateNote(ctx, core.Note{Title: createTitle, Content: createContent})
		})
		if err != nil {
			fatal("Error creating note", err)
		}
		fmt.Printf("Note created: %s\n", createTitle)
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVarP(&createTitle, "title", "t", "", "Note title")
	createCmd.Flags().StringVarP(&createContent, "content", "c", "", "Note content")
	_ = createCmd.MarkFlagRequired("title")
}
