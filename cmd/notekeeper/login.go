package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/notekeeper"
	"github.com/aretw0/notekeeper/pkg/core"
)

var (
	loginUser     string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and store the session token",
	Long: `Login exchanges your credentials for a token, stores it in the session file
and loads the first page of notes.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		password := loginPassword
		if password == "" {
			p, err := readPassword()
			if err != nil {
				fatal("Error reading password", err)
			}
			password = p
		}

		err := withApp(func(ctx context.Context, app *notekeeper.App) error {
			if err := app.Store.Login(ctx, core.Credentials{Username: loginUser, Password: password}); err != nil {
				return err
			}
			app.Store.Wait()
			fmt.Printf("Logged in as %s (%d notes on the first page)\n", loginUser, len(app.Store.Notes()))
			return nil
		})
		if err != nil {
			fatal("Error logging in", err)
		}
	},
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no password given and stdin is not a terminal (use --password)")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVarP(&loginUser, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted when omitted)")
	_ = loginCmd.MarkFlagRequired("username")
}
