package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/notekeeper"
	"github.com/aretw0/notekeeper/pkg/core"
)

var (
	updateTitle   string
	updateContent string
)

var updateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Replace the title and content of a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := core.NoteID(args[0])
		err := withApp(func(ctx context.Context, app *notekeeper.App) error {
			return app.Store.UpdateNote(ctx, core.Note{ID: id, Title: updateTitle, Content: updateContent})
		})
		if err != nil {
			fatal("Error updating note", err)
		}
		fmt.Printf("Note updated: %s\n", id)
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringVarP(&updateTitle, "title", "t", "", "Note title")
	updateCmd.Flags().StringVarP(&updateContent, "content", "c", "", "Note content")
}
