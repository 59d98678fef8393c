package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/notekeeper"
	"github.com/aretw0/notekeeper/pkg/core"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id...]",
	Short: "Delete one or more notes",
	Long:  `Delete selects the given notes and removes them in one batch, then refreshes the list.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ids := make([]core.NoteID, len(args))
		for i, arg := range args {
			ids[i] = core.NoteID(arg)
		}

		var deleted int
		err := withApp(func(ctx context.Context, app *notekeeper.App) error {
			var err error
			deleted, err = deleteNotes(ctx, app.Store, ids)
			return err
		}, notekeeper.WithStrictWrites(true))

		fmt.Printf("Notes deleted: %d of %d\n", deleted, len(ids))
		if err != nil {
			fatal("Error deleting notes", err)
		}
	},
}

// deleteNotes removes ids through the selection and returns how many were
// actually deleted. The store must run with strict writes so failures surface.
func deleteNotes(ctx context.Context, store *core.Store, ids []core.NoteID) (int, error) {
	store.SetSelectionMode(true)
	store.SetSelectedNotes(ids)

	err := store.DeleteSelected(ctx)
	if err == nil {
		return len(ids), nil
	}

	failed := len(ids)
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		failed = len(joined.Unwrap())
	}
	return len(ids) - failed, err
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
