package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/aretw0/notekeeper"
	"github.com/aretw0/notekeeper/pkg/core"
)

var (
	listJSON  bool
	listPage  int
	listPages int
	listSince string
	listMatch string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, newest first",
	Long: `List fetches notes created before --since (default: now), one page of 10 at a time.
With --pages N the first N pages are fetched and appended, like scrolling.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if listMatch != "" && !doublestar.ValidatePattern(listMatch) {
			fatal("Error parsing --match", doublestar.ErrBadPattern)
		}

		var cursor time.Time
		if listSince != "" {
			t, err := time.Parse(time.RFC3339, listSince)
			if err != nil {
				fatal("Error parsing --since", err)
			}
			cursor = t
		}

		var notes core.NotesPage
		err := withApp(func(ctx context.Context, app *notekeeper.App) error {
			if cursor.IsZero() {
				// Pin the cursor so every page is cut at the same instant.
				cursor = time.Now()
			}
			for i := 0; i < max(listPages, 1); i++ {
				page, err := app.Store.FetchNotes(ctx, core.FetchParams{
					LastNoteCreatedAt: cursor,
					Page:              listPage + i,
					Append:            i > 0,
				})
				if err != nil {
					return err
				}
				if len(page) < core.PageSize {
					break
				}
			}
			notes = app.Store.Notes()
			return nil
		})
		if err != nil {
			fatal("Error listing notes", err)
		}

		filtered := filterNotes(notes, listMatch)

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(filtered); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		for _, note := range filtered {
			created := ""
			if !note.CreatedAt.IsZero() {
				created = note.CreatedAt.Local().Format(time.DateTime)
			}
			fmt.Printf("%s\t%s\t%s\n", note.ID, created, note.Title)
		}
	},
}

// filterNotes keeps notes whose title matches a glob pattern.
func filterNotes(notes core.NotesPage, pattern string) core.NotesPage {
	if pattern == "" {
		return notes
	}
	filtered := make(core.NotesPage, 0, len(notes))
	for _, note := range notes {
		if ok, _ := doublestar.Match(pattern, note.Title); ok {
			filtered = append(filtered, note)
		}
	}
	return filtered
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().IntVar(&listPage, "page", 1, "First page to fetch")
	listCmd.Flags().IntVar(&listPages, "pages", 1, "Number of pages to fetch")
	listCmd.Flags().StringVar(&listSince, "since", "", "Only notes created before this RFC3339 time")
	listCmd.Flags().StringVar(&listMatch, "match", "", "Filter titles by glob pattern (e.g. 'todo*')")
}
