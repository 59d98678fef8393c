package main

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/notekeeper"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session and component state",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		states := make(map[string]any)
		var authenticated bool
		err := withApp(func(ctx context.Context, app *notekeeper.App) error {
			authenticated = app.Store.IsAuthenticated()
			for _, c := range app.Components() {
				comp, ok := c.(introspection.Component)
				if !ok {
					continue
				}
				if in, ok := c.(introspection.Introspectable); ok {
					states[comp.ComponentType()] = in.State()
				}
			}
			return nil
		})
		if err != nil {
			fatal("Error reading status", err)
		}

		if statusJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(states); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		if authenticated {
			fmt.Println("Logged in")
		} else {
			fmt.Println("Not logged in")
		}
		for _, name := range slices.Sorted(maps.Keys(states)) {
			fmt.Printf("%s: %+v\n", name, states[name])
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
}
