package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/notekeeper"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of notekeeper",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("notekeeper version %s\n", version())
	},
}

func version() string {
	return strings.TrimSpace(notekeeper.Version)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
