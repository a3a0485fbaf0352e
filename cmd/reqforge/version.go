package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/reqforge/internal/version"
)

// Version returns the current version
func Version() string {
	return version.String()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "reqforge version %s\n", Version())
	},
}
