package main

import (
	"os"

	"github.com/spf13/cobra"
)

var debugLogPath string

var rootCmd = &cobra.Command{
	Use:   "reqforge",
	Short: "Requirement decomposition into tracked work items",
	Long: `reqforge decomposes a free-text development requirement into a work
hierarchy in Jira: one parent item, 3-5 development items linked to it, and
3-5 test-case items under each development item.

Subtasks and test cases are generated by the Anthropic Messages API (directly
or through AWS Bedrock) using a pool of credentials that fail over in order.

Configuration is read from ~/.config/reqforge/config.yaml, a project-level
.reqforge.yaml, and the environment (REQFORGE_API_KEYS, ANTHROPIC_API_KEY,
JIRA_BASE_URL, JIRA_EMAIL, JIRA_API_TOKEN, JIRA_PROJECT_KEY).`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&debugLogPath, "debug-log", "", "Append debug output to this file (overrides log.debug_file)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(linkTypesCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
