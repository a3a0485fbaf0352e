package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/reqforge/internal/console"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the project's items",
	Long: `List every item in the configured project.

Keys in tracker.exclude_keys are hidden unless --all is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Close()

		client, err := newTrackerClient(cfg, log)
		if err != nil {
			return err
		}

		exclude := cfg.Tracker.ExcludeKeys
		if listAll {
			exclude = nil
		}
		items, err := client.ListItems(cmd.Context(), cfg.Tracker.ProjectKey, exclude)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}
		console.New(cmd.OutOrStdout()).PrintItems(items)
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listAll, "all", false, "Include excluded keys")
}
