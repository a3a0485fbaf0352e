package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/reqforge/internal/console"
	"github.com/ShayCichocki/reqforge/internal/linker"
)

var linkTypesCmd = &cobra.Command{
	Use:   "link-types",
	Short: "Show the tracker's relationship types and the one a run would use",
	Args:  cobra.NoArgs,
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

		types, err := client.ListLinkTypes(cmd.Context())
		if err != nil {
			return fmt.Errorf("list link types: %w", err)
		}

		out := cmd.OutOrStdout()
		printer := console.New(out)
		printer.PrintLinkTypes(types)
		if name, ok := linker.Choose(types, cfg.Tracker.LinkPreference); ok {
			printer.Field("Selected", name)
		} else {
			printer.Status(false, "No relationship type available")
		}
		return nil
	},
}
