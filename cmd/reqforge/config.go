package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/reqforge/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify reqforge configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.
List values are comma separated.

Configuration is stored at ~/.config/reqforge/config.yaml
Project-specific overrides can be placed in .reqforge.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		out := cmd.OutOrStdout()
		switch len(args) {
		case 0:
			return displayAllConfig(out, cfg)
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, value)
			return nil
		default:
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(out, "Set %s\n", args[0])
			return nil
		}
	},
}

// configKeys is the display order of settable keys.
var configKeys = []string{
	"completion.api_keys",
	"completion.model",
	"completion.max_tokens",
	"completion.base_url",
	"completion.bedrock.enabled",
	"completion.bedrock.region",
	"completion.bedrock.profiles",
	"tracker.base_url",
	"tracker.email",
	"tracker.api_token",
	"tracker.project_key",
	"tracker.assignee_id",
	"tracker.task_type",
	"tracker.subtask_type",
	"tracker.exclude_keys",
	"tracker.link_preference",
	"delays.rate_limited",
	"delays.keys_cycled",
	"delays.link",
	"delays.test_case",
	"delays.subtask_batch",
	"log.debug_file",
}

// displayAllConfig prints all configuration values with secrets masked.
func displayAllConfig(w io.Writer, cfg *config.Config) error {
	for _, key := range configKeys {
		value, err := getConfigValue(cfg, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: %s\n", key, value)
	}
	fmt.Fprintf(w, "(credentials from: %s)\n", config.GetKeySource(cfg))
	return nil
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func joinList(values []string) string {
	if len(values) == 0 {
		return "(not set)"
	}
	return strings.Join(values, ",")
}

func splitList(value string) []string {
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// getConfigValue retrieves a configuration value by dot-notation key.
// Secrets are always masked.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "completion.api_keys":
		if len(cfg.Completion.APIKeys) == 0 {
			return "(not set)", nil
		}
		masked := make([]string, len(cfg.Completion.APIKeys))
		for i, k := range cfg.Completion.APIKeys {
			masked[i] = config.MaskAPIKey(k)
		}
		return strings.Join(masked, ","), nil
	case "completion.model":
		return orNotSet(cfg.Completion.Model), nil
	case "completion.max_tokens":
		return strconv.Itoa(cfg.Completion.MaxTokens), nil
	case "completion.base_url":
		return orNotSet(cfg.Completion.BaseURL), nil
	case "completion.bedrock.enabled":
		return strconv.FormatBool(cfg.Completion.Bedrock.Enabled), nil
	case "completion.bedrock.region":
		return orNotSet(cfg.Completion.Bedrock.Region), nil
	case "completion.bedrock.profiles":
		return joinList(cfg.Completion.Bedrock.Profiles), nil
	case "tracker.base_url":
		return orNotSet(cfg.Tracker.BaseURL), nil
	case "tracker.email":
		return orNotSet(cfg.Tracker.Email), nil
	case "tracker.api_token":
		if cfg.Tracker.APIToken == "" {
			return "(not set)", nil
		}
		return "****", nil
	case "tracker.project_key":
		return orNotSet(cfg.Tracker.ProjectKey), nil
	case "tracker.assignee_id":
		return orNotSet(cfg.Tracker.AssigneeID), nil
	case "tracker.task_type":
		return orNotSet(cfg.Tracker.TaskType), nil
	case "tracker.subtask_type":
		return orNotSet(cfg.Tracker.SubtaskType), nil
	case "tracker.exclude_keys":
		return joinList(cfg.Tracker.ExcludeKeys), nil
	case "tracker.link_preference":
		return joinList(cfg.Tracker.LinkPreference), nil
	case "delays.rate_limited":
		return cfg.Delays.RateLimited.String(), nil
	case "delays.keys_cycled":
		return cfg.Delays.KeysCycled.String(), nil
	case "delays.link":
		return cfg.Delays.Link.String(), nil
	case "delays.test_case":
		return cfg.Delays.TestCase.String(), nil
	case "delays.subtask_batch":
		return cfg.Delays.SubtaskBatch.String(), nil
	case "log.debug_file":
		return orNotSet(cfg.Log.DebugFile), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	parseDelay := func(name string) (time.Duration, error) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %w", name, err)
		}
		if d < 0 {
			return 0, fmt.Errorf("invalid duration for %s: must not be negative", name)
		}
		return d, nil
	}

	var err error
	switch k := strings.ToLower(key); k {
	case "completion.api_keys":
		cfg.Completion.APIKeys = splitList(value)
	case "completion.model":
		cfg.Completion.Model = value
	case "completion.max_tokens":
		n, convErr := strconv.Atoi(value)
		if convErr != nil || n <= 0 {
			return fmt.Errorf("invalid value for max_tokens: %q", value)
		}
		cfg.Completion.MaxTokens = n
	case "completion.base_url":
		cfg.Completion.BaseURL = value
	case "completion.bedrock.enabled":
		b, convErr := strconv.ParseBool(value)
		if convErr != nil {
			return fmt.Errorf("invalid value for bedrock.enabled: %w", convErr)
		}
		cfg.Completion.Bedrock.Enabled = b
	case "completion.bedrock.region":
		cfg.Completion.Bedrock.Region = value
	case "completion.bedrock.profiles":
		cfg.Completion.Bedrock.Profiles = splitList(value)
	case "tracker.base_url":
		cfg.Tracker.BaseURL = value
	case "tracker.email":
		cfg.Tracker.Email = value
	case "tracker.api_token":
		cfg.Tracker.APIToken = value
	case "tracker.project_key":
		cfg.Tracker.ProjectKey = value
	case "tracker.assignee_id":
		cfg.Tracker.AssigneeID = value
	case "tracker.task_type":
		cfg.Tracker.TaskType = value
	case "tracker.subtask_type":
		cfg.Tracker.SubtaskType = value
	case "tracker.exclude_keys":
		cfg.Tracker.ExcludeKeys = splitList(value)
	case "tracker.link_preference":
		cfg.Tracker.LinkPreference = splitList(value)
	case "delays.rate_limited":
		cfg.Delays.RateLimited, err = parseDelay(k)
	case "delays.keys_cycled":
		cfg.Delays.KeysCycled, err = parseDelay(k)
	case "delays.link":
		cfg.Delays.Link, err = parseDelay(k)
	case "delays.test_case":
		cfg.Delays.TestCase, err = parseDelay(k)
	case "delays.subtask_batch":
		cfg.Delays.SubtaskBatch, err = parseDelay(k)
	case "log.debug_file":
		cfg.Log.DebugFile = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return err
}
