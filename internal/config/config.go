// Package config handles configuration loading and management for reqforge.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ShayCichocki/reqforge/internal/throttle"
)

const (
	appName           = "reqforge"
	projectConfigName = ".reqforge.yaml"

	// DefaultModel is the completion model used when none is configured.
	DefaultModel = "claude-sonnet-4-20250514"
)

// DefaultLinkPreference is the relationship names tried first, in order.
var DefaultLinkPreference = []string{"Relates", "Relates to", "Dependency", "Parent/Child", "Blocks"}

// Config holds all configuration for reqforge.
type Config struct {
	Completion CompletionConfig `mapstructure:"completion"`
	Tracker    TrackerConfig    `mapstructure:"tracker"`
	Delays     DelaysConfig     `mapstructure:"delays"`
	Log        LogConfig        `mapstructure:"log"`
}

// CompletionConfig holds completion service settings.
type CompletionConfig struct {
	// APIKeys is the ordered credential pool for the direct API.
	APIKeys   []string      `mapstructure:"api_keys"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	BaseURL   string        `mapstructure:"base_url"`
	Bedrock   BedrockConfig `mapstructure:"bedrock"`
}

// BedrockConfig routes completions through AWS Bedrock.
type BedrockConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
	// Profiles are AWS shared-config profiles used as the credential pool.
	Profiles []string `mapstructure:"profiles"`
}

// TrackerConfig holds Jira settings.
type TrackerConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Email       string `mapstructure:"email"`
	APIToken    string `mapstructure:"api_token"`
	ProjectKey  string `mapstructure:"project_key"`
	AssigneeID  string `mapstructure:"assignee_id"`
	TaskType    string `mapstructure:"task_type"`
	SubtaskType string `mapstructure:"subtask_type"`
	// ExcludeKeys are hidden from the final listing.
	ExcludeKeys    []string `mapstructure:"exclude_keys"`
	LinkPreference []string `mapstructure:"link_preference"`
}

// DelaysConfig holds the fixed pauses of a run.
type DelaysConfig struct {
	RateLimited  time.Duration `mapstructure:"rate_limited"`
	KeysCycled   time.Duration `mapstructure:"keys_cycled"`
	Link         time.Duration `mapstructure:"link"`
	TestCase     time.Duration `mapstructure:"test_case"`
	SubtaskBatch time.Duration `mapstructure:"subtask_batch"`
}

// LogConfig holds debug log settings.
type LogConfig struct {
	// DebugFile enables the debug log when set.
	DebugFile string `mapstructure:"debug_file"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (REQFORGE_API_KEYS, JIRA_*)
// 2. Project config (.reqforge.yaml in current directory or parent)
// 3. User config (~/.config/reqforge/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"completion.api_keys":       "REQFORGE_API_KEYS",
		"completion.bedrock.region": "AWS_REGION",
		"tracker.base_url":          "JIRA_BASE_URL",
		"tracker.email":             "JIRA_EMAIL",
		"tracker.api_token":         "JIRA_API_TOKEN",
		"tracker.project_key":       "JIRA_PROJECT_KEY",
		"tracker.assignee_id":       "JIRA_ASSIGNEE_ID",
		"log.debug_file":            "REQFORGE_DEBUG_FILE",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("binding %s: %w", env, err)
		}
	}
	return nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references in secrets.
	cfg.Tracker.APIToken = expandEnv(cfg.Tracker.APIToken)
	for i, k := range cfg.Completion.APIKeys {
		cfg.Completion.APIKeys[i] = expandEnv(k)
	}

	return cfg, nil
}

// Save writes the configuration to the user config file.
// Secrets are written as given; prefer ${VAR} references.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("completion.api_keys", cfg.Completion.APIKeys)
	v.Set("completion.model", cfg.Completion.Model)
	v.Set("completion.max_tokens", cfg.Completion.MaxTokens)
	v.Set("completion.base_url", cfg.Completion.BaseURL)
	v.Set("completion.bedrock.enabled", cfg.Completion.Bedrock.Enabled)
	v.Set("completion.bedrock.region", cfg.Completion.Bedrock.Region)
	v.Set("completion.bedrock.profiles", cfg.Completion.Bedrock.Profiles)
	v.Set("tracker.base_url", cfg.Tracker.BaseURL)
	v.Set("tracker.email", cfg.Tracker.Email)
	v.Set("tracker.api_token", cfg.Tracker.APIToken)
	v.Set("tracker.project_key", cfg.Tracker.ProjectKey)
	v.Set("tracker.assignee_id", cfg.Tracker.AssigneeID)
	v.Set("tracker.task_type", cfg.Tracker.TaskType)
	v.Set("tracker.subtask_type", cfg.Tracker.SubtaskType)
	v.Set("tracker.exclude_keys", cfg.Tracker.ExcludeKeys)
	v.Set("tracker.link_preference", cfg.Tracker.LinkPreference)
	v.Set("delays.rate_limited", cfg.Delays.RateLimited.String())
	v.Set("delays.keys_cycled", cfg.Delays.KeysCycled.String())
	v.Set("delays.link", cfg.Delays.Link.String())
	v.Set("delays.test_case", cfg.Delays.TestCase.String())
	v.Set("delays.subtask_batch", cfg.Delays.SubtaskBatch.String())
	v.Set("log.debug_file", cfg.Log.DebugFile)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("completion.api_keys", []string{})
	v.SetDefault("completion.model", DefaultModel)
	v.SetDefault("completion.max_tokens", 4096)
	v.SetDefault("completion.base_url", "")
	v.SetDefault("completion.bedrock.enabled", false)
	v.SetDefault("completion.bedrock.region", "us-east-1")
	v.SetDefault("completion.bedrock.profiles", []string{})

	v.SetDefault("tracker.base_url", "")
	v.SetDefault("tracker.email", "")
	v.SetDefault("tracker.api_token", "")
	v.SetDefault("tracker.project_key", "")
	v.SetDefault("tracker.assignee_id", "")
	v.SetDefault("tracker.task_type", "Task")
	v.SetDefault("tracker.subtask_type", "Subtask")
	v.SetDefault("tracker.exclude_keys", []string{})
	v.SetDefault("tracker.link_preference", DefaultLinkPreference)

	v.SetDefault("delays.rate_limited", "1s")
	v.SetDefault("delays.keys_cycled", "2s")
	v.SetDefault("delays.link", "1s")
	v.SetDefault("delays.test_case", "1s")
	v.SetDefault("delays.subtask_batch", "2s")

	v.SetDefault("log.debug_file", "")
}

// getUserConfigDir returns the XDG config directory for reqforge.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", appName)
	}
	return filepath.Join(home, ".config", appName)
}

// findProjectConfig searches for .reqforge.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, projectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Completion: CompletionConfig{
			Model:     DefaultModel,
			MaxTokens: 4096,
			Bedrock: BedrockConfig{
				Region: "us-east-1",
			},
		},
		Tracker: TrackerConfig{
			TaskType:       "Task",
			SubtaskType:    "Subtask",
			LinkPreference: append([]string(nil), DefaultLinkPreference...),
		},
		Delays: DelaysConfig{
			RateLimited:  time.Second,
			KeysCycled:   2 * time.Second,
			Link:         time.Second,
			TestCase:     time.Second,
			SubtaskBatch: 2 * time.Second,
		},
	}
}

// Throttle returns the delay table as a throttle policy.
func (c *Config) Throttle() *throttle.Policy {
	return throttle.New(map[throttle.Call]time.Duration{
		throttle.CallRateLimited:  c.Delays.RateLimited,
		throttle.CallKeysCycled:   c.Delays.KeysCycled,
		throttle.CallLink:         c.Delays.Link,
		throttle.CallTestCase:     c.Delays.TestCase,
		throttle.CallSubtaskBatch: c.Delays.SubtaskBatch,
	})
}

// ValidateTracker reports missing or malformed tracker settings.
func (c *Config) ValidateTracker() error {
	var errs []error
	required := []struct{ key, value string }{
		{"tracker.base_url", c.Tracker.BaseURL},
		{"tracker.email", c.Tracker.Email},
		{"tracker.api_token", c.Tracker.APIToken},
		{"tracker.project_key", c.Tracker.ProjectKey},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s is not set", r.key))
		}
	}
	if c.Tracker.BaseURL != "" {
		u, err := url.Parse(c.Tracker.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("tracker.base_url %q is not an absolute URL", c.Tracker.BaseURL))
		}
	}
	return errors.Join(errs...)
}

// Validate reports every problem that would stop a run: missing tracker
// settings, an empty credential pool, and out-of-range values.
func (c *Config) Validate() error {
	errs := []error{c.ValidateTracker()}

	if len(CompletionKeys(c)) == 0 {
		errs = append(errs, ErrNoAPIKey)
	}
	if c.Completion.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("completion.max_tokens must be positive, got %d", c.Completion.MaxTokens))
	}
	if c.Completion.Bedrock.Enabled && c.Completion.Bedrock.Region == "" {
		errs = append(errs, errors.New("completion.bedrock.region is not set"))
	}

	delays := map[string]time.Duration{
		"delays.rate_limited":  c.Delays.RateLimited,
		"delays.keys_cycled":   c.Delays.KeysCycled,
		"delays.link":          c.Delays.Link,
		"delays.test_case":     c.Delays.TestCase,
		"delays.subtask_batch": c.Delays.SubtaskBatch,
	}
	for key, d := range delays {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", key, d))
		}
	}

	return errors.Join(errs...)
}
