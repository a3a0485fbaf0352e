package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ShayCichocki/reqforge/internal/throttle"
)

// clearEnv unsets every variable Load and CompletionKeys read.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"REQFORGE_API_KEYS", "ANTHROPIC_API_KEY", "REQFORGE_DEBUG_FILE", "AWS_REGION",
		"JIRA_BASE_URL", "JIRA_EMAIL", "JIRA_API_TOKEN", "JIRA_PROJECT_KEY", "JIRA_ASSIGNEE_ID",
	} {
		t.Setenv(name, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Completion.Model != DefaultModel {
		t.Errorf("expected default model %q, got %q", DefaultModel, cfg.Completion.Model)
	}

	if cfg.Completion.MaxTokens != 4096 {
		t.Errorf("expected max tokens 4096, got %d", cfg.Completion.MaxTokens)
	}

	if cfg.Tracker.TaskType != "Task" || cfg.Tracker.SubtaskType != "Subtask" {
		t.Errorf("unexpected issue types %q/%q", cfg.Tracker.TaskType, cfg.Tracker.SubtaskType)
	}

	if len(cfg.Tracker.LinkPreference) != 5 || cfg.Tracker.LinkPreference[0] != "Relates" {
		t.Errorf("unexpected link preference %v", cfg.Tracker.LinkPreference)
	}

	if cfg.Delays.KeysCycled != 2*time.Second {
		t.Errorf("expected keys_cycled 2s, got %v", cfg.Delays.KeysCycled)
	}

	if cfg.Delays.SubtaskBatch != 2*time.Second {
		t.Errorf("expected subtask_batch 2s, got %v", cfg.Delays.SubtaskBatch)
	}
}

func TestDefault_DoesNotShareLinkPreference(t *testing.T) {
	cfg := Default()
	cfg.Tracker.LinkPreference[0] = "Custom"

	if DefaultLinkPreference[0] != "Relates" {
		t.Error("modifying a default config changed DefaultLinkPreference")
	}
}

func TestLoadFromPath(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
completion:
  api_keys:
    - sk-ant-first-key-0000
    - sk-ant-second-key-0000
  model: claude-3-5-haiku-20241022
  max_tokens: 2048
tracker:
  base_url: https://example.atlassian.net
  email: dev@example.com
  api_token: secret
  project_key: CPG
  exclude_keys: [CPG-1, CPG-2]
delays:
  link: 250ms
  subtask_batch: 0s
log:
  debug_file: /tmp/reqforge.log
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if len(cfg.Completion.APIKeys) != 2 || cfg.Completion.APIKeys[1] != "sk-ant-second-key-0000" {
		t.Errorf("unexpected api keys %v", cfg.Completion.APIKeys)
	}

	if cfg.Completion.Model != "claude-3-5-haiku-20241022" {
		t.Errorf("expected model override, got %q", cfg.Completion.Model)
	}

	if cfg.Completion.MaxTokens != 2048 {
		t.Errorf("expected max tokens 2048, got %d", cfg.Completion.MaxTokens)
	}

	if cfg.Tracker.ProjectKey != "CPG" {
		t.Errorf("expected project CPG, got %q", cfg.Tracker.ProjectKey)
	}

	if len(cfg.Tracker.ExcludeKeys) != 2 {
		t.Errorf("expected 2 exclude keys, got %v", cfg.Tracker.ExcludeKeys)
	}

	if cfg.Delays.Link != 250*time.Millisecond {
		t.Errorf("expected link delay 250ms, got %v", cfg.Delays.Link)
	}

	if cfg.Delays.SubtaskBatch != 0 {
		t.Errorf("expected subtask_batch 0, got %v", cfg.Delays.SubtaskBatch)
	}

	// Unset values keep their defaults.
	if cfg.Delays.TestCase != time.Second {
		t.Errorf("expected default test_case delay 1s, got %v", cfg.Delays.TestCase)
	}

	if cfg.Tracker.SubtaskType != "Subtask" {
		t.Errorf("expected default subtask type, got %q", cfg.Tracker.SubtaskType)
	}

	if cfg.Log.DebugFile != "/tmp/reqforge.log" {
		t.Errorf("unexpected debug file %q", cfg.Log.DebugFile)
	}
}

func TestLoadFromPath_ExpandsSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_JIRA_TOKEN", "expanded-token")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "tracker:\n  api_token: ${TEST_JIRA_TOKEN}\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Tracker.APIToken != "expanded-token" {
		t.Errorf("expected expanded token, got %q", cfg.Tracker.APIToken)
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	userDir := filepath.Join(xdg, "reqforge")
	if err := os.MkdirAll(userDir, 0755); err != nil {
		t.Fatal(err)
	}
	user := `
tracker:
  base_url: https://user.atlassian.net
  email: user@example.com
  project_key: USER
`
	if err := os.WriteFile(filepath.Join(userDir, "config.yaml"), []byte(user), 0644); err != nil {
		t.Fatal(err)
	}

	project := t.TempDir()
	nested := filepath.Join(project, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, ".reqforge.yaml"), []byte("tracker:\n  project_key: PROJ\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	t.Setenv("JIRA_EMAIL", "env@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Tracker.BaseURL != "https://user.atlassian.net" {
		t.Errorf("expected base url from user config, got %q", cfg.Tracker.BaseURL)
	}

	if cfg.Tracker.ProjectKey != "PROJ" {
		t.Errorf("expected project override, got %q", cfg.Tracker.ProjectKey)
	}

	if cfg.Tracker.Email != "env@example.com" {
		t.Errorf("expected env email, got %q", cfg.Tracker.Email)
	}

	if cfg.Completion.Model != DefaultModel {
		t.Errorf("expected default model, got %q", cfg.Completion.Model)
	}
}

func TestSaveAndLoad(t *testing.T) {
	clearEnv(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Chdir(t.TempDir())

	cfg := Default()
	cfg.Tracker.BaseURL = "https://example.atlassian.net"
	cfg.Tracker.ProjectKey = "CPG"
	cfg.Delays.Link = 3 * time.Second
	cfg.Completion.APIKeys = []string{"${SOME_KEY}"}

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(GetUserConfigPath()); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Tracker.ProjectKey != "CPG" {
		t.Errorf("expected project CPG, got %q", loaded.Tracker.ProjectKey)
	}

	if loaded.Delays.Link != 3*time.Second {
		t.Errorf("expected link delay 3s, got %v", loaded.Delays.Link)
	}
}

func TestGetUserConfigPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := GetUserConfigPath(); got != filepath.Join("/xdg", "reqforge", "config.yaml") {
		t.Errorf("unexpected user config path %q", got)
	}
}

func TestThrottle(t *testing.T) {
	cfg := Default()
	cfg.Delays.Link = 5 * time.Millisecond

	p := cfg.Throttle()
	if p.Delay(throttle.CallLink) != 5*time.Millisecond {
		t.Errorf("expected link delay 5ms, got %v", p.Delay(throttle.CallLink))
	}

	if p.Delay(throttle.CallKeysCycled) != 2*time.Second {
		t.Errorf("expected keys_cycled delay 2s, got %v", p.Delay(throttle.CallKeysCycled))
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	t.Run("complete config", func(t *testing.T) {
		cfg := Default()
		cfg.Tracker = TrackerConfig{
			BaseURL:    "https://example.atlassian.net",
			Email:      "dev@example.com",
			APIToken:   "token",
			ProjectKey: "CPG",
		}
		cfg.Completion.APIKeys = []string{"sk-ant-test-key-000000"}

		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("reports every problem", func(t *testing.T) {
		cfg := Default()
		cfg.Tracker.BaseURL = "not a url"
		cfg.Completion.MaxTokens = 0
		cfg.Delays.Link = -time.Second

		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected error")
		}

		msg := err.Error()
		for _, want := range []string{
			"tracker.email is not set",
			"tracker.api_token is not set",
			"tracker.project_key is not set",
			"not an absolute URL",
			"max_tokens",
			"delays.link",
		} {
			if !strings.Contains(msg, want) {
				t.Errorf("expected %q in %q", want, msg)
			}
		}

		if !errors.Is(err, ErrNoAPIKey) {
			t.Error("expected ErrNoAPIKey in joined error")
		}
	})

	t.Run("bedrock needs no api keys", func(t *testing.T) {
		cfg := Default()
		cfg.Tracker = TrackerConfig{
			BaseURL:    "https://example.atlassian.net",
			Email:      "dev@example.com",
			APIToken:   "token",
			ProjectKey: "CPG",
		}
		cfg.Completion.Bedrock.Enabled = true

		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
