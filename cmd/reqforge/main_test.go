package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/reqforge/internal/config"
	"github.com/ShayCichocki/reqforge/internal/tracker/trackertest"
	"github.com/ShayCichocki/reqforge/internal/workflow"
)

func TestReadRequirement(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		input       string
		interactive bool
		want        string
		wantErr     error
		wantPrompt  bool
	}{
		{name: "args joined", args: []string{"Add", "user", "login"}, want: "Add user login"},
		{name: "blank args", args: []string{"  "}, wantErr: errNoRequirement},
		{name: "piped first non-empty line", input: "\n\n  Add user login  \nignored\n", want: "Add user login"},
		{name: "piped empty", input: "\n \n", wantErr: errNoRequirement},
		{name: "interactive prompt", input: "Export reports\n", interactive: true, want: "Export reports", wantPrompt: true},
		{name: "interactive blank", input: "\n", interactive: true, wantErr: errNoRequirement, wantPrompt: true},
		{name: "interactive eof", input: "", interactive: true, wantErr: errNoRequirement, wantPrompt: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := readRequirement(tt.args, strings.NewReader(tt.input), &out, tt.interactive)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("readRequirement() = %q, want %q", got, tt.want)
			}
			if prompted := strings.Contains(out.String(), requirementPrompt); prompted != tt.wantPrompt {
				t.Errorf("prompted = %v, want %v", prompted, tt.wantPrompt)
			}
		})
	}
}

func sampleReport() *workflow.Report {
	return &workflow.Report{
		RunID:       "run-1",
		Requirement: "Add user login",
		Project:     "CPG",
		Stage:       workflow.StageDone,
		ParentKey:   "CPG-1",
		CreatedKeys: []string{"CPG-2", "CPG-3"},
		Usage:       &workflow.Usage{Calls: 3, InputTokens: 100, OutputTokens: 50},
	}
}

func TestWriteReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeReport(&buf, sampleReport(), "json"); err != nil {
		t.Fatalf("writeReport: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["parent_key"] != "CPG-1" {
		t.Errorf("parent_key = %v", decoded["parent_key"])
	}
	if decoded["stage"] != "done" {
		t.Errorf("stage = %v", decoded["stage"])
	}
}

func TestWriteReport_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := writeReport(&buf, sampleReport(), "yaml"); err != nil {
		t.Fatalf("writeReport: %v", err)
	}

	var decoded struct {
		ParentKey   string   `yaml:"parent_key"`
		CreatedKeys []string `yaml:"created_keys"`
		Usage       struct {
			Calls int `yaml:"calls"`
		} `yaml:"usage"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if decoded.ParentKey != "CPG-1" || len(decoded.CreatedKeys) != 2 || decoded.Usage.Calls != 3 {
		t.Errorf("unexpected decoded report: %+v", decoded)
	}
}

func TestWriteReport_InvalidFormat(t *testing.T) {
	if err := writeReport(&bytes.Buffer{}, sampleReport(), "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := validateReportFormat("none"); err != nil {
		t.Errorf("none should be valid: %v", err)
	}
}

func TestGetConfigValue_MasksSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.Completion.APIKeys = []string{"sk-ant-REDACTED"}
	cfg.Tracker.APIToken = "secret-token"

	keys, err := getConfigValue(cfg, "completion.api_keys")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(keys, "abcdefghijklmnop") {
		t.Errorf("api key not masked: %s", keys)
	}

	token, err := getConfigValue(cfg, "tracker.api_token")
	if err != nil {
		t.Fatal(err)
	}
	if token != "****" {
		t.Errorf("api token not masked: %s", token)
	}

	if _, err := getConfigValue(cfg, "anthropic.api_key"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestSetConfigValue(t *testing.T) {
	cfg := config.Default()

	if err := setConfigValue(cfg, "tracker.exclude_keys", "CPG-1, CPG-2,,"); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(cfg.Tracker.ExcludeKeys, "|"); got != "CPG-1|CPG-2" {
		t.Errorf("exclude_keys = %q", got)
	}

	if err := setConfigValue(cfg, "delays.link", "250ms"); err != nil {
		t.Fatal(err)
	}
	if cfg.Delays.Link != 250*time.Millisecond {
		t.Errorf("delays.link = %s", cfg.Delays.Link)
	}

	if err := setConfigValue(cfg, "delays.link", "-1s"); err == nil {
		t.Error("expected error for negative delay")
	}
	if err := setConfigValue(cfg, "completion.max_tokens", "zero"); err == nil {
		t.Error("expected error for invalid max_tokens")
	}
	if err := setConfigValue(cfg, "Completion.Bedrock.Enabled", "true"); err != nil || !cfg.Completion.Bedrock.Enabled {
		t.Errorf("bedrock.enabled not set: %v", err)
	}
}

func TestDisplayAllConfig_ListsEveryKey(t *testing.T) {
	var buf bytes.Buffer
	if err := displayAllConfig(&buf, config.Default()); err != nil {
		t.Fatal(err)
	}
	for _, key := range configKeys {
		if !strings.Contains(buf.String(), key+": ") {
			t.Errorf("missing %s in output", key)
		}
	}
}

// setupTrackerEnv points configuration at srv from an isolated directory.
func setupTrackerEnv(t *testing.T, srv *trackertest.Server, projectYAML string) {
	t.Helper()
	for _, name := range []string{"REQFORGE_API_KEYS", "ANTHROPIC_API_KEY", "REQFORGE_DEBUG_FILE", "AWS_REGION", "JIRA_ASSIGNEE_ID"} {
		t.Setenv(name, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("JIRA_BASE_URL", srv.URL)
	t.Setenv("JIRA_EMAIL", "dev@example.com")
	t.Setenv("JIRA_API_TOKEN", "token")
	t.Setenv("JIRA_PROJECT_KEY", srv.Project)

	dir := t.TempDir()
	if projectYAML != "" {
		if err := os.WriteFile(filepath.Join(dir, ".reqforge.yaml"), []byte(projectYAML), 0644); err != nil {
			t.Fatal(err)
		}
	}
	t.Chdir(dir)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		listAll = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestListCommand_HonorsExcludeKeys(t *testing.T) {
	srv := trackertest.NewServer("CPG")
	defer srv.Close()
	srv.Seed("Keep me")
	srv.Seed("Hide me")
	srv.Seed("Keep me too")

	setupTrackerEnv(t, srv, "tracker:\n  exclude_keys: [CPG-2]\n")

	out, err := execute(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "CPG-1: Keep me") || !strings.Contains(out, "CPG-3: Keep me too") {
		t.Errorf("missing items in output:\n%s", out)
	}
	if strings.Contains(out, "CPG-2:") {
		t.Errorf("excluded key listed:\n%s", out)
	}

	out, err = execute(t, "list", "--all")
	if err != nil {
		t.Fatalf("list --all: %v", err)
	}
	if !strings.Contains(out, "CPG-2: Hide me") {
		t.Errorf("--all should include excluded keys:\n%s", out)
	}
}

func TestLinkTypesCommand_ShowsSelection(t *testing.T) {
	srv := trackertest.NewServer("CPG")
	defer srv.Close()
	setupTrackerEnv(t, srv, "")

	out, err := execute(t, "link-types")
	if err != nil {
		t.Fatalf("link-types: %v", err)
	}
	for _, name := range []string{"Blocks", "Cloners", "Duplicate", "Relates"} {
		if !strings.Contains(out, name) {
			t.Errorf("missing link type %s:\n%s", name, out)
		}
	}
	if !strings.Contains(out, "Selected") {
		t.Errorf("missing selection:\n%s", out)
	}
}

func TestListCommand_MissingTrackerConfig(t *testing.T) {
	srv := trackertest.NewServer("CPG")
	defer srv.Close()
	setupTrackerEnv(t, srv, "")
	t.Setenv("JIRA_API_TOKEN", "")

	if _, err := execute(t, "list"); err == nil {
		t.Error("expected error without an API token")
	}
}
