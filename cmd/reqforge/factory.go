package main

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/reqforge/internal/api"
	"github.com/ShayCichocki/reqforge/internal/config"
	"github.com/ShayCichocki/reqforge/internal/debuglog"
	"github.com/ShayCichocki/reqforge/internal/decompose"
	"github.com/ShayCichocki/reqforge/internal/keypool"
	"github.com/ShayCichocki/reqforge/internal/linker"
	"github.com/ShayCichocki/reqforge/internal/tracker"
	"github.com/ShayCichocki/reqforge/internal/workflow"
)

// loadConfig loads configuration and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if debugLogPath != "" {
		cfg.Log.DebugFile = debugLogPath
	}
	return cfg, nil
}

// newLogger opens the debug log, or a no-op logger when none is configured.
func newLogger(cfg *config.Config) (*debuglog.Logger, error) {
	log, err := debuglog.New(cfg.Log.DebugFile)
	if err != nil {
		return nil, fmt.Errorf("open debug log: %w", err)
	}
	return log, nil
}

// newTrackerClient creates the Jira client from validated tracker settings.
func newTrackerClient(cfg *config.Config, log *debuglog.Logger) (*tracker.Client, error) {
	if err := cfg.ValidateTracker(); err != nil {
		return nil, fmt.Errorf("invalid tracker configuration:\n%w", err)
	}
	return tracker.New(tracker.Config{
		BaseURL:     cfg.Tracker.BaseURL,
		Email:       cfg.Tracker.Email,
		APIToken:    cfg.Tracker.APIToken,
		ProjectKey:  cfg.Tracker.ProjectKey,
		AssigneeID:  cfg.Tracker.AssigneeID,
		TaskType:    cfg.Tracker.TaskType,
		SubtaskType: cfg.Tracker.SubtaskType,
		Logger:      log,
	})
}

// newGenerator creates the completion backend for cfg.
func newGenerator(cfg *config.Config) *api.AnthropicGenerator {
	return api.NewGenerator(api.ClientConfig{
		Model:         anthropic.Model(cfg.Completion.Model),
		MaxTokens:     int64(cfg.Completion.MaxTokens),
		UseAWSBedrock: cfg.Completion.Bedrock.Enabled,
		AWSRegion:     cfg.Completion.Bedrock.Region,
		BaseURL:       cfg.Completion.BaseURL,
	})
}

// newWorkflow wires every component of a run. The generator is returned for
// token accounting.
func newWorkflow(cfg *config.Config, log *debuglog.Logger, sink workflow.Sink) (*workflow.Workflow, *api.AnthropicGenerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	client, err := newTrackerClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	keys := config.CompletionKeys(cfg)
	pool, err := keypool.New(keys)
	if err != nil {
		return nil, nil, fmt.Errorf("create credential pool: %w", err)
	}
	log.Log("[completion] credential pool of %d (%s)", pool.Len(), config.GetKeySource(cfg))

	policy := cfg.Throttle()
	gen := newGenerator(cfg)
	completer := api.NewCompleter(gen, pool, policy, log)

	wf, err := workflow.New(workflow.Config{
		Decomposer:  decompose.New(completer),
		Tracker:     client,
		Linker:      linker.New(client, cfg.Tracker.LinkPreference, policy, log),
		Project:     cfg.Tracker.ProjectKey,
		ExcludeKeys: cfg.Tracker.ExcludeKeys,
		Sink:        sink,
		Throttle:    policy,
		Logger:      log,
	})
	if err != nil {
		return nil, nil, err
	}
	return wf, gen, nil
}

// usageOf summarizes token accounting for a report.
func usageOf(gen *api.AnthropicGenerator) *workflow.Usage {
	t := gen.Tracker()
	in, out := t.Total()
	return &workflow.Usage{
		Calls:        t.Calls(),
		InputTokens:  in,
		OutputTokens: out,
		CostUSD:      t.Cost(),
	}
}
