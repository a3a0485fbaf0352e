// Package api provides the completion client: direct Anthropic (or Bedrock)
// generation plus failover across a pool of credentials.
package api

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// DefaultMaxTokens is the response budget used when none is configured.
const DefaultMaxTokens = 4096

// Generator performs a single completion with one credential.
type Generator interface {
	Generate(ctx context.Context, credential, prompt string) (string, error)
}

// ClientConfig contains configuration for creating a generator.
type ClientConfig struct {
	// Model is the Claude model to use (e.g., anthropic.ModelClaudeSonnet4_20250514).
	Model anthropic.Model
	// MaxTokens caps the response length.
	MaxTokens int64
	// UseAWSBedrock routes calls through AWS Bedrock. Credentials are then
	// AWS shared-config profile names instead of API keys.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// BaseURL overrides the API endpoint.
	BaseURL string
}

// AnthropicGenerator generates text with the Anthropic Messages API.
// One SDK client is built per credential and reused for later calls.
type AnthropicGenerator struct {
	cfg     ClientConfig
	model   anthropic.Model
	clients map[string]*anthropic.Client
	tracker *TokenTracker
}

// NewGenerator creates a generator for cfg.
func NewGenerator(cfg ClientConfig) *AnthropicGenerator {
	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseAWSBedrock {
		model = translateModelForBedrock(model)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	return &AnthropicGenerator{
		cfg:     cfg,
		model:   model,
		clients: make(map[string]*anthropic.Client),
		tracker: NewTokenTracker(),
	}
}

// Model returns the configured model name.
func (g *AnthropicGenerator) Model() anthropic.Model {
	return g.model
}

// Tracker returns the token tracker for this generator.
func (g *AnthropicGenerator) Tracker() *TokenTracker {
	return g.tracker
}

// Generate sends prompt as a single user message and returns the concatenated
// text blocks of the reply.
func (g *AnthropicGenerator) Generate(ctx context.Context, credential, prompt string) (string, error) {
	client := g.clientFor(ctx, credential)

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: g.cfg.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	g.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("completion returned no text content")
	}
	return text.String(), nil
}

// clientFor returns the cached SDK client for credential, building it on first use.
func (g *AnthropicGenerator) clientFor(ctx context.Context, credential string) *anthropic.Client {
	if c, ok := g.clients[credential]; ok {
		return c
	}

	// Rotation happens in Completer; the SDK must not retry underneath it.
	opts := []option.RequestOption{option.WithMaxRetries(0)}

	if g.cfg.UseAWSBedrock {
		var loadOpts []func(*config.LoadOptions) error
		if g.cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(g.cfg.AWSRegion))
		}
		if credential != "" && credential != "default" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(credential))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		opts = append(opts, option.WithAPIKey(credential))
	}
	if g.cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(g.cfg.BaseURL))
	}

	c := anthropic.NewClient(opts...)
	g.clients[credential] = &c
	return &c
}

// translateModelForBedrock converts standard Anthropic model names to Bedrock inference profile format.
// Bedrock uses cross-region inference profiles: us.anthropic.{model}-v1:0
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
		anthropic.ModelClaude3_7Sonnet20250219:  "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}

	if bedrockModel, ok := bedrockModels[model]; ok {
		return anthropic.Model(bedrockModel)
	}

	// Might already be Bedrock format or a custom model
	return model
}

// TokenTracker tracks token usage across API calls.
type TokenTracker struct {
	mu        sync.Mutex
	inputTok  int64
	outputTok int64
	calls     int
}

// NewTokenTracker creates a new token tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// Add records token usage from an API call.
func (t *TokenTracker) Add(input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok += input
	t.outputTok += output
	t.calls++
}

// Total returns the total input and output tokens tracked.
func (t *TokenTracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTok, t.outputTok
}

// Calls returns the number of successful API calls.
func (t *TokenTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Cost estimates the cost in USD using approximate Sonnet pricing.
func (t *TokenTracker) Cost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	// $3/1M input, $15/1M output
	inputCost := float64(t.inputTok) / 1_000_000 * 3.0
	outputCost := float64(t.outputTok) / 1_000_000 * 15.0
	return inputCost + outputCost
}
