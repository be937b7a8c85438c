// Package anthropic wraps the official SDK behind the single synchronous
// completion call the scanner needs for description synthesis.
package anthropic

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrDisabled is returned by a client constructed without an API key.
// Callers treat it like any other failure and fall back to templates.
var ErrDisabled = eris.New("anthropic: no API key configured")

// Client performs single-shot text completions.
type Client interface {
	// Complete sends one user prompt and returns the model's text output.
	Complete(ctx context.Context, prompt string, maxTokens int64) (string, error)

	// Enabled reports whether the client has a credential.
	Enabled() bool
}

// TokenUsage tracks token consumption for one call.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// modelPricing holds per-million-token pricing for known models.
var modelPricing = map[string][2]float64{
	// model → {input $/MTok, output $/MTok}
	"claude-haiku-4-5-20251001":  {0.80, 4.00},
	"claude-sonnet-4-5-20250929": {3.00, 15.00},
}

// EstimateCost computes an estimated cost in USD from a TokenUsage and model ID.
// Returns 0 for unknown models.
func (u TokenUsage) EstimateCost(model string) float64 {
	pricing, ok := modelPricing[model]
	if !ok {
		return 0
	}
	inCost := (float64(u.InputTokens) / 1e6) * pricing[0]
	outCost := (float64(u.OutputTokens) / 1e6) * pricing[1]
	return inCost + outCost
}

// LogCost logs token usage and estimated cost with structured zap fields.
func (u TokenUsage) LogCost(model, detector string) {
	zap.L().Debug("cost attribution",
		zap.String("model", model),
		zap.String("detector", detector),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Float64("estimated_cost_usd", u.EstimateCost(model)),
	)
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client sdk.Client
	model  string
}

// NewClient creates an Anthropic client for the given model. An empty apiKey
// yields a disabled client whose Complete always returns ErrDisabled.
func NewClient(apiKey, model string) Client {
	if apiKey == "" {
		return disabledClient{}
	}
	return &sdkClient{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *sdkClient) Enabled() bool { return true }

func (c *sdkClient) Complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "anthropic: create message")
	}

	usage := TokenUsage{
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}
	usage.LogCost(c.model, "")

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// disabledClient is the no-credential stand-in.
type disabledClient struct{}

func (disabledClient) Enabled() bool { return false }

func (disabledClient) Complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	return "", ErrDisabled
}
