package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

// AnthropicConfig configures the Anthropic messages API
type AnthropicConfig struct {
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// AnthropicGenerator implements Generator with the messages API
type AnthropicGenerator struct {
	client      *anthropic.Client
	temperature float32
	maxTokens   int
}

// NewAnthropicGenerator creates a generator for the Anthropic API
func NewAnthropicGenerator(cfg AnthropicConfig) *AnthropicGenerator {
	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	return &AnthropicGenerator{
		client:      anthropic.NewClient(cfg.APIKey, opts...),
		temperature: float32(cfg.Temperature),
		maxTokens:   maxTokens,
	}
}

// Name returns the provider name
func (g *AnthropicGenerator) Name() string {
	return "anthropic"
}

// Generate sends the prompt as a single user turn and returns the first text block
func (g *AnthropicGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(model),
		MaxTokens:   g.maxTokens,
		Temperature: &g.temperature,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create message: %w", err)
	}

	text := extractText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}

	slog.Debug("message finished",
		"model", model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)

	return text, nil
}

func extractText(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}
