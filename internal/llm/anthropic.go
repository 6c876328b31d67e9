package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"
)

const (
	DefaultAnthropicModel = "claude-sonnet-4-6"

	anthropicUnexpectedFormat = "Received an unexpected response format from Anthropic API."
)

// Anthropic completes prompts through the Messages API
type Anthropic struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic builds a client; baseURL overrides the API host (proxies, tests)
func NewAnthropic(apiKey, model, baseURL string) *Anthropic {
	if model == "" {
		model = DefaultAnthropicModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: 1024,
	}
}

func (a *Anthropic) Complete(ctx context.Context, prompt string) string {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(a.model)),
		MaxTokens: anthropic.F(a.maxTokens),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		}),
	})
	if err != nil {
		log.Warn().Err(err).Str("model", a.model).Msg("anthropic request failed")
		return fmt.Sprintf("Request to Anthropic API failed: %v", err)
	}

	var sb strings.Builder
	found := false
	for _, block := range resp.Content {
		if b, ok := block.AsUnion().(anthropic.TextBlock); ok {
			sb.WriteString(b.Text)
			found = true
		}
	}
	if !found {
		return anthropicUnexpectedFormat
	}
	return strings.TrimSpace(sb.String())
}
