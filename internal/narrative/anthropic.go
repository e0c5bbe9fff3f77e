package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/cory-johannsen/fightsim/internal/config"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
)

const systemPrompt = "You are a concise fight analyst. Answer in plain prose without headings or lists."

// AnthropicCommentator asks a Claude model for matchup analysis through the
// Messages API.
type AnthropicCommentator struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	timeout   time.Duration
}

// NewAnthropicCommentator builds a commentator from cfg. Extra request
// options (base URL, retries) are appended after the API key.
//
// Precondition: cfg.Model is non-empty and cfg.MaxTokens > 0.
// Postcondition: returns an error when no API key is configured.
func NewAnthropicCommentator(cfg config.NarrativeConfig, opts ...option.RequestOption) (*AnthropicCommentator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("narrative: anthropic api key is not configured")
	}
	all := append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	return &AnthropicCommentator{
		client:    anthropic.NewClient(all...),
		model:     anthropic.Model(cfg.Model),
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
	}, nil
}

// Analyze implements Commentator.
func (c *AnthropicCommentator) Analyze(ctx context.Context, a, b *fighter.Fighter) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(Prompt(a, b))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("narrative: messages request: %w", err)
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("narrative: model returned no text")
	}
	return text, nil
}
