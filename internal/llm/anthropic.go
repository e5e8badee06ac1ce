package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pavelanni/lumira/internal/model"
)

const anthropicMaxTokens = 2048

// Anthropic is a Completer for the Claude Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropic creates a client. An empty baseURL selects the public API.
// SDK-level retries are disabled; wrap the client with WithRetry instead.
func NewAnthropic(baseURL, apiKey, modelName string) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(modelName),
		maxTokens: anthropicMaxTokens,
	}
}

// Complete implements Completer. System messages are joined into the
// request's system prompt; the rest are sent in order.
func (c *Anthropic) Complete(ctx context.Context, messages []model.Message) (string, error) {
	var system []string
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
	}
	for _, m := range messages {
		switch m.Role {
		case model.RoleSystem:
			system = append(system, m.Content)
		case model.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyAnthropic(err)
	}

	var b strings.Builder
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	raw := b.String()
	if strings.TrimSpace(raw) == "" {
		return "", emptyError("anthropic")
	}
	slog.Debug("LLM response", "provider", "anthropic", "raw", raw)
	return raw, nil
}

func classifyAnthropic(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return statusError("anthropic", apiErr.StatusCode, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Provider: "anthropic", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("anthropic: %w", err)
	}
	return transportError("anthropic", err)
}
