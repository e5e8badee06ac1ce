// Package llm talks to language model providers and implements the agents
// of the tutoring bot on top of them: moderator, tutor, examiner and the
// step planner of the problem solver.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/lumira/internal/model"
)

// Completer sends an ordered list of role-tagged messages to a model and
// returns the completion text.
type Completer interface {
	Complete(ctx context.Context, messages []model.Message) (string, error)
}

// OpenAI is a Completer for any OpenAI-compatible chat completions API
// (OpenAI, Ollama, GigaChat gateways).
type OpenAI struct {
	api         *openai.Client
	model       string
	temperature float32
}

// NewOpenAI creates a client. An empty baseURL selects the OpenAI endpoint.
func NewOpenAI(baseURL, apiKey, modelName string) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAI{
		api:         openai.NewClientWithConfig(config),
		model:       modelName,
		temperature: 0.3,
	}
}

// Complete implements Completer.
func (c *OpenAI) Complete(ctx context.Context, messages []model.Message) (string, error) {
	chatMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{
			Role:    openAIRole(m.Role),
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMsgs,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", classifyOpenAI(err)
	}

	if len(resp.Choices) == 0 {
		return "", emptyError("openai")
	}
	raw := resp.Choices[0].Message.Content
	if strings.TrimSpace(raw) == "" {
		return "", emptyError("openai")
	}
	slog.Debug("LLM response", "provider", "openai", "raw", raw)
	return raw, nil
}

func openAIRole(r model.Role) string {
	switch r {
	case model.RoleSystem:
		return openai.ChatMessageRoleSystem
	case model.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

func classifyOpenAI(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError("openai", apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusError("openai", reqErr.HTTPStatusCode, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Provider: "openai", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("openai: %w", err)
	}
	return transportError("openai", err)
}
