package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI is a Gateway backed by any OpenAI-compatible chat completion
// endpoint (hosted or local).
type OpenAI struct {
	api   *openai.Client
	model string
}

// NewOpenAI creates an OpenAI-compatible gateway. baseURL may be empty for
// the hosted API or point at a local endpoint.
func NewOpenAI(baseURL, apiKey, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrUnavailable)
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAI{
		api:   openai.NewClientWithConfig(config),
		model: model,
	}, nil
}

// Complete sends one prompt as a single user message and returns the raw
// completion text.
func (c *OpenAI) Complete(ctx context.Context, promptText string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: promptText},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", &BackendError{Provider: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &BackendError{Provider: "openai", Err: fmt.Errorf("no choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}

// Ping verifies the endpoint is reachable before serving traffic.
func (c *OpenAI) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}
	return nil
}
