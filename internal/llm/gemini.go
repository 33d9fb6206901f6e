package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-1.5-pro"

// Gemini is a Gateway backed by the Google Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini gateway. A missing API key makes the backend
// unavailable rather than deferring the failure to the first call.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrUnavailable)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Complete sends one prompt and returns the raw completion text.
func (g *Gemini) Complete(ctx context.Context, promptText string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(promptText), nil)
	if err != nil {
		return "", &BackendError{Provider: "gemini", Err: err}
	}
	text := result.Text()
	if text == "" {
		return "", &BackendError{Provider: "gemini", Err: fmt.Errorf("empty completion")}
	}
	return text, nil
}
