package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestUnavailableGateway(t *testing.T) {
	_, err := Unavailable{}.Complete(context.Background(), "prompt")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAI("", "", "")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestBackendErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &BackendError{Provider: "openai", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("Unwrap should expose the inner error")
	}
	if msg := err.Error(); !strings.Contains(msg, "openai") || !strings.Contains(msg, "connection refused") {
		t.Errorf("message = %q", msg)
	}
}
