// Package llm is the boundary to the generative-language backend. The core
// treats it as an opaque blocking service: one attempt per call, no internal
// retry, failures surfaced verbatim to the caller.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable means the backend cannot be reached at all, e.g. no API
// key was configured. Distinct from a call that reached the backend and failed.
var ErrUnavailable = errors.New("completion backend unavailable")

// BackendError wraps a transport or backend failure from a completion call.
type BackendError struct {
	Provider string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Gateway sends one assembled prompt to the backend and returns the raw
// completion text. Implementations must not retry internally.
type Gateway interface {
	Complete(ctx context.Context, promptText string) (string, error)
}

// Unavailable stands in for a gateway when no credential is configured.
// The server keeps running so /health can report the missing key; every
// completion call fails with ErrUnavailable.
type Unavailable struct{}

func (Unavailable) Complete(context.Context, string) (string, error) {
	return "", ErrUnavailable
}
