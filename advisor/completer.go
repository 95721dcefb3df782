// Package advisor is the optional AI trading buddy. It classifies loss
// reasons and writes reactions, summaries and lock messages, falling back to
// local message pools whenever the model is unavailable.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Request is one single-turn completion.
type Request struct {
	APIKey      string
	Prompt      string
	MaxTokens   int32
	Temperature float32
}

// Completer is a chat-completion backend.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

var ErrNotConfigured = errors.New("API key not configured")

// Error is a failed AI call. Retryable marks failures worth trying again
// later: transport errors, rate limiting, server errors and an open breaker.
type Error struct {
	Op        string
	Status    int
	Msg       string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("advisor %s: %s (status %d)", e.Op, msg, e.Status)
	}
	return fmt.Sprintf("advisor %s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// asError returns err as an *Error tagged with op.
func asError(op string, err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		out := *ae
		out.Op = op
		return &out
	}
	return &Error{Op: op, Msg: err.Error(), Retryable: true, Err: err}
}
