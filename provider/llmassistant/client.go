// Package llmassistant implements the LLM client contract: open a thread, append
// the initial user message, start an assistant run, and poll until terminal state.
package llmassistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// FailureKind distinguishes why a run did not produce a usable reply: transport errors,
// timeout, and non-terminal statuses are surfaced as distinct failure kinds.
type FailureKind string

const (
	FailureTransport      FailureKind = "transport"
	FailureTimeout        FailureKind = "timeout"
	FailureRunFailed      FailureKind = "run_failed"
	FailureUnparseable    FailureKind = "unparseable_reply"
	FailureMissingFields  FailureKind = "missing_required_variables"
	FailurePromptTooLarge FailureKind = "prompt_too_large"
)

// Error wraps a Kind alongside the underlying cause.
type Error struct {
	Kind  FailureKind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("llmassistant: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("llmassistant: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// Result is what a successful Run produces.
type Result struct {
	ThreadID         string
	Variables        map[string]any
	RawReply         string
	PromptTokens     int
	CompletionTokens int
	Elapsed          time.Duration
}

// Client is the LLM client contract. One Run call drives the full create-thread ->
// append-message -> start-run -> poll lifecycle.
type Client interface {
	// Run submits initialMessage as the thread's opening user message, starts a run with
	// assistantID, and polls until the run reaches a terminal state or pollConfig's bound is
	// exceeded. The assistant's reply is parsed as a JSON object.
	Run(ctx context.Context, assistantID, initialMessage string) (*Result, error)
}

// PollConfig parameterizes the fixed-interval polling strategy.
type PollConfig struct {
	Interval     time.Duration
	MaxTotalWait time.Duration

	// MaxPromptTokens, if > 0, bounds the initial message's token count. A message over this
	// bound fails fast with FailurePromptTooLarge instead of being submitted to the provider,
	// which would otherwise reject it after the network round trip.
	MaxPromptTokens int
}

// parseReply decodes the assistant's raw text reply as a JSON object mapping to the
// provider template's variable slots.
func parseReply(raw string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &Error{Kind: FailureUnparseable, Cause: err}
	}
	return out, nil
}

// RequireFields validates that every name in required is present and non-empty in vars,
// surfacing FailureMissingFields otherwise.
func RequireFields(vars map[string]any, required []string) error {
	var missing []string
	for _, name := range required {
		v, ok := vars[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &Error{Kind: FailureMissingFields, Cause: fmt.Errorf("missing variables: %v", missing)}
	}
	return nil
}

// errDeadlineExceeded is returned by the poll loop when MaxTotalWait elapses before the run
// reaches a terminal state.
var errDeadlineExceeded = errors.New("llmassistant: run did not reach a terminal state before the poll deadline")
