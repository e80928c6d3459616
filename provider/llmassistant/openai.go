package llmassistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// encodingOnce loads the BPE encoding Assistants-API models use at most once and shares it
// across every OpenAIClient, since GetEncoding builds a sizable merge table.
var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
	encodingErr  error
)

func openAIEncoding() (*tiktoken.Tiktoken, error) {
	encodingOnce.Do(func() {
		encoding, encodingErr = tiktoken.GetEncoding("cl100k_base")
	})
	return encoding, encodingErr
}

// OpenAIClient implements Client over OpenAI's Beta Threads/Runs (Assistants) API — the one
// component of this module that talks to a real vendor SDK rather than a hand-rolled HTTP
// client, since the Assistants API surface is an exact match for this contract.
type OpenAIClient struct {
	client openai.Client
	poll   PollConfig
	logger *zap.Logger
}

// NewOpenAIClient builds an OpenAIClient. requestTimeout bounds every individual API call;
// poll bounds the overall run-polling wait. A nil logger is replaced with a no-op logger.
func NewOpenAIClient(apiKey string, requestTimeout time.Duration, poll PollConfig, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIClient{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithRequestTimeout(requestTimeout),
		),
		poll:   poll,
		logger: logger,
	}
}

// Run implements Client.
func (c *OpenAIClient) Run(ctx context.Context, assistantID, initialMessage string) (*Result, error) {
	start := time.Now()

	if c.poll.MaxPromptTokens > 0 {
		if count, err := c.countPromptTokens(initialMessage); err == nil && count > c.poll.MaxPromptTokens {
			return nil, &Error{Kind: FailurePromptTooLarge, Cause: fmt.Errorf("initial message is %d tokens, over the %d-token limit", count, c.poll.MaxPromptTokens)}
		} else if err != nil {
			c.logger.Warn("llmassistant: token count estimate failed, submitting without a pre-flight bound", zap.Error(err))
		}
	}

	thread, err := c.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return nil, &Error{Kind: FailureTransport, Cause: err}
	}

	_, err = c.client.Beta.Threads.Messages.New(ctx, thread.ID, openai.BetaThreadMessageNewParams{
		Role:    openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{OfString: openai.String(initialMessage)},
	})
	if err != nil {
		return nil, &Error{Kind: FailureTransport, Cause: err}
	}

	run, err := c.client.Beta.Threads.Runs.New(ctx, thread.ID, openai.BetaThreadRunNewParams{
		AssistantID: assistantID,
	})
	if err != nil {
		return nil, &Error{Kind: FailureTransport, Cause: err}
	}

	run, err = c.pollUntilTerminal(ctx, thread.ID, run.ID)
	if err != nil {
		return nil, err
	}

	switch run.Status {
	case openai.RunStatusCompleted:
		// proceed
	case openai.RunStatusFailed, openai.RunStatusExpired, openai.RunStatusCancelled:
		return nil, &Error{Kind: FailureRunFailed, Cause: errors.New(string(run.Status))}
	default:
		return nil, &Error{Kind: FailureTimeout, Cause: errDeadlineExceeded}
	}

	raw, err := c.latestAssistantMessage(ctx, thread.ID)
	if err != nil {
		return nil, err
	}

	vars, err := parseReply(raw)
	if err != nil {
		return nil, err
	}

	return &Result{
		ThreadID:         thread.ID,
		Variables:        vars,
		RawReply:         raw,
		PromptTokens:     int(run.Usage.PromptTokens),
		CompletionTokens: int(run.Usage.CompletionTokens),
		Elapsed:          time.Since(start),
	}, nil
}

func (c *OpenAIClient) pollUntilTerminal(ctx context.Context, threadID, runID string) (openai.Run, error) {
	deadline := time.Now().Add(c.poll.MaxTotalWait)
	ticker := time.NewTicker(c.poll.Interval)
	defer ticker.Stop()

	for {
		run, err := c.client.Beta.Threads.Runs.Get(ctx, threadID, runID, openai.BetaThreadRunGetParams{})
		if err != nil {
			return openai.Run{}, &Error{Kind: FailureTransport, Cause: err}
		}

		if isTerminal(run.Status) {
			return *run, nil
		}

		if time.Now().After(deadline) {
			return openai.Run{}, &Error{Kind: FailureTimeout, Cause: errDeadlineExceeded}
		}

		select {
		case <-ctx.Done():
			return openai.Run{}, &Error{Kind: FailureTransport, Cause: ctx.Err()}
		case <-ticker.C:
		}
	}
}

func isTerminal(status openai.RunStatus) bool {
	switch status {
	case openai.RunStatusCompleted, openai.RunStatusFailed, openai.RunStatusExpired, openai.RunStatusCancelled:
		return true
	default:
		return false
	}
}

// countPromptTokens estimates initialMessage's token count under the Assistants API's BPE
// encoding, for the pre-flight bound in Run. This is a local estimate, not the authoritative
// count — that comes back from the provider as run.Usage once the call completes.
func (c *OpenAIClient) countPromptTokens(initialMessage string) (int, error) {
	enc, err := openAIEncoding()
	if err != nil {
		return 0, fmt.Errorf("llmassistant: load tiktoken encoding: %w", err)
	}
	return len(enc.Encode(initialMessage, nil, nil)), nil
}

func (c *OpenAIClient) latestAssistantMessage(ctx context.Context, threadID string) (string, error) {
	page, err := c.client.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{
		Order: openai.BetaThreadMessageListParamsOrderDesc,
		Limit: openai.Int(1),
	})
	if err != nil {
		return "", &Error{Kind: FailureTransport, Cause: err}
	}
	if len(page.Data) == 0 || len(page.Data[0].Content) == 0 {
		return "", &Error{Kind: FailureUnparseable, Cause: errors.New("assistant reply contained no content blocks")}
	}

	block := page.Data[0].Content[0]
	if block.Text.Value == "" {
		return "", &Error{Kind: FailureUnparseable, Cause: errors.New("assistant reply's first content block was not text")}
	}
	return block.Text.Value, nil
}
