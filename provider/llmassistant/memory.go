package llmassistant

import (
	"context"
	"sync"
	"time"
)

// MemoryClient is an in-memory Client fake for tests.
type MemoryClient struct {
	mu sync.Mutex

	// Reply, if non-nil, is returned as the successful Result.Variables for every call.
	Reply map[string]any
	// Err, if non-nil, is returned from every call instead of Reply.
	Err error

	Calls []RunCall
}

// RunCall records one Run invocation's arguments.
type RunCall struct {
	AssistantID    string
	InitialMessage string
}

// NewMemoryClient builds a MemoryClient that returns reply on every call.
func NewMemoryClient(reply map[string]any) *MemoryClient {
	return &MemoryClient{Reply: reply}
}

// Run implements Client.
func (c *MemoryClient) Run(_ context.Context, assistantID, initialMessage string) (*Result, error) {
	c.mu.Lock()
	c.Calls = append(c.Calls, RunCall{AssistantID: assistantID, InitialMessage: initialMessage})
	c.mu.Unlock()

	if c.Err != nil {
		return nil, c.Err
	}

	return &Result{
		ThreadID:         "thread-fake",
		Variables:        c.Reply,
		PromptTokens:     10,
		CompletionTokens: 20,
		Elapsed:          50 * time.Millisecond,
	}, nil
}
