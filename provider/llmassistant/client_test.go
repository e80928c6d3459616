package llmassistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply_ValidJSON(t *testing.T) {
	vars, err := parseReply(`{"greeting": "hi", "name": "Jane"}`)
	require.NoError(t, err)
	assert.Equal(t, "hi", vars["greeting"])
}

func TestParseReply_InvalidJSON(t *testing.T) {
	_, err := parseReply("not json")
	require.Error(t, err)
	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, FailureUnparseable, llmErr.Kind)
}

func TestRequireFields_AllPresent(t *testing.T) {
	err := RequireFields(map[string]any{"a": "x", "b": "y"}, []string{"a", "b"})
	assert.NoError(t, err)
}

func TestRequireFields_MissingOrEmpty(t *testing.T) {
	err := RequireFields(map[string]any{"a": ""}, []string{"a", "b"})
	require.Error(t, err)
	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, FailureMissingFields, llmErr.Kind)
}

func TestMemoryClient_Run(t *testing.T) {
	c := NewMemoryClient(map[string]any{"greeting": "hi"})
	res, err := c.Run(context.Background(), "asst-1", "hello context object")
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Variables["greeting"])
	require.Len(t, c.Calls, 1)
	assert.Equal(t, "asst-1", c.Calls[0].AssistantID)
}
