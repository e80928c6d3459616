package alert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySink_CapturesAlerts(t *testing.T) {
	s := NewMemorySink()
	s.Critical(context.Background(), "s7_update_failed", map[string]any{
		"conversation_id":     "ci#pi#req#447123456789",
		"provider_message_id": "prov-1",
	})

	records := s.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "s7_update_failed", records[0].Reason)
	assert.Equal(t, "prov-1", records[0].Fields["provider_message_id"])
}
