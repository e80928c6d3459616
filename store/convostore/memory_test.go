package convostore

import (
	"context"
	"testing"
	"time"

	"github.com/convoflow/convoflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() *types.ConversationRecord {
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	return &types.ConversationRecord{
		PrimaryChannel:     "447123456789",
		ConversationID:     "ci-aaa-001#pi-aaa-001#req-001#447123456789",
		CompanyID:          "ci-aaa-001",
		ProjectID:          "pi-aaa-001",
		ChannelMethod:      types.ChannelWhatsApp,
		ConversationStatus: types.StatusProcessing,
		TaskComplete:       0,
		CreatedAt:          now,
		UpdatedAt:          now,
		Messages:           []types.MessageEntry{},
	}
}

func TestMemoryStore_CreateInitial_FirstWinsSecondDuplicate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	outcome, err := s.CreateInitial(ctx, testRecord())
	require.NoError(t, err)
	assert.Equal(t, Inserted, outcome)

	outcome, err = s.CreateInitial(ctx, testRecord())
	require.NoError(t, err)
	assert.Equal(t, AlreadyExists, outcome)
}

func TestMemoryStore_UpdateAfterSend(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := testRecord()

	_, err := s.CreateInitial(ctx, rec)
	require.NoError(t, err)

	key := Key{PrimaryChannel: rec.PrimaryChannel, ConversationID: rec.ConversationID}
	entry := types.NewAssistantEntry("hello", 10, 20, 150)
	err = s.UpdateAfterSend(ctx, key, SentUpdate{
		ThreadID:          "thread-1",
		AssistantEntry:    entry,
		ProcessingTimeMs:  150,
		ProviderMessageID: "prov-msg-1",
		UpdatedAt:         time.Now().UTC(),
	})
	require.NoError(t, err)

	got, ok := s.Get(key.PrimaryChannel, key.ConversationID)
	require.True(t, ok)
	assert.Equal(t, types.StatusInitialMessageSent, got.ConversationStatus)
	assert.Equal(t, 1, got.TaskComplete)
	assert.Equal(t, "thread-1", got.ThreadID)
	assert.Equal(t, "prov-msg-1", got.ProviderMessageID)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hello", got.Messages[0].Content)
}

func TestMemoryStore_UpdateStatus_FailurePath(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := testRecord()

	_, err := s.CreateInitial(ctx, rec)
	require.NoError(t, err)

	key := Key{PrimaryChannel: rec.PrimaryChannel, ConversationID: rec.ConversationID}
	err = s.UpdateStatus(ctx, key, types.StatusFailed, time.Now().UTC())
	require.NoError(t, err)

	got, ok := s.Get(key.PrimaryChannel, key.ConversationID)
	require.True(t, ok)
	assert.Equal(t, types.StatusFailed, got.ConversationStatus)
}
