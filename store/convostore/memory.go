package convostore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/convoflow/convoflow/types"
)

// MemoryStore is an in-memory Store fake for tests. CreateInitial is a true linearizable
// conditional insert: a single mutex guards the check-then-set, generalizing the corpus's
// memoryManager cache shape from "cache a result" to "enforce uniqueness".
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*types.ConversationRecord
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*types.ConversationRecord)}
}

func recordKey(primaryChannel, conversationID string) string {
	return primaryChannel + "#" + conversationID
}

// CreateInitial implements Store.
func (s *MemoryStore) CreateInitial(_ context.Context, record *types.ConversationRecord) (InsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := recordKey(record.PrimaryChannel, record.ConversationID)
	if _, exists := s.records[k]; exists {
		return AlreadyExists, nil
	}

	cp := *record
	cp.Messages = append([]types.MessageEntry(nil), record.Messages...)
	s.records[k] = &cp
	return Inserted, nil
}

// UpdateAfterSend implements Store.
func (s *MemoryStore) UpdateAfterSend(_ context.Context, key Key, patch SentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordKey(key.PrimaryChannel, key.ConversationID)]
	if !ok {
		return fmt.Errorf("%w: no record for %s/%s", ErrStore, key.PrimaryChannel, key.ConversationID)
	}

	rec.ConversationStatus = types.StatusInitialMessageSent
	rec.TaskComplete = 1
	rec.ThreadID = patch.ThreadID
	rec.ProviderMessageID = patch.ProviderMessageID
	rec.ProcessingTimeMs = patch.ProcessingTimeMs
	rec.UpdatedAt = patch.UpdatedAt
	rec.Messages = append(rec.Messages, patch.AssistantEntry)

	return nil
}

// UpdateStatus implements Store.
func (s *MemoryStore) UpdateStatus(_ context.Context, key Key, status types.ConversationStatus, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordKey(key.PrimaryChannel, key.ConversationID)]
	if !ok {
		return fmt.Errorf("%w: no record for %s/%s", ErrStore, key.PrimaryChannel, key.ConversationID)
	}

	rec.ConversationStatus = status
	rec.UpdatedAt = updatedAt
	return nil
}

// Get returns a copy of the stored record, for test assertions.
func (s *MemoryStore) Get(primaryChannel, conversationID string) (*types.ConversationRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordKey(primaryChannel, conversationID)]
	if !ok {
		return nil, false
	}
	cp := *rec
	return &cp, true
}
