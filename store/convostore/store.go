// Package convostore implements the State Store adapter: the sole mechanism that
// establishes conversation_id uniqueness and therefore bounds provider sends to at-most-once.
package convostore

import (
	"context"
	"errors"
	"time"

	"github.com/convoflow/convoflow/types"
)

// InsertOutcome is the result of CreateInitial.
type InsertOutcome int

const (
	// Inserted means this call established the record.
	Inserted InsertOutcome = iota
	// AlreadyExists means a record with this conversation_id already exists; the caller must
	// treat this as a duplicate.
	AlreadyExists
)

// ErrStore wraps any store failure other than the conditional-insert predicate itself.
var ErrStore = errors.New("convostore: store error")

// SentUpdate is the S7 patch applied after a successful LLM run and provider send.
type SentUpdate = types.SentUpdate

// Key identifies a Conversation Record.
type Key struct {
	PrimaryChannel string
	ConversationID string
}

// Store is the State Store adapter.
type Store interface {
	// CreateInitial attempts the conditional insert predicated on
	// attribute_not_exists(conversation_id). Any failure other than the predicate itself is
	// wrapped in ErrStore.
	CreateInitial(ctx context.Context, record *types.ConversationRecord) (InsertOutcome, error)

	// UpdateAfterSend atomically sets multiple attributes and appends to messages via
	// list-append semantics. This is the S7 critical update.
	UpdateAfterSend(ctx context.Context, key Key, patch SentUpdate) error

	// UpdateStatus is a best-effort status transition used on S4-S6 failure paths.
	UpdateStatus(ctx context.Context, key Key, status types.ConversationStatus, updatedAt time.Time) error
}
