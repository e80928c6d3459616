// Package memqueue is an in-memory queue.Queue fake that simulates SQS redelivery and DLQ
// behavior closely enough to exercise the Channel Processor's heartbeat and duplicate-handling
// paths in tests.
package memqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/convoflow/convoflow/queue"
)

type inflight struct {
	msg           queue.Message
	visibleAt     time.Time
	deleted       bool
	deliveryCount int
}

// Queue is an in-memory queue.Queue fake with a bounded maxReceiveCount: a message that is
// still not deleted after that many deliveries moves to DLQ on the next receive instead of
// being redelivered.
type Queue struct {
	mu              sync.Mutex
	pending         []string // receipt handles in FIFO order of next-visible
	messages        map[string]*inflight
	dlq             []queue.Message
	nextReceipt     int
	maxReceiveCount int
}

// New builds an empty in-memory Queue. maxReceiveCount <= 0 disables DLQ routing.
func New(maxReceiveCount int) *Queue {
	return &Queue{
		messages:        make(map[string]*inflight),
		maxReceiveCount: maxReceiveCount,
	}
}

// Send implements queue.Queue.
func (q *Queue) Send(_ context.Context, in queue.SendInput) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextReceipt++
	receipt := fmt.Sprintf("receipt-%d", q.nextReceipt)

	q.messages[receipt] = &inflight{
		msg: queue.Message{
			Body:          in.Body,
			ReceiptHandle: receipt,
			Attributes:    in.Attributes,
		},
		visibleAt: time.Time{}, // immediately visible
	}
	q.pending = append(q.pending, receipt)
	return nil
}

// Receive implements queue.Queue. It is a simple FIFO scan; maxMessages and waitTime are
// honored loosely since tests drive this queue deterministically rather than under load.
func (q *Queue) Receive(_ context.Context, maxMessages int32, _ time.Duration) ([]queue.Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	var out []queue.Message

	for _, receipt := range q.pending {
		if int32(len(out)) >= maxMessages {
			break
		}
		m, ok := q.messages[receipt]
		if !ok || m.deleted {
			continue
		}
		if m.visibleAt.After(now) {
			continue
		}

		m.deliveryCount++
		m.msg.ApproximateReceiveCount = m.deliveryCount
		m.visibleAt = now.Add(30 * time.Second)

		if q.maxReceiveCount > 0 && m.deliveryCount > q.maxReceiveCount {
			q.dlq = append(q.dlq, m.msg)
			m.deleted = true
			continue
		}

		out = append(out, m.msg)
	}

	return out, nil
}

// ExtendVisibility implements queue.Queue.
func (q *Queue) ExtendVisibility(_ context.Context, receiptHandle string, extension time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	m, ok := q.messages[receiptHandle]
	if !ok || m.deleted {
		return fmt.Errorf("memqueue: unknown or deleted receipt handle %q", receiptHandle)
	}
	m.visibleAt = time.Now().Add(extension)
	return nil
}

// Delete implements queue.Queue.
func (q *Queue) Delete(_ context.Context, receiptHandle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	m, ok := q.messages[receiptHandle]
	if !ok {
		return fmt.Errorf("memqueue: unknown receipt handle %q", receiptHandle)
	}
	m.deleted = true
	return nil
}

// DLQ returns the messages routed to the dead-letter queue, for test assertions.
func (q *Queue) DLQ() []queue.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.Message(nil), q.dlq...)
}

// Requeue makes receiptHandle immediately visible again, simulating a redelivery after
// visibility timeout expiry without waiting in real time.
func (q *Queue) Requeue(receiptHandle string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if m, ok := q.messages[receiptHandle]; ok {
		m.visibleAt = time.Time{}
	}
}
