// Package heartbeat implements the Heartbeat contract: a background activity that keeps a
// queue message's lease alive while the pipeline processes it. Grounded on the
// corpus's ticker+select+stop-channel background-goroutine shape (llm/idempotency's
// memoryManager.cleanupLoop), generalized from periodic cache cleanup to periodic lease
// extension.
package heartbeat

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/convoflow/convoflow/queue"
)

// Heartbeat extends a single queue message's visibility timeout every interval until Stop is
// called. It must not retain references to the pipeline's business state — it is constructed with only the queue, receipt handle, and timing.
type Heartbeat struct {
	q             queue.Queue
	receiptHandle string
	interval      time.Duration
	extension     time.Duration
	logger        *zap.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}

	mu      sync.Mutex
	lastErr error
}

// New constructs a Heartbeat; call Start to launch its background activity. interval must be
// strictly less than extension.
func New(q queue.Queue, receiptHandle string, interval, extension time.Duration, logger *zap.Logger) *Heartbeat {
	return &Heartbeat{
		q:             q,
		receiptHandle: receiptHandle,
		interval:      interval,
		extension:     extension,
		logger:        logger,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start launches the background activity. Safe to call once per Heartbeat.
func (h *Heartbeat) Start(ctx context.Context) {
	go h.run(ctx)
}

func (h *Heartbeat) run(ctx context.Context) {
	defer close(h.doneCh)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.q.ExtendVisibility(ctx, h.receiptHandle, h.extension); err != nil {
				h.mu.Lock()
				if h.lastErr == nil {
					h.lastErr = err
				}
				h.mu.Unlock()
				if h.logger != nil {
					h.logger.Warn("heartbeat: extend visibility failed, terminating", zap.Error(err))
				}
				return
			}
		}
	}
}

// Stop signals termination and blocks until the activity has exited. Safe to call
// more than once.
func (h *Heartbeat) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
	<-h.doneCh
}

// LastError returns the first error encountered, if any.
func (h *Heartbeat) LastError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}
