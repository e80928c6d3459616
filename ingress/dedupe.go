package ingress

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DedupeCache is a short-TTL guard against an immediate client retry re-running the full
// Initiate pipeline. It is a latency/cost optimization only: S3's conditional insert in the
// Channel Processor remains the sole correctness mechanism for invariant 1 (at-most-one send per
// request_id). A miss, a disabled cache (ttl <= 0), or a Redis error must never block a request
// from reaching the queue — this cache fails open.
type DedupeCache struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewDedupeCache builds a DedupeCache. A ttl <= 0 disables the cache entirely (Seen always
// reports "not seen", Mark is a no-op).
func NewDedupeCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *DedupeCache {
	return &DedupeCache{redis: client, ttl: ttl, prefix: "ingress:dedupe:", logger: logger}
}

// Enabled reports whether the cache is configured to do anything.
func (c *DedupeCache) Enabled() bool {
	return c != nil && c.redis != nil && c.ttl > 0
}

// SeenResult, if non-nil, is what Initiate should return verbatim instead of re-running the
// pipeline for a request_id it has already answered within the TTL window.
type SeenResult struct {
	ConversationID string
}

// Seen checks whether request_id has already been answered recently. Any Redis error is logged
// and treated as "not seen" so the pipeline proceeds normally.
func (c *DedupeCache) Seen(ctx context.Context, requestID string) (*SeenResult, bool) {
	if !c.Enabled() {
		return nil, false
	}
	conversationID, err := c.redis.Get(ctx, c.prefix+requestID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("ingress: dedupe cache read failed, proceeding without it", zap.Error(err))
		}
		return nil, false
	}
	return &SeenResult{ConversationID: conversationID}, true
}

// Mark records that request_id has just been answered successfully with conversationID, so a
// near-immediate retry of the same request can be answered from cache instead of re-running the
// full pipeline. Best-effort: a write failure is logged, never returned to the caller.
func (c *DedupeCache) Mark(ctx context.Context, requestID, conversationID string) {
	if !c.Enabled() {
		return
	}
	if err := c.redis.Set(ctx, c.prefix+requestID, conversationID, c.ttl).Err(); err != nil {
		c.logger.Warn("ingress: dedupe cache write failed", zap.Error(err))
	}
}
