// Package alert implements the Alert Sink: the distinguished CRITICAL-severity structured log
// record the post-send failure path raises, and the counter an out-of-scope alerting pipeline
// scrapes.
package alert

import "context"

// Sink emits CRITICAL-severity structured alerts. It must never return an error: alerting is
// best-effort and must not itself become a new failure mode on the already-failing S7 path.
type Sink interface {
	Critical(ctx context.Context, reason string, fields map[string]any)
}
