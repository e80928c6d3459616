package alert

import (
	"context"

	"go.uber.org/zap"

	"github.com/convoflow/convoflow/internal/metrics"
)

// ZapSink is the production Sink: a structured log record at zap's Error level tagged with a
// fixed CRITICAL marker, plus a Prometheus counter increment for alerting pipelines that scrape
// metrics rather than tail logs.
type ZapSink struct {
	logger     *zap.Logger
	collector  *metrics.Collector
}

// NewZapSink builds a ZapSink. collector may be nil if metrics are not wired.
func NewZapSink(logger *zap.Logger, collector *metrics.Collector) *ZapSink {
	return &ZapSink{logger: logger, collector: collector}
}

// Severity is the fixed marker every CRITICAL alert carries, so log-based alerting can filter
// on a single stable string regardless of field contents.
const Severity = "CRITICAL"

// Critical implements Sink.
func (s *ZapSink) Critical(_ context.Context, reason string, fields map[string]any) {
	zapFields := make([]zap.Field, 0, len(fields)+1)
	zapFields = append(zapFields, zap.String("severity", Severity))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}

	s.logger.Error(reason, zapFields...)

	if s.collector != nil {
		s.collector.RecordCriticalAlert(reason)
	}
}
