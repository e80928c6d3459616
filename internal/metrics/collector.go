package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector holds the Prometheus vectors for both binaries.
type Collector struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	pipelineStageTotal    *prometheus.CounterVec
	pipelineMessageResult *prometheus.CounterVec
	llmRunDuration        *prometheus.HistogramVec

	criticalAlertsTotal *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector builds a Collector, registering every metric under namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of ingress HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Ingress HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.pipelineStageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_total",
			Help:      "Total number of Channel Processor pipeline stage outcomes",
		},
		[]string{"channel_method", "stage", "outcome"},
	)

	c.pipelineMessageResult = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_message_result_total",
			Help:      "Total number of processed queue messages by final outcome",
		},
		[]string{"channel_method", "result"}, // result: success, failure
	)

	c.llmRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_run_duration_seconds",
			Help:      "Assistant run duration from thread creation to terminal state",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 90, 120},
		},
		[]string{"channel_method"},
	)

	c.criticalAlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "critical_alerts_total",
			Help:      "Total number of CRITICAL-severity structured log records emitted",
		},
		[]string{"reason"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordHTTPRequest records one Ingress Router HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordPipelineStage records one pipeline stage's outcome (e.g. stage="S3", outcome="inserted").
func (c *Collector) RecordPipelineStage(channelMethod, stage, outcome string) {
	c.pipelineStageTotal.WithLabelValues(channelMethod, stage, outcome).Inc()
}

// RecordMessageResult records a processed message's final success/failure outcome.
func (c *Collector) RecordMessageResult(channelMethod, result string) {
	c.pipelineMessageResult.WithLabelValues(channelMethod, result).Inc()
}

// RecordLLMRunDuration records the wall-clock time an assistant run took to reach a terminal
// state.
func (c *Collector) RecordLLMRunDuration(channelMethod string, duration time.Duration) {
	c.llmRunDuration.WithLabelValues(channelMethod).Observe(duration.Seconds())
}

// RecordCriticalAlert increments the CRITICAL-severity alert counter.
func (c *Collector) RecordCriticalAlert(reason string) {
	c.criticalAlertsTotal.WithLabelValues(reason).Inc()
}

func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
