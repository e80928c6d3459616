package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.pipelineStageTotal)
	assert.NotNil(t, collector.pipelineMessageResult)
	assert.NotNil(t, collector.llmRunDuration)
	assert.NotNil(t, collector.criticalAlertsTotal)
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordHTTPRequest("POST", "/initiate-conversation", 200, 100*time.Millisecond)
	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, count, 0)

	collector.RecordHTTPRequest("POST", "/initiate-conversation", 400, 10*time.Millisecond)
	newCount := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, newCount, count)
}

func TestCollector_RecordPipelineStage(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordPipelineStage("whatsapp", "S3", "inserted")
	collector.RecordPipelineStage("whatsapp", "S3", "already_exists")

	count := testutil.CollectAndCount(collector.pipelineStageTotal)
	assert.Equal(t, 2, count)
}

func TestCollector_RecordMessageResult(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordMessageResult("sms", "success")
	count := testutil.CollectAndCount(collector.pipelineMessageResult)
	assert.Greater(t, count, 0)
}

func TestCollector_RecordLLMRunDuration(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordLLMRunDuration("email", 3*time.Second)
	count := testutil.CollectAndCount(collector.llmRunDuration)
	assert.Greater(t, count, 0)
}

func TestCollector_RecordCriticalAlert(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordCriticalAlert("s7_update_failed")
	count := testutil.CollectAndCount(collector.criticalAlertsTotal)
	assert.Greater(t, count, 0)
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			collector.RecordHTTPRequest("POST", "/initiate-conversation", 200, 10*time.Millisecond)
			collector.RecordPipelineStage("whatsapp", "S5", "success")
			collector.RecordCriticalAlert("s7_update_failed")
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Greater(t, testutil.CollectAndCount(collector.httpRequestsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.pipelineStageTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.criticalAlertsTotal), 0)
}

func TestCollector_MetricsRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	registry.MustRegister(collector.httpRequestsTotal)
	registry.MustRegister(collector.criticalAlertsTotal)

	collector.RecordHTTPRequest("POST", "/initiate-conversation", 200, time.Millisecond)
	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, count, 0)
}
