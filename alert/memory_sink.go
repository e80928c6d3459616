package alert

import (
	"context"
	"sync"
)

// Record is one captured alert, for test assertions.
type Record struct {
	Reason string
	Fields map[string]any
}

// MemorySink is a recording Sink fake for tests.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

// NewMemorySink builds an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Critical implements Sink.
func (s *MemorySink) Critical(_ context.Context, reason string, fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, Record{Reason: reason, Fields: fields})
}

// Records returns a copy of every captured alert.
func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}
