// Package stats provides in-process counters for scoring operations.
// Prometheus covers scrape-based monitoring; these counters back the
// periodic log summary and are cheap enough to keep always on.
package stats

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// OperationStats tracks cumulative counts of scoring operations and the
// entities they processed. All operations are thread-safe using atomic
// counters.
type OperationStats struct {
	requests int64 // Total scoring requests served
	entities int64 // Total entities processed across all requests
}

// NewOperationStats creates a new OperationStats instance.
func NewOperationStats() *OperationStats {
	return &OperationStats{}
}

// Record adds one request over n entities.
func (s *OperationStats) Record(n int) {
	atomic.AddInt64(&s.requests, 1)
	atomic.AddInt64(&s.entities, int64(n))
}

// Requests returns the total number of scoring requests.
func (s *OperationStats) Requests() int64 {
	return atomic.LoadInt64(&s.requests)
}

// Entities returns the total number of entities processed.
func (s *OperationStats) Entities() int64 {
	return atomic.LoadInt64(&s.entities)
}

// Reset resets all counters to zero.
func (s *OperationStats) Reset() {
	atomic.StoreInt64(&s.requests, 0)
	atomic.StoreInt64(&s.entities, 0)
}

// String returns a human-readable summary of the statistics.
func (s *OperationStats) String() string {
	return fmt.Sprintf("requests=%d entities=%d", s.Requests(), s.Entities())
}

// LogSummary logs a summary at INFO level. Useful for periodic reporting.
func (s *OperationStats) LogSummary(logger *slog.Logger, operation string) {
	logger.Info("scoring stats",
		"operation", operation,
		"requests", s.Requests(),
		"entities", s.Entities(),
	)
}
