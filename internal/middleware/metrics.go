// Package middleware provides metrics for HTTP middleware components.
package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricRateLimitRequests     = "rate_limit_requests_total"
	MetricRateLimitBlocked      = "rate_limit_blocked_total"
	MetricRateLimitRedisErrors  = "rate_limit_redis_errors_total"
	MetricHTTPRequestDuration   = "http_request_duration_seconds"
	MetricHTTPRequestsTotal     = "http_requests_total"
	MetricHTTPRequestSizeBytes  = "http_request_size_bytes"
	MetricHTTPResponseSizeBytes = "http_response_size_bytes"
	MetricScoringRequests       = "scoring_requests_total"
	MetricScoringEntities       = "scoring_entities_processed_total"
)

// Metrics contains Prometheus metrics for middleware and scoring operations.
// All operations are thread-safe.
type Metrics struct {
	rateLimitRequests    *prometheus.CounterVec
	rateLimitBlocked     *prometheus.CounterVec
	rateLimitRedisErrors prometheus.Counter
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestSize      *prometheus.HistogramVec
	httpResponseSize     *prometheus.HistogramVec
	scoringRequests      *prometheus.CounterVec
	scoringEntities      *prometheus.CounterVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		rateLimitRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRateLimitRequests,
				Help: "Total number of rate limit checks by endpoint",
			},
			[]string{"endpoint"},
		),
		rateLimitBlocked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRateLimitBlocked,
				Help: "Total number of rate limit violations (blocked requests) by endpoint",
			},
			[]string{"endpoint"},
		),
		rateLimitRedisErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricRateLimitRedisErrors,
				Help: "Total number of Redis errors during rate limiting (fail-open events)",
			},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.0},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestSizeBytes,
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6), // 100 B to ~10 MB
			},
			[]string{"method", "path", "status"},
		),
		httpResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPResponseSizeBytes,
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6), // 100 B to ~10 MB
			},
			[]string{"method", "path", "status"},
		),
		scoringRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricScoringRequests,
				Help: "Total number of scoring operations by kind (rank, similar, match, match_batch)",
			},
			[]string{"kind"},
		),
		scoringEntities: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricScoringEntities,
				Help: "Total number of entities processed by scoring operations, by kind",
			},
			[]string{"kind"},
		),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.rateLimitRequests,
		m.rateLimitBlocked,
		m.rateLimitRedisErrors,
		m.httpRequestDuration,
		m.httpRequestsTotal,
		m.httpRequestSize,
		m.httpResponseSize,
		m.scoringRequests,
		m.scoringEntities,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRateLimitRequests increments the rate limit checks counter.
func (m *Metrics) IncRateLimitRequests(endpoint string) {
	m.rateLimitRequests.WithLabelValues(endpoint).Inc()
}

// IncRateLimitBlocked increments the blocked requests counter.
func (m *Metrics) IncRateLimitBlocked(endpoint string) {
	m.rateLimitBlocked.WithLabelValues(endpoint).Inc()
}

// IncRateLimitRedisErrors increments the Redis fail-open counter.
func (m *Metrics) IncRateLimitRedisErrors() {
	m.rateLimitRedisErrors.Inc()
}

// ObserveHTTPRequest records duration, sizes and count for a completed request.
func (m *Metrics) ObserveHTTPRequest(method, path, status string, duration float64, requestSize, responseSize int64) {
	m.httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestSize.WithLabelValues(method, path, status).Observe(float64(requestSize))
	m.httpResponseSize.WithLabelValues(method, path, status).Observe(float64(responseSize))
}

// ObserveScoring records one scoring operation over n entities.
func (m *Metrics) ObserveScoring(kind string, entities int) {
	m.scoringRequests.WithLabelValues(kind).Inc()
	m.scoringEntities.WithLabelValues(kind).Add(float64(entities))
}
