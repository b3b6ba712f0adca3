package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// normalizePath maps request paths to route patterns so metric label
// cardinality stays bounded. The scoring API only has static routes, so
// anything unknown collapses into a single bucket.
func normalizePath(path string) string {
	staticRoutes := map[string]bool{
		"/":            true,
		"/rank":        true,
		"/similar":     true,
		"/match":       true,
		"/match/batch": true,
		"/health":      true,
		"/ready":       true,
		"/metrics":     true,
	}

	if staticRoutes[path] {
		return path
	}
	return "/unknown"
}

// metricsResponseWriter wraps http.ResponseWriter to capture status code and response size.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int64
	wroteHeader bool
}

// WriteHeader captures the status code before writing it.
func (mrw *metricsResponseWriter) WriteHeader(code int) {
	if mrw.wroteHeader {
		return
	}
	mrw.statusCode = code
	mrw.wroteHeader = true
	mrw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size and writes the data.
func (mrw *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := mrw.ResponseWriter.Write(b)
	mrw.size += int64(n)
	return n, err
}

// UpdateContext forwards handler context updates to the wrapped writer so
// error codes still reach the logging middleware above this one.
func (mrw *metricsResponseWriter) UpdateContext(ctx context.Context) {
	UpdateResponseContext(mrw.ResponseWriter, ctx)
}

// newMetricsResponseWriter creates a new metricsResponseWriter with default 200 status.
func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// HTTPMetrics is a middleware that records HTTP request metrics.
// It captures duration, request/response sizes, and request counts.
// Health check endpoints (/health, /ready) are excluded from metrics to avoid cardinality issues.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			mrw := newMetricsResponseWriter(w)

			requestSize := int64(0)
			if contentLength := r.Header.Get("Content-Length"); contentLength != "" {
				if size, err := strconv.ParseInt(contentLength, 10, 64); err == nil {
					requestSize = size
				}
			}

			next.ServeHTTP(mrw, r)

			duration := time.Since(start).Seconds()

			metrics.ObserveHTTPRequest(
				r.Method,
				normalizePath(r.URL.Path),
				strconv.Itoa(mrw.statusCode),
				duration,
				requestSize,
				mrw.size,
			)
		})
	}
}
