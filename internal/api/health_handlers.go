package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kdstats/scoring/internal/middleware"
)

// HealthChecker defines the interface for components that can be health checked.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandlers provides health and readiness check endpoints for Kubernetes probes.
type HealthHandlers struct {
	// redisChecker verifies the rate limiter backend (optional).
	redisChecker HealthChecker

	metricsEnabled bool
}

// HealthHandlersConfig configures the health check handlers.
type HealthHandlersConfig struct {
	RedisChecker   HealthChecker
	MetricsEnabled bool
}

// NewHealthHandlers creates a new health check handler.
func NewHealthHandlers(config HealthHandlersConfig) *HealthHandlers {
	return &HealthHandlers{
		redisChecker:   config.RedisChecker,
		metricsEnabled: config.MetricsEnabled,
	}
}

// HealthResponse represents the JSON response for health checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health handles GET /health (liveness probe).
// Returns 200 if the process is alive and able to serve requests.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"runtime": "ok"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode health response", "error", err)
	}
}

// Ready handles GET /ready (readiness probe).
// Checks optional dependencies and returns 503 when one is unavailable.
// The scoring engine itself is pure computation, so readiness degrades
// only on backing services.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	if h.redisChecker != nil {
		if err := h.redisChecker.HealthCheck(ctx); err != nil {
			checks["redis"] = "error"
			healthy = false
			slog.WarnContext(ctx, "redis health check failed", "error", err)
		} else {
			checks["redis"] = "ok"
		}
	}

	if h.metricsEnabled {
		checks["metrics"] = "ok"
	}

	response := HealthResponse{
		Status:    "ready",
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if !healthy {
		response.Status = "not ready"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode readiness response", "error", err)
	}
}
