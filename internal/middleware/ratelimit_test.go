package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRateLimitConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  RateLimitConfig
		wantErr bool
	}{
		{"valid", RateLimitConfig{RequestsPerWindow: 10, WindowDuration: time.Minute}, false},
		{"zero requests", RateLimitConfig{RequestsPerWindow: 0, WindowDuration: time.Minute}, true},
		{"negative requests", RateLimitConfig{RequestsPerWindow: -1, WindowDuration: time.Minute}, true},
		{"zero window", RateLimitConfig{RequestsPerWindow: 10, WindowDuration: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInMemoryRateLimitStore_Allow(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	ctx := context.Background()
	config := RateLimitConfig{RequestsPerWindow: 3, WindowDuration: time.Minute}

	for i := 0; i < 3; i++ {
		allowed, _ := store.Allow(ctx, "client-a", config)
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, retryAfter := store.Allow(ctx, "client-a", config)
	if allowed {
		t.Error("request over the limit should be blocked")
	}
	if retryAfter <= 0 || retryAfter > 60 {
		t.Errorf("retryAfter = %d, want within (0, 60]", retryAfter)
	}

	// An unrelated key has its own bucket.
	if allowed, _ := store.Allow(ctx, "client-b", config); !allowed {
		t.Error("different key should not share the exhausted bucket")
	}
}

func TestInMemoryRateLimitStore_WindowExpiry(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	ctx := context.Background()
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: 20 * time.Millisecond}

	if allowed, _ := store.Allow(ctx, "client", config); !allowed {
		t.Fatal("first request should be allowed")
	}
	if allowed, _ := store.Allow(ctx, "client", config); allowed {
		t.Fatal("second request in the same window should be blocked")
	}

	time.Sleep(30 * time.Millisecond)

	if allowed, _ := store.Allow(ctx, "client", config); !allowed {
		t.Error("request after window expiry should be allowed")
	}
}

func TestInMemoryRateLimitStore_Cleanup(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	ctx := context.Background()
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: 10 * time.Millisecond}

	store.Allow(ctx, "stale", config)
	time.Sleep(20 * time.Millisecond)
	store.Allow(ctx, "fresh", RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute})

	store.Cleanup()

	store.mu.RLock()
	defer store.mu.RUnlock()
	if _, exists := store.buckets["stale"]; exists {
		t.Error("expired bucket should be removed by Cleanup")
	}
	if _, exists := store.buckets["fresh"]; !exists {
		t.Error("live bucket should survive Cleanup")
	}
}

func TestIPKeyFunc(t *testing.T) {
	keyFunc := IPKeyFunc()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr with port",
			remoteAddr: "203.0.113.7:51234",
			want:       "203.0.113.7",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.4"},
			want:       "198.51.100.4",
		},
		{
			name:       "x-forwarded-for chain uses first hop",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.4, 10.0.0.2, 10.0.0.3"},
			want:       "198.51.100.4",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "192.0.2.9"},
			want:       "192.0.2.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := keyFunc(req); got != tt.want {
				t.Errorf("key = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter_Returns429(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute}

	handler := RateLimiter(store, config, IPKeyFunc(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/rank", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/rank", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
	if rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("429 response missing X-RateLimit-Reset header")
	}
}

func TestRateLimiter_RecordsMetrics(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute}
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	handler := RateLimiter(store, config, IPKeyFunc(), m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/match", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}
	if got := findMetricValue(families, MetricRateLimitRequests, "/match"); got != 2 {
		t.Errorf("rate_limit_requests_total{endpoint=/match} = %v, want 2", got)
	}
	if got := findMetricValue(families, MetricRateLimitBlocked, "/match"); got != 1 {
		t.Errorf("rate_limit_blocked_total{endpoint=/match} = %v, want 1", got)
	}
}
