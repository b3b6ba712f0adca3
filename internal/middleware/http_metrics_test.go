package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/rank", "/rank"},
		{"/similar", "/similar"},
		{"/match", "/match"},
		{"/match/batch", "/match/batch"},
		{"/health", "/health"},
		{"/ready", "/ready"},
		{"/metrics", "/metrics"},
		{"/rank/extra", "/unknown"},
		{"/admin", "/unknown"},
		{"/match/batch/2", "/unknown"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestHTTPMetrics_RecordsRequest(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	handler := HTTPMetrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("response body"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/rank", strings.NewReader(`{"kingdoms":[]}`))
	req.Header.Set("Content-Length", "15")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}

	found := false
	for _, mf := range families {
		if mf.GetName() != MetricHTTPRequestsTotal {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["method"] == "POST" && labels["path"] == "/rank" && labels["status"] == "200" {
				found = true
				if v := metric.GetCounter().GetValue(); v != 1 {
					t.Errorf("http_requests_total = %v, want 1", v)
				}
			}
		}
	}
	if !found {
		t.Error("no http_requests_total series for POST /rank 200")
	}
}

func TestHTTPMetrics_SkipsHealthEndpoints(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	handler := HTTPMetrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == MetricHTTPRequestsTotal && len(mf.GetMetric()) > 0 {
			t.Error("health probe requests should not be recorded")
		}
	}
}

func TestHTTPMetrics_CapturesErrorStatus(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	handler := HTTPMetrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad input", http.StatusBadRequest)
	}))

	req := httptest.NewRequest(http.MethodPost, "/match", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}

	found := false
	for _, mf := range families {
		if mf.GetName() != MetricHTTPRequestsTotal {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "status" && l.GetValue() == "400" {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("400 status was not recorded in http_requests_total")
	}
}
