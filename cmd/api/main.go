// Package main is the entry point for the scoring API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kdstats/scoring/internal/api"
	"github.com/kdstats/scoring/internal/config"
	"github.com/kdstats/scoring/internal/health"
	"github.com/kdstats/scoring/internal/middleware"
	"github.com/kdstats/scoring/internal/scoring"
	"github.com/kdstats/scoring/internal/tier"
	"github.com/kdstats/scoring/internal/tracing"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configFile := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	if *help {
		fmt.Println("kdstats scoring API server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	// Calibration falls back to defaults on any error; the service must
	// come up even with a broken weights file.
	weights, err := scoring.LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		logger.Warn("using default scoring weights", "error", err, "path", cfg.CalibrationPath)
	}

	scorer := scoring.NewScorer(tier.Policy{}, weights.Similarity, nil)
	scorer.MaxScoreDiff = cfg.SimilarityMaxScoreDiff
	scorer.MinPercent = cfg.SimilarityMinPercent

	matcher := scoring.NewMatcher(weights.Match)
	matcher.MinPercent = cfg.MatchMinPercent
	matcher.RecommendationCount = cfg.MatchCount

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := middleware.NewMetrics()
	if err := metrics.Register(registry); err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	// Tracing
	tracerProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "kdstats-scoring",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.TracingEndpoint,
		SamplingRate: cfg.TracingSampling,
		InsecureMode: !cfg.IsProduction(),
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Rate limiting backend: Redis when configured, in-memory otherwise.
	var rateLimitStore middleware.RateLimitStore
	var redisChecker api.HealthChecker
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		rateLimitStore = middleware.NewRedisRateLimitStore(redisClient, metrics)
		redisChecker = health.NewRedisChecker(redisClient)
		logger.Info("rate limiting backed by redis")
	} else {
		memStore := middleware.NewInMemoryRateLimitStore()
		rateLimitStore = memStore
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				memStore.Cleanup()
			}
		}()
		logger.Info("rate limiting backed by in-memory store")
	}

	rateLimit := middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimitPerMinute,
		WindowDuration:    time.Minute,
	}
	if err := rateLimit.Validate(); err != nil {
		logger.Error("invalid rate limit config", "error", err)
		os.Exit(1)
	}

	// Handlers and routes
	scoringHandlers := api.NewScoringHandlers(scorer, matcher, metrics, cfg.SimilarityLimit)
	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{
		RedisChecker:   redisChecker,
		MetricsEnabled: true,
	})

	// Hourly operation summaries complement the Prometheus scrape.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			scoringHandlers.LogStats(logger)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/rank", scoringHandlers.Rank)
	mux.HandleFunc("/similar", scoringHandlers.Similar)
	mux.HandleFunc("/match", scoringHandlers.Match)
	mux.HandleFunc("/match/batch", scoringHandlers.MatchBatch)
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
			api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"kdstats-scoring","version":"0.1.0"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Middleware chain, outermost first:
	// RequestID -> Logging -> HTTPMetrics -> CORS -> RateLimiter
	var handler http.Handler = mux
	handler = middleware.RateLimiter(rateLimitStore, rateLimit, middleware.IPKeyFunc(), metrics)(handler)
	handler = middleware.CORS(cfg.CORSAllowedOrigins)(handler)
	handler = middleware.HTTPMetrics(metrics)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)
	if tracerProvider.IsEnabled() {
		handler = otelhttp.NewHandler(handler, "kdstats-scoring")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := tracerProvider.Shutdown(ctx); err != nil {
		logger.Error("tracer shutdown failed", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close failed", "error", err)
		}
	}

	logger.Info("server stopped")
}
