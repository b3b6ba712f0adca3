// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the scoring API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Redis backs the rate limiter when set; an in-memory store is used
	// otherwise.
	RedisURL string `koanf:"redis_url"`

	// CalibrationPath points at the optional scoring weight calibration
	// JSON file.
	CalibrationPath string `koanf:"calibration_path"`

	// Similarity tunables
	SimilarityMaxScoreDiff float64 `koanf:"similarity_max_score_diff"` // Score delta treated as zero similarity
	SimilarityMinPercent   int     `koanf:"similarity_min_percent"`    // Inclusion floor for similar kingdoms
	SimilarityLimit        int     `koanf:"similarity_limit"`          // Default result count for /similar

	// Match tunables
	MatchMinPercent int `koanf:"match_min_percent"` // Inclusion floor for recommended matches
	MatchCount      int `koanf:"match_count"`       // Display cap for /match/batch

	// Rate limiting
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	// CORSAllowedOrigins lists frontend origins allowed to call the API.
	// Empty means CORS headers are not applied.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// Tracing
	TracingEnabled  bool    `koanf:"tracing_enabled"`
	TracingExporter string  `koanf:"tracing_exporter"` // otlp-http or otlp-grpc
	TracingEndpoint string  `koanf:"tracing_endpoint"`
	TracingSampling float64 `koanf:"tracing_sampling"`
}

// Configuration validation errors.
var (
	ErrInvalidPort             = errors.New("PORT must be a valid integer between 1 and 65535")
	ErrInvalidSimilarityFloor  = errors.New("SIMILARITY_MIN_PERCENT must be between 0 and 100")
	ErrInvalidMatchFloor       = errors.New("MATCH_MIN_PERCENT must be between 0 and 100")
	ErrInvalidMaxScoreDiff     = errors.New("SIMILARITY_MAX_SCORE_DIFF must be > 0")
	ErrInvalidTracingSampling  = errors.New("TRACING_SAMPLING must be between 0.0 and 1.0")
	ErrInvalidRateLimit        = errors.New("RATE_LIMIT_PER_MINUTE must be > 0")
	ErrInvalidSimilarityLimit  = errors.New("SIMILARITY_LIMIT must be > 0")
	ErrInvalidRecommendedCount = errors.New("MATCH_COUNT must be > 0")
)

// Default values for non-secret configuration.
const (
	DefaultPort                   = 8080
	DefaultEnv                    = "development"
	DefaultSimilarityMaxScoreDiff = 100.0
	DefaultSimilarityMinPercent   = 70
	DefaultSimilarityLimit        = 5
	DefaultMatchMinPercent        = 50
	DefaultMatchCount             = 8
	DefaultRateLimitPerMinute     = 100
	DefaultTracingExporter        = "otlp-http"
	DefaultTracingSampling        = 0.1
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	port, portErr := getEnvIntOrDefault("PORT", k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	simMinPercent, err := getEnvIntOrDefault("SIMILARITY_MIN_PERCENT", k.Int("similarity_min_percent"), DefaultSimilarityMinPercent)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	simLimit, err := getEnvIntOrDefault("SIMILARITY_LIMIT", k.Int("similarity_limit"), DefaultSimilarityLimit)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	matchMinPercent, err := getEnvIntOrDefault("MATCH_MIN_PERCENT", k.Int("match_min_percent"), DefaultMatchMinPercent)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	matchCount, err := getEnvIntOrDefault("MATCH_COUNT", k.Int("match_count"), DefaultMatchCount)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	rateLimit, err := getEnvIntOrDefault("RATE_LIMIT_PER_MINUTE", k.Int("rate_limit_per_minute"), DefaultRateLimitPerMinute)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	maxScoreDiff, err := getEnvFloatOrDefault("SIMILARITY_MAX_SCORE_DIFF", k.Float64("similarity_max_score_diff"), DefaultSimilarityMaxScoreDiff)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	tracingSampling, err := getEnvFloatOrDefault("TRACING_SAMPLING", k.Float64("tracing_sampling"), DefaultTracingSampling)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	tracingEnabled := k.Bool("tracing_enabled")
	if val := os.Getenv("TRACING_ENABLED"); val != "" {
		// Env var takes precedence over file config
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			tracingEnabled = true
		case "false", "0", "no", "off":
			tracingEnabled = false
		}
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:                   port,
		Env:                    getEnvOrDefault("ENV", k.String("env"), DefaultEnv),
		RedisURL:               getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		CalibrationPath:        getEnvOrKoanf("CALIBRATION_PATH", k, "calibration_path"),
		SimilarityMaxScoreDiff: maxScoreDiff,
		SimilarityMinPercent:   simMinPercent,
		SimilarityLimit:        simLimit,
		MatchMinPercent:        matchMinPercent,
		MatchCount:             matchCount,
		RateLimitPerMinute:     rateLimit,
		CORSAllowedOrigins:     getEnvListOrKoanf("CORS_ALLOWED_ORIGINS", k, "cors_allowed_origins"),
		TracingEnabled:         tracingEnabled,
		TracingExporter:        getEnvOrDefault("TRACING_EXPORTER", k.String("tracing_exporter"), DefaultTracingExporter),
		TracingEndpoint:        getEnvOrKoanf("TRACING_ENDPOINT", k, "tracing_endpoint"),
		TracingSampling:        tracingSampling,
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// Validate checks the config for invalid values. Returns a slice of all
// validation errors found (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, ErrInvalidPort)
	}
	if c.SimilarityMinPercent < 0 || c.SimilarityMinPercent > 100 {
		errs = append(errs, ErrInvalidSimilarityFloor)
	}
	if c.MatchMinPercent < 0 || c.MatchMinPercent > 100 {
		errs = append(errs, ErrInvalidMatchFloor)
	}
	if c.SimilarityMaxScoreDiff <= 0 {
		errs = append(errs, ErrInvalidMaxScoreDiff)
	}
	if c.SimilarityLimit <= 0 {
		errs = append(errs, ErrInvalidSimilarityLimit)
	}
	if c.MatchCount <= 0 {
		errs = append(errs, ErrInvalidRecommendedCount)
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, ErrInvalidRateLimit)
	}
	if c.TracingSampling < 0 || c.TracingSampling > 1 {
		errs = append(errs, ErrInvalidTracingSampling)
	}

	return errs
}

// IsProduction reports whether the server runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvListOrKoanf returns the environment variable split on commas if set,
// otherwise the koanf string list.
func getEnvListOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) []string {
	if val := os.Getenv(envKey); val != "" {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return k.Strings(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
// Note: a zero value in the YAML file falls back to the default; zero is not a supported file value.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer", envKey)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as a float.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid number", envKey)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}
