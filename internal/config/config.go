// Package config loads the epadash configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Config holds the service configuration.
type Config struct {
	Port        string
	Environment string
	LogLevel    zerolog.Level
	RequireTLS  bool

	OTelEnabled  bool
	OTLPEndpoint string

	ArcGIS ArcGISConfig

	// HistogramBins is the number of bins of dashboard histograms.
	HistogramBins int

	// RequestsPerMinute is the per-IP limit on data endpoints.
	RequestsPerMinute int
}

// ArcGISConfig configures the upstream FeatureServer client.
type ArcGISConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries uint64

	// RateLimit caps outbound requests per second, 0 (the default) for
	// unlimited.
	RateLimit float64

	// EscapeQuotes doubles single quotes in parameter names. Disabling it
	// sends names verbatim.
	EscapeQuotes bool
}

// FromEnv reads the configuration from environment variables, applying
// defaults for unset ones.
func FromEnv() (Config, error) {
	var (
		cfg Config
		err error
	)

	cfg.Port = getEnvOrDefault("APP_PORT", "8080")
	cfg.Environment = getEnvOrDefault("APP_ENV", "development")
	cfg.OTLPEndpoint = getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	cfg.ArcGIS.BaseURL = os.Getenv("ARCGIS_BASE_URL")

	if cfg.LogLevel, err = zerolog.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info")); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.RequireTLS, err = parseBool("REQUIRE_TLS", false); err != nil {
		return Config{}, err
	}
	if cfg.OTelEnabled, err = parseBool("OTEL_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.ArcGIS.EscapeQuotes, err = parseBool("ARCGIS_ESCAPE_QUOTES", true); err != nil {
		return Config{}, err
	}

	if cfg.ArcGIS.Timeout, err = parsePositiveDuration("ARCGIS_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.ArcGIS.MaxRetries, err = strconv.ParseUint(getEnvOrDefault("ARCGIS_MAX_RETRIES", "0"), 10, 32); err != nil {
		return Config{}, fmt.Errorf("ARCGIS_MAX_RETRIES: %w", err)
	}
	if cfg.ArcGIS.RateLimit, err = strconv.ParseFloat(getEnvOrDefault("ARCGIS_RATE_LIMIT", "0"), 64); err != nil {
		return Config{}, fmt.Errorf("ARCGIS_RATE_LIMIT: %w", err)
	}
	if cfg.ArcGIS.RateLimit < 0 {
		return Config{}, fmt.Errorf("ARCGIS_RATE_LIMIT: must not be negative, got %g", cfg.ArcGIS.RateLimit)
	}
	if cfg.HistogramBins, err = parsePositiveInt("HISTOGRAM_BINS", 20); err != nil {
		return Config{}, err
	}
	if cfg.RequestsPerMinute, err = parsePositiveInt("RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func parsePositiveInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %d", key, v)
	}
	return v, nil
}

func parsePositiveDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, v)
	}
	return v, nil
}
