// Package main provides the entrypoint for the epadash API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/epadash/epadash/internal/api"
	"github.com/epadash/epadash/internal/api/middleware"
	"github.com/epadash/epadash/internal/aqs"
	"github.com/epadash/epadash/internal/aqs/arcgis"
	"github.com/epadash/epadash/internal/config"
	"github.com/epadash/epadash/internal/provider/resilience"
	"github.com/epadash/epadash/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "epadash-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = log.Level(cfg.LogLevel)

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Environment).
		Msg("starting epadash API")

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider metrics")
		os.Exit(1)
	}

	// Upstream feature service
	registry := resilience.NewRegistry()
	arcgisClient := arcgis.NewClient(arcgis.ClientConfig{
		BaseURL:    cfg.ArcGIS.BaseURL,
		Timeout:    cfg.ArcGIS.Timeout,
		MaxRetries: cfg.ArcGIS.MaxRetries,
		RateLimit:  cfg.ArcGIS.RateLimit,
		Registry:   registry,
		Metrics:    providerMetrics,
		Logger:     log,
	})
	if !cfg.ArcGIS.EscapeQuotes {
		log.Warn().Msg("parameter names are sent without quote escaping")
	}

	service := aqs.NewService(aqs.ServiceConfig{
		Fetcher:       arcgisClient,
		Builder:       aqs.QueryBuilder{RawNames: !cfg.ArcGIS.EscapeQuotes},
		Logger:        log.With().Str("component", "aqs").Logger(),
		HistogramBins: cfg.HistogramBins,
	})
	log.Info().
		Dur("timeout", cfg.ArcGIS.Timeout).
		Uint64("max_retries", cfg.ArcGIS.MaxRetries).
		Float64("rate_limit", cfg.ArcGIS.RateLimit).
		Msg("air quality pipeline initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:           Version,
		BuildTime:         BuildTime,
		Logger:            log,
		ServiceName:       serviceName,
		Metrics:           metrics,
		Service:           service,
		Registry:          registry,
		RequireTLS:        cfg.RequireTLS,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})

	// The write timeout leaves room for a full upstream timeout plus encoding.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ArcGIS.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
