// Package api provides the HTTP API for epadash.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/epadash/epadash/internal/api/handler"
	"github.com/epadash/epadash/internal/api/middleware"
	"github.com/epadash/epadash/internal/api/response"
	"github.com/epadash/epadash/internal/aqs"
	"github.com/epadash/epadash/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	Service     *aqs.Service
	Registry    *resilience.Registry
	RequireTLS  bool

	// RequestsPerMinute limits the data endpoints per client IP. Zero
	// uses middleware.DashboardRateLimit, a negative value disables it.
	RequestsPerMinute int
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "epadash-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(chimiddleware.RealIP)            // Real IP extraction, sessions are scoped by it
	r.Use(middleware.Session)              // Bind X-Session-Id for last-request-wins
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement behind a proxy

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route for "+r.URL.Path)
	})

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry)

	limit := middleware.DashboardRateLimit
	switch {
	case cfg.RequestsPerMinute > 0:
		limit = middleware.PerMinute(cfg.RequestsPerMinute)
	case cfg.RequestsPerMinute < 0:
		limit = middleware.RateLimitConfig{}
	}
	dataRateLimit := middleware.RateLimitByIP(limit)

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		if cfg.Service == nil {
			return
		}
		dashboardHandler := handler.NewDashboardHandler(cfg.Service)

		// Data endpoints query the upstream feature service and share one limit per IP.
		r.Group(func(r chi.Router) {
			r.Use(dataRateLimit)

			r.Get("/parameters", dashboardHandler.Parameters)
			r.Get("/histogram", dashboardHandler.Histogram)
			r.Route("/measurements", func(r chi.Router) {
				r.Get("/", dashboardHandler.Measurements)
				r.Get("/histogram", dashboardHandler.MeasurementsHistogram)
			})
		})
	})

	return r
}
