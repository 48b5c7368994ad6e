package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/epadash/epadash/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	// Requests per window
	RequestLimit int
	// Window duration
	WindowLength time.Duration
}

// PerMinute returns a RateLimitConfig allowing n requests a minute.
func PerMinute(n int) RateLimitConfig {
	return RateLimitConfig{RequestLimit: n, WindowLength: time.Minute}
}

// DashboardRateLimit applies to the endpoints that query the upstream
// feature service.
var DashboardRateLimit = PerMinute(60)

// RateLimitByIP creates a rate limiter middleware keyed on the client IP.
// A non-positive RequestLimit disables limiting.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.RequestLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	window := cfg.WindowLength
	if window <= 0 {
		window = time.Minute
	}
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return httprate.Limit(
		cfg.RequestLimit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			// httprate doesn't expose the reset time, the window length is a safe upper bound.
			w.Header().Set("Retry-After", retryAfter)
			models.NewTooManyRequests(GetRequestID(r.Context()), "Rate limit exceeded. Please try again later.").
				WithInstance(r.URL.Path).
				Write(w)
		}),
	)
}
