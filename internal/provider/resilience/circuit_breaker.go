// Package resilience provides the outbound HTTP client used for upstream
// data providers: circuit breaking, timeouts, optional retries and rate
// limiting, plus a registry exposing provider health.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the circuit breaker for logging/metrics.
	Name string

	// MaxRequests is the maximum number of requests allowed in half-open state.
	// Default: 1
	MaxRequests uint32

	// Interval is the cyclic period for clearing internal counts when closed.
	// Default: 0 (disabled)
	Interval time.Duration

	// Timeout is the period of open state before switching to half-open.
	// Default: 30 seconds
	Timeout time.Duration

	// ReadyToTrip determines when to trip the circuit breaker.
	// If nil, uses DefaultReadyToTrip.
	ReadyToTrip func(counts gobreaker.Counts) bool

	// IsExcluded reports errors that count neither as success nor as
	// failure. If nil, uses IsCallerCancellation.
	IsExcluded func(err error) bool

	// OnStateChange is called when the circuit breaker state changes.
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultCircuitBreakerConfig returns the default configuration.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: DefaultReadyToTrip,
		IsExcluded:  IsCallerCancellation,
	}
}

// IsCallerCancellation reports whether err comes from the caller
// cancelling the request. Timeouts are not cancellations and still count
// as failures.
func IsCallerCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}

// DefaultReadyToTrip trips after 5 consecutive failures, or once at least
// 10 requests were made with a failure rate of 50% or more.
func DefaultReadyToTrip(counts gobreaker.Counts) bool {
	if counts.ConsecutiveFailures >= 5 {
		return true
	}
	if counts.Requests < 10 {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
}

// LogStateChanges returns an OnStateChange callback that logs transitions.
func LogStateChanges(log zerolog.Logger) func(string, gobreaker.State, gobreaker.State) {
	return func(name string, from, to gobreaker.State) {
		event := log.Info()
		if to == gobreaker.StateOpen {
			event = log.Warn()
		}
		event.
			Str("provider", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("circuit breaker state changed")
	}
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration.
func NewCircuitBreaker[T any](cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[T] {
	isExcluded := cfg.IsExcluded
	if isExcluded == nil {
		isExcluded = IsCallerCancellation
	}

	settings := gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.MaxRequests,
		Interval:      cfg.Interval,
		Timeout:       cfg.Timeout,
		ReadyToTrip:   cfg.ReadyToTrip,
		IsExcluded:    isExcluded,
		OnStateChange: cfg.OnStateChange,
	}

	return gobreaker.NewCircuitBreaker[T](settings)
}
