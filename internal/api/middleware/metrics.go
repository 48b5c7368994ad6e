package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/epadash/epadash/internal/api/middleware"

// Metrics records request counts, latencies and response sizes of the
// HTTP server.
type Metrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	inFlight metric.Int64UpDownCounter
	size     metric.Int64Histogram
}

// NewMetrics creates the HTTP server instruments on the global meter
// provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.duration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.total, err = meter.Int64Counter("http.server.request.total",
		metric.WithDescription("Total number of HTTP server requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if m.inFlight, err = meter.Int64UpDownCounter("http.server.requests_in_flight",
		metric.WithDescription("Number of HTTP requests currently being processed"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if m.size, err = meter.Int64Histogram("http.server.response.size",
		metric.WithDescription("Size of HTTP server responses in bytes"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// Middleware records one measurement per request. Requests are labelled
// with the chi route pattern when one matched, so path parameters and
// unknown paths do not grow the label set.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()

			method := metric.WithAttributes(attribute.String("http.method", r.Method))
			m.inFlight.Add(ctx, 1, method)
			defer m.inFlight.Add(ctx, -1, method)

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			attrs := []attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route(r)),
				attribute.String("http.status_code", strconv.Itoa(rec.statusCode)),
			}
			if rec.statusCode >= http.StatusBadRequest {
				attrs = append(attrs, attribute.Bool("error", true))
			}

			opts := metric.WithAttributes(attrs...)
			m.duration.Record(ctx, time.Since(start).Seconds(), opts)
			m.total.Add(ctx, 1, opts)
			m.size.Record(ctx, rec.written, opts)
		})
	}
}

// route returns the matched chi route pattern, or the raw path outside a
// chi router.
func route(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
		return "unmatched"
	}
	return r.URL.Path
}
