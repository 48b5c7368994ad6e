package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const providerMeterName = "github.com/epadash/epadash/internal/telemetry"

// ProviderMetrics holds metrics for upstream provider calls.
type ProviderMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	recordsTotal    metric.Int64Counter
}

// NewProviderMetrics creates the provider call instruments on the global
// meter provider.
func NewProviderMetrics() (*ProviderMetrics, error) {
	meter := otel.Meter(providerMeterName)

	requestDuration, err := meter.Float64Histogram(
		"provider.request.duration",
		metric.WithDescription("Duration of provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"provider.request.total",
		metric.WithDescription("Total number of provider requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	recordsTotal, err := meter.Int64Counter(
		"provider.records.total",
		metric.WithDescription("Records returned by provider requests"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProviderMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		recordsTotal:    recordsTotal,
	}, nil
}

// Request outcomes that are not provider errors. Any other outcome label,
// such as "upstream" or "transport", is recorded with error=true.
const (
	OutcomeOK        = "ok"
	OutcomeCancelled = "cancelled"
)

// RecordRequest records one provider request under a short outcome label.
func (m *ProviderMetrics) RecordRequest(provider, outcome string, duration time.Duration, records int) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.outcome", outcome),
		attribute.Bool("error", outcome != OutcomeOK && outcome != OutcomeCancelled),
	)

	// Background context so a canceled request still gets counted.
	ctx := context.Background()
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)
	m.requestTotal.Add(ctx, 1, attrs)
	m.recordsTotal.Add(ctx, int64(records), attrs)
}
