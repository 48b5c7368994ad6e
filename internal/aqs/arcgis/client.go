// Package arcgis provides a client for ArcGIS FeatureServer query
// endpoints serving the EPA air quality dataset.
package arcgis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/epadash/epadash/internal/aqs"
	"github.com/epadash/epadash/internal/provider/resilience"
	"github.com/epadash/epadash/internal/telemetry"
)

const (
	// DefaultBaseURL is the EPA Pittsburgh FeatureServer layer.
	DefaultBaseURL = "https://services2.arcgis.com/sJvSsHKKEOKRemAr/arcgis/rest/services/EPAPittFinal/FeatureServer/0"

	// ProviderName identifies this provider.
	ProviderName = "arcgis-epa"

	// MaxResponseBytes bounds the size of a query response body.
	MaxResponseBytes = 32 << 20

	tracerName = "github.com/epadash/epadash/internal/aqs/arcgis"
)

// ClientConfig holds configuration for the ArcGIS client.
type ClientConfig struct {
	// BaseURL is the FeatureServer layer URL (defaults to DefaultBaseURL).
	// Queries go to BaseURL + "/query".
	BaseURL string

	// HTTPClient executes requests. If nil, a resilient client is created
	// from Timeout, MaxRetries and RateLimit.
	HTTPClient HTTPDoer

	// Timeout for individual requests (default: 30s).
	Timeout time.Duration

	// MaxRetries after the first attempt (default: 0).
	MaxRetries uint64

	// RateLimit caps outbound requests per second (default: unlimited).
	RateLimit float64

	// Registry receives provider health. Optional.
	Registry *resilience.Registry

	// Metrics records provider calls. Optional.
	Metrics *telemetry.ProviderMetrics

	// Logger for fetch warnings.
	Logger zerolog.Logger
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries a FeatureServer layer. It implements aqs.Fetcher.
type Client struct {
	queryURL   string
	httpClient HTTPDoer
	registry   *resilience.Registry
	metrics    *telemetry.ProviderMetrics
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewClient creates a new ArcGIS client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rc := resilience.DefaultClientConfig(ProviderName)
		if cfg.Timeout > 0 {
			rc.Timeout = cfg.Timeout
		}
		rc.MaxRetries = cfg.MaxRetries
		rc.RateLimit = cfg.RateLimit
		rc.Registry = cfg.Registry
		rc.CircuitBreaker.OnStateChange = resilience.LogStateChanges(cfg.Logger)
		httpClient = resilience.NewClient(rc)
	}

	return &Client{
		queryURL:   strings.TrimSuffix(baseURL, "/") + "/query",
		httpClient: httpClient,
		registry:   cfg.Registry,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.With().Str("provider", ProviderName).Logger(),
		tracer:     otel.Tracer(tracerName),
	}
}

// API response types (from the FeatureServer query operation). Features
// and fields are decoded by aqs.Reshape.

type envelope struct {
	ExceededTransferLimit bool          `json:"exceededTransferLimit"`
	Error                 *serviceError `json:"error"`
}

type serviceError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

func (e *serviceError) String() string {
	msg := fmt.Sprintf("code %d: %s", e.Code, e.Message)
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	return msg
}

// Fetch issues one query and reshapes the response. It never fails:
// transport errors, non-200 statuses, service errors and malformed
// bodies produce an empty table with a diagnostic.
func (c *Client) Fetch(ctx context.Context, q aqs.QuerySpec) aqs.Result {
	ctx, span := c.tracer.Start(ctx, "arcgis.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("arcgis.where", q.Where),
			attribute.String("arcgis.out_fields", q.OutFieldsParam()),
			attribute.Int("arcgis.record_count", q.Count),
		),
	)
	defer span.End()

	start := time.Now()
	res, err := c.query(ctx, q)
	duration := time.Since(start)

	if err != nil {
		label := outcome(err)
		c.metrics.RecordRequest(ProviderName, label, duration, 0)
		span.RecordError(err)

		// A cancelled caller says nothing about provider health.
		event := c.logger.Debug()
		if label != telemetry.OutcomeCancelled {
			if c.registry != nil {
				c.registry.RecordFailure(ProviderName, err)
			}
			span.SetStatus(codes.Error, err.Error())
			event = c.logger.Warn()
		}

		event.
			Err(err).
			Str("where", q.Where).
			Dur("duration", duration).
			Msg("failed to fetch data")

		return aqs.Result{
			Table:      aqs.NewTable(nil),
			Diagnostic: "Failed to fetch data: " + err.Error(),
			Err:        err,
		}
	}

	c.metrics.RecordRequest(ProviderName, telemetry.OutcomeOK, duration, res.Table.Len())
	if c.registry != nil {
		c.registry.RecordSuccess(ProviderName)
	}
	span.SetAttributes(attribute.Int("arcgis.rows", res.Table.Len()))

	if res.Truncated {
		c.logger.Warn().
			Str("where", q.Where).
			Int("rows", res.Table.Len()).
			Msg("result exceeded page size, records truncated")
	}

	return res
}

// query performs the request and returns a classified error on failure.
func (c *Client) query(ctx context.Context, q aqs.QuerySpec) (aqs.Result, error) {
	url := c.queryURL + "?" + q.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return aqs.Result{}, fmt.Errorf("%w: create request: %v", aqs.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return aqs.Result{}, fmt.Errorf("%w: %w", aqs.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return aqs.Result{}, fmt.Errorf("%w: unexpected status %d", aqs.ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return aqs.Result{}, fmt.Errorf("%w: read body: %w", aqs.ErrTransport, err)
	}

	// The service reports query errors inside a 200 response.
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		return aqs.Result{}, fmt.Errorf("%w: %s", aqs.ErrUpstream, env.Error)
	}

	table, err := aqs.Reshape(body)
	if err != nil {
		return aqs.Result{}, err
	}

	res := aqs.Result{
		Table:     table,
		Truncated: env.ExceededTransferLimit,
	}
	if res.Truncated {
		res.Diagnostic = fmt.Sprintf("more than %d records matched; only the first page is shown", q.Count)
	}

	return res, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return telemetry.OutcomeCancelled
	case errors.Is(err, aqs.ErrUpstream):
		return "upstream"
	case errors.Is(err, aqs.ErrMalformedResponse):
		return "malformed"
	default:
		return "transport"
	}
}
