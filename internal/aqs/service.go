package aqs

import (
	"context"

	"github.com/rs/zerolog"
)

// Fetcher retrieves one page of records for a query. Implementations
// never return a nil Table and report every failure through Result.Err.
type Fetcher interface {
	Fetch(ctx context.Context, q QuerySpec) Result
}

// ServiceConfig holds configuration for the pipeline service.
type ServiceConfig struct {
	// Fetcher retrieves records from the FeatureServer.
	Fetcher Fetcher

	// Builder builds the query predicates.
	Builder QueryBuilder

	// Logger for service operations.
	Logger zerolog.Logger

	// HistogramBins is the number of histogram bins (default: 20).
	HistogramBins int

	// Sessions enforces last-request-wins per session. If nil, a new
	// tracker is created.
	Sessions *Sessions
}

// Service runs the fetch-and-reshape pipeline for the dashboard.
type Service struct {
	fetcher  Fetcher
	builder  QueryBuilder
	logger   zerolog.Logger
	bins     int
	sessions *Sessions
}

// NewService creates a new pipeline service.
func NewService(cfg ServiceConfig) *Service {
	bins := cfg.HistogramBins
	if bins <= 0 {
		bins = DefaultHistogramBins
	}

	sessions := cfg.Sessions
	if sessions == nil {
		sessions = NewSessions()
	}

	return &Service{
		fetcher:  cfg.Fetcher,
		builder:  cfg.Builder,
		logger:   cfg.Logger,
		bins:     bins,
		sessions: sessions,
	}
}

// Parameters is the outcome of parameter discovery: the names found in
// the fetched page and the ones preselected for the user.
type Parameters struct {
	Options  []string
	Selected []string
	Result   Result
}

// FetchByDateRange fetches all fields of the records within r.
func (s *Service) FetchByDateRange(ctx context.Context, r DateRange) Result {
	return s.run(ctx, s.builder.DateRangeQuery(r))
}

// FetchByNames fetches Parameter_Name and Arithmetic_Mean of the records
// named in sel, or of all records when sel is empty.
func (s *Service) FetchByNames(ctx context.Context, sel ParameterSelection) Result {
	return s.run(ctx, s.builder.NameSetQuery(sel))
}

// DiscoverParameters fetches the records within r and lists their
// parameter names, preselecting the first DefaultSelectionSize.
func (s *Service) DiscoverParameters(ctx context.Context, r DateRange) Parameters {
	res := s.FetchByDateRange(ctx, r)

	options := res.Table.ParameterNames()
	selected := options
	if len(selected) > DefaultSelectionSize {
		selected = selected[:DefaultSelectionSize]
	}

	return Parameters{
		Options:  options,
		Selected: append([]string{}, selected...),
		Result:   res,
	}
}

// DateRangeHistogram fetches the records within r, keeps those named in
// sel and builds their histogram. An empty selection returns an empty
// chart without fetching.
func (s *Service) DateRangeHistogram(ctx context.Context, r DateRange, sel ParameterSelection) (ChartSpec, Result) {
	if len(sel) == 0 {
		empty := Result{Table: NewTable(nil)}
		return s.histogram(empty.Table), empty
	}

	res := s.FetchByDateRange(ctx, r)
	res.Table = FilterByParameter(res.Table, sel)

	return s.histogram(res.Table), res
}

// Measurements fetches the records named in sel. With an empty selection
// every record up to the page size is returned.
func (s *Service) Measurements(ctx context.Context, sel ParameterSelection) Result {
	res := s.FetchByNames(ctx, sel)
	if len(sel) > 0 {
		res.Table = FilterByParameter(res.Table, sel)
	}
	return res
}

// MeasurementsHistogram builds the histogram of the records named in sel.
// An empty selection returns an empty chart without fetching.
func (s *Service) MeasurementsHistogram(ctx context.Context, sel ParameterSelection) (ChartSpec, Result) {
	if len(sel) == 0 {
		empty := Result{Table: NewTable(nil)}
		return s.histogram(empty.Table), empty
	}

	res := s.Measurements(ctx, sel)
	return s.histogram(res.Table), res
}

func (s *Service) histogram(t *Table) ChartSpec {
	return NewHistogram(t, HistogramOptions{Bins: s.bins})
}

// run executes q under the session guard of ctx.
func (s *Service) run(ctx context.Context, q QuerySpec) Result {
	session := SessionFromContext(ctx)
	reqCtx, finish := s.sessions.Begin(ctx, session)

	s.logger.Debug().
		Str("session", session).
		Str("where", q.Where).
		Str("out_fields", q.OutFieldsParam()).
		Int("count", q.Count).
		Msg("fetching air quality records")

	res := finish(s.fetcher.Fetch(reqCtx, q))
	if res.Table == nil {
		res.Table = NewTable(nil)
	}

	if !res.OK() {
		s.logger.Warn().
			Err(res.Err).
			Str("session", session).
			Msg("air quality fetch returned no data")
		return res
	}

	s.logger.Debug().
		Int("rows", res.Table.Len()).
		Int("columns", len(res.Table.Columns)).
		Bool("truncated", res.Truncated).
		Msg("air quality records reshaped")

	return res
}
