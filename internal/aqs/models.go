// Package aqs provides the EPA air quality fetch-and-reshape pipeline:
// query construction, retrieval, reshaping into tables and
// parameter-name filtering.
package aqs

import (
	"errors"
	"fmt"
	"time"
)

// Pipeline errors. Every failure is reported through Result.Err and
// can be classified with errors.Is.
var (
	ErrTransport         = errors.New("air quality service unreachable")
	ErrUpstream          = errors.New("air quality service returned an error")
	ErrMalformedResponse = errors.New("malformed air quality response")
	ErrSuperseded        = errors.New("request superseded by a newer one")
	ErrInvalidDateRange  = errors.New("invalid date range")
)

// Well-known attribute names of the EPA dataset.
const (
	FieldDateLocal      = "Date_Local"
	FieldParameterName  = "Parameter_Name"
	FieldArithmeticMean = "Arithmetic_Mean"
)

// DateLayout is the calendar date format used in predicates and request
// parameters.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both bounds to calendar dates in UTC and checks
// that start is not after end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	s := calendarDate(start)
	e := calendarDate(end)
	if s.After(e) {
		return DateRange{}, fmt.Errorf("%w: start %s is after end %s",
			ErrInvalidDateRange, s.Format(DateLayout), e.Format(DateLayout))
	}
	return DateRange{Start: s, End: e}, nil
}

// ParseDateRange parses two YYYY-MM-DD dates into a DateRange.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start date %q", ErrInvalidDateRange, start)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end date %q", ErrInvalidDateRange, end)
	}
	return NewDateRange(s, e)
}

// DefaultDateRange is the window the dashboard date picker allows:
// 2019-01-01 through 2022-12-31.
func DefaultDateRange() DateRange {
	return DateRange{
		Start: time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2022, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// String formats the range as "start..end".
func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParameterSelection is an ordered set of parameter names.
type ParameterSelection []string

// NewParameterSelection drops empty and duplicate names, keeping the
// first occurrence order.
func NewParameterSelection(names ...string) ParameterSelection {
	seen := make(map[string]struct{}, len(names))
	sel := make(ParameterSelection, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		sel = append(sel, n)
	}
	return sel
}

// Contains reports whether name is selected.
func (s ParameterSelection) Contains(name string) bool {
	for _, n := range s {
		if n == name {
			return true
		}
	}
	return false
}

// DefaultSelectionSize is how many discovered parameter names are
// preselected after a fetch.
const DefaultSelectionSize = 3

// Result is what the pipeline hands to the presentation layer. Table is
// never nil. When Err is set the table is empty and Diagnostic explains
// why.
type Result struct {
	Table      *Table
	Diagnostic string
	Err        error

	// Truncated is set when the service reported more matching records
	// than the page size allowed.
	Truncated bool
}

// OK reports whether the fetch succeeded, possibly with zero rows.
func (r Result) OK() bool {
	return r.Err == nil
}

// Empty reports whether the result carries no rows.
func (r Result) Empty() bool {
	return r.Table == nil || r.Table.Len() == 0
}

// failed builds an empty Result for err.
func failed(err error) Result {
	return Result{
		Table:      NewTable(nil),
		Diagnostic: err.Error(),
		Err:        err,
	}
}
