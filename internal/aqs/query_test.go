package aqs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epadash/epadash/internal/aqs"
)

func mustRange(t *testing.T, start, end string) aqs.DateRange {
	t.Helper()
	r, err := aqs.ParseDateRange(start, end)
	require.NoError(t, err)
	return r
}

func TestDateRangeQuery(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
	}{
		{"year", "2019-01-01", "2019-12-31"},
		{"single day", "2021-06-15", "2021-06-15"},
		{"leap day", "2020-02-29", "2020-03-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := aqs.QueryBuilder{}.DateRangeQuery(mustRange(t, tt.start, tt.end))

			assert.Equal(t,
				"Date_Local >= DATE '"+tt.start+"' AND Date_Local <= DATE '"+tt.end+"'",
				q.Where)
			assert.Contains(t, q.Where, ">= DATE '"+tt.start+"'")
			assert.Contains(t, q.Where, "<= DATE '"+tt.end+"'")
			assert.Equal(t, "*", q.OutFieldsParam())
			assert.Equal(t, 0, q.Offset)
			assert.Equal(t, aqs.DateRangePageSize, q.Count)
		})
	}
}

func TestDateRangeQuery_DropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	r, err := aqs.NewDateRange(
		time.Date(2022, time.March, 1, 23, 59, 0, 0, loc),
		time.Date(2022, time.March, 2, 0, 1, 0, 0, loc),
	)
	require.NoError(t, err)

	q := aqs.QueryBuilder{}.DateRangeQuery(r)
	assert.Equal(t, "Date_Local >= DATE '2022-03-01' AND Date_Local <= DATE '2022-03-02'", q.Where)
}

func TestNameSetQuery(t *testing.T) {
	tests := []struct {
		name     string
		builder  aqs.QueryBuilder
		sel      aqs.ParameterSelection
		expected string
	}{
		{
			name:     "empty selection matches everything",
			sel:      aqs.NewParameterSelection(),
			expected: "1=1",
		},
		{
			name:     "nil selection matches everything",
			expected: "1=1",
		},
		{
			name:     "two names in input order",
			sel:      aqs.NewParameterSelection("Ozone", "PM2.5"),
			expected: "Parameter_Name IN ('Ozone','PM2.5')",
		},
		{
			name:     "single quote is doubled",
			sel:      aqs.NewParameterSelection("O'Brien"),
			expected: "Parameter_Name IN ('O''Brien')",
		},
		{
			name:     "raw names are interpolated as is",
			builder:  aqs.QueryBuilder{RawNames: true},
			sel:      aqs.NewParameterSelection("O'Brien"),
			expected: "Parameter_Name IN ('O'Brien')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.builder.NameSetQuery(tt.sel)

			assert.Equal(t, tt.expected, q.Where)
			assert.Equal(t, "Parameter_Name,Arithmetic_Mean", q.OutFieldsParam())
			assert.Equal(t, aqs.NameSetPageSize, q.Count)
		})
	}
}

func TestQuerySpec_Values(t *testing.T) {
	q := aqs.QueryBuilder{}.NameSetQuery(aqs.NewParameterSelection("Ozone"))

	v := q.Values()

	assert.Equal(t, "Parameter_Name IN ('Ozone')", v.Get("where"))
	assert.Equal(t, "Parameter_Name,Arithmetic_Mean", v.Get("outFields"))
	assert.Equal(t, "json", v.Get("f"))
	assert.Equal(t, "0", v.Get("resultOffset"))
	assert.Equal(t, "1000", v.Get("resultRecordCount"))
}
