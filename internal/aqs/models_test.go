package aqs_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epadash/epadash/internal/aqs"
)

func TestParseDateRange(t *testing.T) {
	r, err := aqs.ParseDateRange("2019-01-01", "2022-12-31")
	require.NoError(t, err)
	assert.Equal(t, aqs.DefaultDateRange(), r)
	assert.Equal(t, "2019-01-01..2022-12-31", r.String())
}

func TestParseDateRange_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
	}{
		{"bad start", "2019-1-1", "2019-12-31"},
		{"bad end", "2019-01-01", "2019-02-30"},
		{"start after end", "2020-01-02", "2020-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := aqs.ParseDateRange(tt.start, tt.end)
			assert.True(t, errors.Is(err, aqs.ErrInvalidDateRange), "got %v", err)
		})
	}
}

func TestNewDateRange_SameDay(t *testing.T) {
	day := time.Date(2021, time.July, 4, 0, 0, 0, 0, time.UTC)
	r, err := aqs.NewDateRange(day, day.Add(12*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, r.Start, r.End)
}

func TestNewParameterSelection(t *testing.T) {
	sel := aqs.NewParameterSelection("Ozone", "", "PM2.5", "Ozone", "Carbon monoxide")

	assert.Equal(t, aqs.ParameterSelection{"Ozone", "PM2.5", "Carbon monoxide"}, sel)
	assert.True(t, sel.Contains("PM2.5"))
	assert.False(t, sel.Contains("ozone"))
	assert.NotNil(t, aqs.NewParameterSelection())
	assert.Empty(t, aqs.NewParameterSelection())
}

func TestResult_OKAndEmpty(t *testing.T) {
	ok := aqs.Result{Table: aqs.NewTable([]string{"Parameter_Name"})}
	assert.True(t, ok.OK())
	assert.True(t, ok.Empty(), "zero rows is an empty success")

	failed := aqs.Result{Table: aqs.NewTable(nil), Err: aqs.ErrUpstream, Diagnostic: aqs.ErrUpstream.Error()}
	assert.False(t, failed.OK())
	assert.True(t, failed.Empty())

	assert.True(t, aqs.Result{}.Empty())
}
