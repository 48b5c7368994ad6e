package aqs_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epadash/epadash/internal/aqs"
)

func meansTable(rows ...aqs.Record) *aqs.Table {
	t := aqs.NewTable([]string{aqs.FieldParameterName, aqs.FieldArithmeticMean})
	t.Rows = append(t.Rows, rows...)
	return t
}

func row(name string, mean any) aqs.Record {
	return aqs.Record{aqs.FieldParameterName: name, aqs.FieldArithmeticMean: mean}
}

func TestNewHistogram_EmptyTable(t *testing.T) {
	chart := aqs.NewHistogram(aqs.NewTable(nil), aqs.HistogramOptions{})

	assert.Equal(t, aqs.DefaultHistogramTitle, chart.Title)
	assert.Equal(t, aqs.FieldArithmeticMean, chart.XField)
	assert.Equal(t, "Arithmetic Mean", chart.XLabel)
	assert.Equal(t, aqs.FieldParameterName, chart.ColorField)
	assert.Equal(t, aqs.BarModeGroup, chart.BarMode)
	assert.NotNil(t, chart.BinEdges)
	assert.Empty(t, chart.BinEdges)
	assert.NotNil(t, chart.Series)
	assert.Empty(t, chart.Series)
	assert.Equal(t, 0, chart.Skipped)
}

func TestNewHistogram_GroupsBySeriesWithSharedEdges(t *testing.T) {
	tbl := meansTable(
		row("Ozone", 0.0),
		row("PM2.5", 10.0),
		row("Ozone", 2.5),
		row("PM2.5", 5.0),
		row("Ozone", 10.0),
	)

	chart := aqs.NewHistogram(tbl, aqs.HistogramOptions{Bins: 4})

	require.Len(t, chart.BinEdges, 5)
	assert.Equal(t, []float64{0, 2.5, 5, 7.5, 10}, chart.BinEdges)

	require.Len(t, chart.Series, 2)
	assert.Equal(t, "Ozone", chart.Series[0].Name)
	assert.Equal(t, []float64{0, 2.5, 10}, chart.Series[0].Values)
	assert.Equal(t, []int{1, 1, 0, 1}, chart.Series[0].Counts, "the last bin is closed")

	assert.Equal(t, "PM2.5", chart.Series[1].Name)
	assert.Equal(t, []int{0, 0, 1, 1}, chart.Series[1].Counts)
}

func TestNewHistogram_CountsSumToValues(t *testing.T) {
	tbl := meansTable()
	for i := 0; i < 57; i++ {
		tbl.Rows = append(tbl.Rows, row("Ozone", math.Sin(float64(i))))
	}

	chart := aqs.NewHistogram(tbl, aqs.HistogramOptions{})

	require.Len(t, chart.Series, 1)
	assert.Len(t, chart.BinEdges, aqs.DefaultHistogramBins+1)
	total := 0
	for _, c := range chart.Series[0].Counts {
		total += c
	}
	assert.Equal(t, 57, total)
}

func TestNewHistogram_DegenerateRange(t *testing.T) {
	chart := aqs.NewHistogram(meansTable(row("Ozone", 0.04), row("Ozone", 0.04)), aqs.HistogramOptions{})

	assert.Equal(t, []float64{0.04 - 0.5, 0.04 + 0.5}, chart.BinEdges)
	require.Len(t, chart.Series, 1)
	assert.Equal(t, []int{2}, chart.Series[0].Counts)
}

func TestNewHistogram_SkipsUnusableRows(t *testing.T) {
	tbl := meansTable(
		row("Ozone", 1.0),
		row("Ozone", nil),
		row("Ozone", "n/a"),
		row("Ozone", math.NaN()),
		aqs.Record{aqs.FieldArithmeticMean: 2.0},
	)

	chart := aqs.NewHistogram(tbl, aqs.HistogramOptions{Title: "Custom"})

	assert.Equal(t, "Custom", chart.Title)
	assert.Equal(t, 4, chart.Skipped)
	require.Len(t, chart.Series, 1)
	assert.Equal(t, []float64{1.0}, chart.Series[0].Values)
}
