package aqs

import "math"

// Chart defaults of the dashboard histogram.
const (
	DefaultHistogramBins  = 20
	DefaultHistogramTitle = "Histogram of Arithmetic Means for Selected Parameters Over Time"
	BarModeGroup          = "group"
)

// ChartSpec describes a grouped histogram for an external plotting
// collaborator. All series share BinEdges; Counts[i] of a series is the
// number of its values in [BinEdges[i], BinEdges[i+1]), the last bin
// being closed.
type ChartSpec struct {
	Title      string    `json:"title"`
	XField     string    `json:"xField"`
	XLabel     string    `json:"xLabel"`
	ColorField string    `json:"colorField"`
	BarMode    string    `json:"barMode"`
	BinEdges   []float64 `json:"binEdges"`
	Series     []Series  `json:"series"`

	// Skipped counts rows without a numeric mean or a parameter name.
	Skipped int `json:"skipped"`
}

// Series is the histogram data of one parameter name.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Counts []int     `json:"counts"`
}

// HistogramOptions configures NewHistogram. Zero values use defaults.
type HistogramOptions struct {
	Bins  int
	Title string
}

// NewHistogram builds the Arithmetic_Mean histogram of t grouped by
// Parameter_Name, series in encounter order.
func NewHistogram(t *Table, opts HistogramOptions) ChartSpec {
	bins := opts.Bins
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	title := opts.Title
	if title == "" {
		title = DefaultHistogramTitle
	}

	chart := ChartSpec{
		Title:      title,
		XField:     FieldArithmeticMean,
		XLabel:     "Arithmetic Mean",
		ColorField: FieldParameterName,
		BarMode:    BarModeGroup,
		BinEdges:   []float64{},
		Series:     []Series{},
	}

	index := make(map[string]int)
	lo, hi := math.Inf(1), math.Inf(-1)

	for i := range t.Rows {
		name, okName := t.StringAt(i, FieldParameterName)
		mean, okMean := t.FloatAt(i, FieldArithmeticMean)
		if !okName || !okMean || math.IsNaN(mean) || math.IsInf(mean, 0) {
			chart.Skipped++
			continue
		}

		idx, ok := index[name]
		if !ok {
			idx = len(chart.Series)
			index[name] = idx
			chart.Series = append(chart.Series, Series{Name: name})
		}
		chart.Series[idx].Values = append(chart.Series[idx].Values, mean)

		lo = math.Min(lo, mean)
		hi = math.Max(hi, mean)
	}

	if len(chart.Series) == 0 {
		return chart
	}

	chart.BinEdges = binEdges(lo, hi, bins)
	for i := range chart.Series {
		chart.Series[i].Counts = binCounts(chart.Series[i].Values, chart.BinEdges)
	}

	return chart
}

// binEdges splits [lo, hi] into n equal bins. A degenerate range gets a
// single unit-wide bin centered on lo.
func binEdges(lo, hi float64, n int) []float64 {
	if lo == hi {
		return []float64{lo - 0.5, lo + 0.5}
	}
	width := (hi - lo) / float64(n)
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[n] = hi
	return edges
}

func binCounts(values, edges []float64) []int {
	n := len(edges) - 1
	counts := make([]int, n)
	lo := edges[0]
	width := (edges[n] - lo) / float64(n)
	for _, v := range values {
		b := int((v - lo) / width)
		if b >= n {
			b = n - 1
		}
		if b < 0 {
			b = 0
		}
		counts[b]++
	}
	return counts
}
