package models

import "github.com/epadash/epadash/internal/aqs"

// DateRange is an inclusive range of YYYY-MM-DD dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FetchStatus tells the UI whether the upstream fetch succeeded. A failed
// fetch still comes with a renderable, empty payload.
type FetchStatus struct {
	OK         bool   `json:"ok"`
	Diagnostic string `json:"diagnostic,omitempty"`
	Truncated  bool   `json:"truncated,omitempty"`
}

// ParametersResponse lists the parameter names found in a date range
// and the ones preselected for the histogram.
type ParametersResponse struct {
	Range    DateRange   `json:"range"`
	Options  []string    `json:"options"`
	Selected []string    `json:"selected"`
	Status   FetchStatus `json:"status"`
}

// TableResponse is a table of records. Each row holds one value per
// column, null where the record lacks the attribute.
type TableResponse struct {
	Columns  []string    `json:"columns"`
	Rows     [][]any     `json:"rows"`
	RowCount int         `json:"rowCount"`
	Status   FetchStatus `json:"status"`
}

// HistogramResponse carries a grouped histogram chart.
type HistogramResponse struct {
	Range    *DateRange    `json:"range,omitempty"`
	Selected []string      `json:"selected"`
	Chart    aqs.ChartSpec `json:"chart"`
	RowCount int           `json:"rowCount"`
	Status   FetchStatus   `json:"status"`
}
