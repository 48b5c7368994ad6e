package handler

import (
	"net/http"
	"time"

	"github.com/epadash/epadash/internal/api/models"
	"github.com/epadash/epadash/internal/api/response"
	"github.com/epadash/epadash/internal/aqs"
)

// Query parameter names.
const (
	paramStart     = "start"
	paramEnd       = "end"
	paramParameter = "parameter"
)

// DashboardHandler serves the air quality dashboard endpoints. Upstream
// failures never become HTTP errors: the payload is empty and its status
// carries the diagnostic.
type DashboardHandler struct {
	service *aqs.Service
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service *aqs.Service) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Parameters handles GET /v1/parameters - parameter names found in a date range.
func (h *DashboardHandler) Parameters(w http.ResponseWriter, r *http.Request) {
	dr, ok := dateRange(w, r)
	if !ok {
		return
	}

	params := h.service.DiscoverParameters(r.Context(), dr)

	response.JSON(w, r, http.StatusOK, models.ParametersResponse{
		Range:    rangeModel(dr),
		Options:  nonNil(params.Options),
		Selected: nonNil(params.Selected),
		Status:   fetchStatus(params.Result),
	})
}

// Histogram handles GET /v1/histogram - histogram of the selected
// parameters within a date range.
func (h *DashboardHandler) Histogram(w http.ResponseWriter, r *http.Request) {
	dr, ok := dateRange(w, r)
	if !ok {
		return
	}
	sel := selection(r)

	chart, res := h.service.DateRangeHistogram(r.Context(), dr, sel)

	rm := rangeModel(dr)
	response.JSON(w, r, http.StatusOK, models.HistogramResponse{
		Range:    &rm,
		Selected: nonNil(sel),
		Chart:    chart,
		RowCount: res.Table.Len(),
		Status:   fetchStatus(res),
	})
}

// Measurements handles GET /v1/measurements - the measurement table of
// the selected parameters.
func (h *DashboardHandler) Measurements(w http.ResponseWriter, r *http.Request) {
	res := h.service.Measurements(r.Context(), selection(r))
	response.JSON(w, r, http.StatusOK, tableModel(res))
}

// MeasurementsHistogram handles GET /v1/measurements/histogram.
func (h *DashboardHandler) MeasurementsHistogram(w http.ResponseWriter, r *http.Request) {
	sel := selection(r)

	chart, res := h.service.MeasurementsHistogram(r.Context(), sel)

	response.JSON(w, r, http.StatusOK, models.HistogramResponse{
		Selected: nonNil(sel),
		Chart:    chart,
		RowCount: res.Table.Len(),
		Status:   fetchStatus(res),
	})
}

// dateRange reads start and end, falling back to the default window for
// a missing bound. It writes a 400 problem and returns false on bad input.
func dateRange(w http.ResponseWriter, r *http.Request) (aqs.DateRange, bool) {
	def := aqs.DefaultDateRange()
	q := r.URL.Query()

	var fieldErrors []models.FieldError
	start, err := parseDate(q.Get(paramStart), def.Start)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   paramStart,
			Message: "must be a date formatted as YYYY-MM-DD",
			Code:    models.CodeInvalidDate,
		})
	}
	end, err := parseDate(q.Get(paramEnd), def.End)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   paramEnd,
			Message: "must be a date formatted as YYYY-MM-DD",
			Code:    models.CodeInvalidDate,
		})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid date parameters", fieldErrors)
		return aqs.DateRange{}, false
	}

	dr, err := aqs.NewDateRange(start, end)
	if err != nil {
		response.BadRequest(w, r, err.Error(), []models.FieldError{{
			Field:   paramStart,
			Message: "must not be after end",
			Code:    models.CodeInvalidRange,
		}})
		return aqs.DateRange{}, false
	}
	return dr, true
}

func parseDate(v string, fallback time.Time) (time.Time, error) {
	if v == "" {
		return fallback, nil
	}
	return time.Parse(aqs.DateLayout, v)
}

// selection reads the repeated parameter query values.
func selection(r *http.Request) aqs.ParameterSelection {
	return aqs.NewParameterSelection(r.URL.Query()[paramParameter]...)
}

func rangeModel(dr aqs.DateRange) models.DateRange {
	return models.DateRange{
		Start: dr.Start.Format(aqs.DateLayout),
		End:   dr.End.Format(aqs.DateLayout),
	}
}

func fetchStatus(res aqs.Result) models.FetchStatus {
	return models.FetchStatus{
		OK:         res.OK(),
		Diagnostic: res.Diagnostic,
		Truncated:  res.Truncated,
	}
}

// tableModel lays the table out row by row in column order. Attributes a
// record lacks are encoded as null.
func tableModel(res aqs.Result) models.TableResponse {
	t := res.Table
	rows := make([][]any, t.Len())
	for i := range rows {
		row := make([]any, len(t.Columns))
		for j, col := range t.Columns {
			if v, ok := t.Value(i, col); ok {
				row[j] = v
			}
		}
		rows[i] = row
	}

	return models.TableResponse{
		Columns:  nonNil(t.Columns),
		Rows:     rows,
		RowCount: t.Len(),
		Status:   fetchStatus(res),
	}
}

func nonNil[S ~[]string](s S) []string {
	if s == nil {
		return []string{}
	}
	return s
}
