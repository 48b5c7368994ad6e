package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 error response, written with Content-Type
// application/problem+json.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError is a validation error on one request parameter.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Field error codes.
const (
	CodeInvalidDate  = "INVALID_DATE"
	CodeInvalidRange = "INVALID_RANGE"
)

// Problem types.
const (
	ProblemTypeValidation      = "https://epadash.dev/problems/validation-error"
	ProblemTypeNotFound        = "https://epadash.dev/problems/not-found"
	ProblemTypeTLSRequired     = "https://epadash.dev/problems/tls-required"
	ProblemTypeTooManyRequests = "https://epadash.dev/problems/too-many-requests"
	ProblemTypeInternal        = "https://epadash.dev/problems/internal-error"
)

// NewProblem creates a new Problem.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

// WithDetail sets the detail message.
func (p *Problem) WithDetail(detail string) *Problem {
	p.Detail = detail
	return p
}

// WithInstance sets the request path the problem occurred on.
func (p *Problem) WithInstance(instance string) *Problem {
	p.Instance = instance
	return p
}

// WithErrors sets the field errors.
func (p *Problem) WithErrors(errors []FieldError) *Problem {
	p.Errors = errors
	return p
}

// Write writes the Problem as JSON to the ResponseWriter.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		w.Header().Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest creates a 400 Bad Request problem.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	return NewProblem(ProblemTypeValidation, "Validation error", http.StatusBadRequest, traceID).
		WithDetail(detail).
		WithErrors(errors)
}

// NewNotFound creates a 404 Not Found problem.
func NewNotFound(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeNotFound, "Not found", http.StatusNotFound, traceID).
		WithDetail(detail)
}

// NewTLSRequired creates a 403 problem for plain HTTP requests.
func NewTLSRequired(traceID string) *Problem {
	return NewProblem(ProblemTypeTLSRequired, "TLS required", http.StatusForbidden, traceID).
		WithDetail("This endpoint requires HTTPS")
}

// NewTooManyRequests creates a 429 Too Many Requests problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests, traceID).
		WithDetail(detail)
}

// NewInternalError creates a 500 Internal Server Error problem.
func NewInternalError(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeInternal, "Internal server error", http.StatusInternalServerError, traceID).
		WithDetail(detail)
}
