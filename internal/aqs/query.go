package aqs

import (
	"net/url"
	"strconv"
	"strings"
)

// Page sizes of the two query modes. Only the first page is ever
// requested; larger result sets are truncated by the service.
const (
	DateRangePageSize = 2000
	NameSetPageSize   = 1000
)

// QuerySpec is a FeatureServer query: a where predicate, the requested
// fields and the pagination window.
type QuerySpec struct {
	Where string

	// OutFields lists the requested attributes. Empty means all fields.
	OutFields []string

	Offset int
	Count  int
}

// OutFieldsParam renders OutFields as the outFields parameter value.
func (q QuerySpec) OutFieldsParam() string {
	if len(q.OutFields) == 0 {
		return "*"
	}
	return strings.Join(q.OutFields, ",")
}

// Values encodes the query as FeatureServer query parameters.
func (q QuerySpec) Values() url.Values {
	v := url.Values{}
	v.Set("where", q.Where)
	v.Set("outFields", q.OutFieldsParam())
	v.Set("f", "json")
	v.Set("resultOffset", strconv.Itoa(q.Offset))
	v.Set("resultRecordCount", strconv.Itoa(q.Count))
	return v
}

// QueryBuilder builds QuerySpecs for the two dashboard query modes.
type QueryBuilder struct {
	// RawNames disables quote escaping in name-set predicates. Names
	// containing a single quote then break out of the string literal.
	RawNames bool
}

// DateRangeQuery selects all fields of records whose Date_Local falls
// within r, bounds inclusive.
func (b QueryBuilder) DateRangeQuery(r DateRange) QuerySpec {
	where := FieldDateLocal + " >= DATE '" + r.Start.Format(DateLayout) + "' AND " +
		FieldDateLocal + " <= DATE '" + r.End.Format(DateLayout) + "'"

	return QuerySpec{
		Where: where,
		Count: DateRangePageSize,
	}
}

// NameSetQuery selects Parameter_Name and Arithmetic_Mean of records
// whose Parameter_Name is in sel. An empty selection matches everything.
func (b QueryBuilder) NameSetQuery(sel ParameterSelection) QuerySpec {
	where := "1=1"
	if len(sel) > 0 {
		quoted := make([]string, 0, len(sel))
		for _, name := range sel {
			quoted = append(quoted, b.quote(name))
		}
		where = FieldParameterName + " IN (" + strings.Join(quoted, ",") + ")"
	}

	return QuerySpec{
		Where:     where,
		OutFields: []string{FieldParameterName, FieldArithmeticMean},
		Count:     NameSetPageSize,
	}
}

// quote wraps s in single quotes, doubling embedded quotes unless
// RawNames is set.
func (b QueryBuilder) quote(s string) string {
	if !b.RawNames {
		s = strings.ReplaceAll(s, "'", "''")
	}
	return "'" + s + "'"
}
