package aqs

// Record maps attribute names to scalar values: string, float64, bool,
// time.Time or nil.
type Record map[string]any

// Table is an ordered list of records sharing a column set.
type Table struct {
	Columns []string
	Rows    []Record
}

// NewTable creates a table with a copy of columns and no rows.
func NewTable(columns []string) *Table {
	return &Table{
		Columns: append(make([]string, 0, len(columns)), columns...),
		Rows:    []Record{},
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Value returns the value of column in row i. The second result is false
// when the row has no such attribute or i is out of range.
func (t *Table) Value(i int, column string) (any, bool) {
	if i < 0 || i >= len(t.Rows) {
		return nil, false
	}
	v, ok := t.Rows[i][column]
	return v, ok
}

// StringAt returns column of row i if it holds a string.
func (t *Table) StringAt(i int, column string) (string, bool) {
	v, ok := t.Value(i, column)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// FloatAt returns column of row i if it holds a number.
func (t *Table) FloatAt(i int, column string) (float64, bool) {
	v, ok := t.Value(i, column)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// Distinct returns the distinct string values of column in encounter
// order. Rows where the column is absent or not a string are skipped.
func (t *Table) Distinct(column string) []string {
	seen := make(map[string]struct{})
	values := []string{}
	for i := range t.Rows {
		s, ok := t.StringAt(i, column)
		if !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		values = append(values, s)
	}
	return values
}

// ParameterNames returns the distinct Parameter_Name values.
func (t *Table) ParameterNames() []string {
	return t.Distinct(FieldParameterName)
}

// Where returns a table with the same columns holding the rows for which
// keep returns true, in original order.
func (t *Table) Where(keep func(Record) bool) *Table {
	out := NewTable(t.Columns)
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// FilterByParameter keeps the rows whose Parameter_Name is in sel. An
// empty selection yields an empty table.
func FilterByParameter(t *Table, sel ParameterSelection) *Table {
	if len(sel) == 0 {
		return NewTable(t.Columns)
	}
	return t.Where(func(r Record) bool {
		name, ok := r[FieldParameterName].(string)
		return ok && sel.Contains(name)
	})
}
