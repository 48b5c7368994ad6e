package aqs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// esriDateType marks fields holding epoch milliseconds.
const esriDateType = "esriFieldTypeDate"

type queryBody struct {
	Fields   []fieldInfo `json:"fields"`
	Features []feature   `json:"features"`
}

type fieldInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type feature struct {
	Attributes json.RawMessage `json:"attributes"`
}

// Reshape converts a FeatureServer query body into a Table, one row per
// feature's attributes. A body without features yields an empty table.
// Columns follow the key order of the first record; keys first seen on
// later records are appended. Date fields are converted to time.Time.
func Reshape(body []byte) (*Table, error) {
	var qb queryBody
	if err := json.Unmarshal(body, &qb); err != nil {
		return NewTable(nil), fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	dateFields := make(map[string]bool)
	for _, f := range qb.Fields {
		if f.Type == esriDateType {
			dateFields[f.Name] = true
		}
	}

	table := NewTable(nil)
	known := make(map[string]struct{})

	for i, f := range qb.Features {
		keys, rec, err := decodeAttributes(f.Attributes)
		if err != nil {
			return NewTable(nil), fmt.Errorf("%w: feature %d: %v", ErrMalformedResponse, i, err)
		}

		for _, k := range keys {
			if _, ok := known[k]; !ok {
				known[k] = struct{}{}
				table.Columns = append(table.Columns, k)
			}
			if dateFields[k] {
				if ms, ok := rec[k].(float64); ok {
					rec[k] = time.UnixMilli(int64(ms)).UTC()
				}
			}
		}

		table.Rows = append(table.Rows, rec)
	}

	return table, nil
}

// decodeAttributes decodes an attributes object, returning its keys in
// document order. A missing or null object decodes to an empty record.
func decodeAttributes(raw json.RawMessage) ([]string, Record, error) {
	rec := Record{}
	if len(raw) == 0 {
		return nil, rec, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if tok == nil {
		return nil, rec, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("attributes is not an object")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}

		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("attribute %q: %w", key, err)
		}

		if _, dup := rec[key]; !dup {
			keys = append(keys, key)
		}
		rec[key] = v
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}

	return keys, rec, nil
}
