package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Row is one flat record from a dataset: column name to cell value.
// Rows of the same dataset may carry different key sets; an absent key
// reads as the empty string.
type Row map[string]string

// Get returns the cell value for column, or "" when the row has no such key.
func (r Row) Get(column string) string {
	if r == nil {
		return ""
	}
	return r[column]
}

// Has reports whether the row carries a non-empty value for column.
func (r Row) Has(column string) bool {
	return r.Get(column) != ""
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// UnmarshalJSON accepts any JSON object of scalars. Numbers and booleans are
// kept in their textual form and null becomes "".
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	out := make(Row, len(raw))
	for k, v := range raw {
		s, err := cellString(v)
		if err != nil {
			return fmt.Errorf("column %q: %w", k, err)
		}
		out[k] = s
	}
	*r = out
	return nil
}

func cellString(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		// Nested values are not expected from the backends; keep them readable.
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// Columns returns the union of keys across rows in order of first appearance.
func Columns(rows []Row) []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, row := range rows {
		// Map iteration order is random, so order keys within a row.
		for _, k := range sortedKeys(row) {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			cols = append(cols, k)
		}
	}
	return cols
}
