package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// DecodeRows decodes a JSON array of flat objects. Unlike unmarshalling into
// []Row, it also reports the column order as the keys first appear in the
// payload, which is the order the backends intend columns to be shown in.
func DecodeRows(data []byte) ([]Row, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	if tok == nil {
		return []Row{}, nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, nil, fmt.Errorf("read rows: expected array, got %v", tok)
	}

	rows := []Row{}
	var columns []string
	seen := make(map[string]struct{})

	for dec.More() {
		row, keys, err := decodeObject(dec)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", len(rows), err)
		}
		for _, k := range keys {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				columns = append(columns, k)
			}
		}
		rows = append(rows, row)
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, columns, nil
}

func decodeObject(dec *json.Decoder) (Row, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	row := Row{}
	var keys []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key, got %v", keyTok)
		}

		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", key, err)
		}
		s, err := cellString(v)
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", key, err)
		}

		if _, dup := row[key]; !dup {
			keys = append(keys, key)
		}
		row[key] = s
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return row, keys, nil
}

func sortedKeys(r Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
