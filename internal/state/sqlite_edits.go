package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/ssot/pkg/core"
)

// RecordEdit appends an update attempt to the journal. ID and CreatedAt
// are filled in when empty.
func (s *SQLiteStore) RecordEdit(ctx context.Context, edit *core.Edit) error {
	if s.db == nil {
		return fmt.Errorf("database not open")
	}

	if edit.ID == "" {
		edit.ID = generateID()
	}
	if edit.CreatedAt.IsZero() {
		edit.CreatedAt = time.Now().UTC()
	}
	if edit.Status == "" {
		edit.Status = core.EditStatusOK
	}

	payload, err := json.Marshal(edit.Row)
	if err != nil {
		return fmt.Errorf("encode edit payload: %w", err)
	}

	var errMsg *string
	if edit.Error != "" {
		errMsg = &edit.Error
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO edits (id, dataset, action, payload_json, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, edit.ID, string(edit.Dataset), edit.Action, string(payload), string(edit.Status), errMsg, formatTime(edit.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to record edit: %w", err)
	}
	return nil
}

// ListEdits returns journal entries, newest first.
func (s *SQLiteStore) ListEdits(ctx context.Context, filter core.EditFilter) ([]*core.Edit, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not open")
	}

	var (
		where []string
		args  []any
	)
	if filter.Dataset != "" {
		where = append(where, "dataset = ?")
		args = append(args, string(filter.Dataset))
	}

	query := `SELECT id, dataset, action, payload_json, status, error, created_at FROM edits`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list edits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var edits []*core.Edit
	for rows.Next() {
		var (
			e         core.Edit
			dataset   string
			payload   string
			status    string
			errMsg    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &dataset, &e.Action, &payload, &status, &errMsg, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan edit: %w", err)
		}
		e.Dataset = core.DatasetID(dataset)
		e.Status = core.EditStatus(status)
		if errMsg.Valid {
			e.Error = errMsg.String
		}
		if err := json.Unmarshal([]byte(payload), &e.Row); err != nil {
			return nil, fmt.Errorf("decode edit %s: %w", e.ID, err)
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("decode edit %s: %w", e.ID, err)
		}
		edits = append(edits, &e)
	}
	return edits, rows.Err()
}
