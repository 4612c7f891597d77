package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leapstack-labs/ssot/pkg/core"
)

// SaveSnapshot stores the full dataset, replacing any previous snapshot.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, ds *core.Dataset) error {
	if s.db == nil {
		return fmt.Errorf("database not open")
	}

	columns, err := json.Marshal(ds.Columns)
	if err != nil {
		return fmt.Errorf("encode columns: %w", err)
	}
	rows, err := json.Marshal(ds.Rows)
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (dataset, columns_json, rows_json, row_count, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (dataset) DO UPDATE SET
			columns_json = excluded.columns_json,
			rows_json = excluded.rows_json,
			row_count = excluded.row_count,
			fetched_at = excluded.fetched_at
	`, string(ds.ID), string(columns), string(rows), len(ds.Rows), formatTime(ds.FetchedAt))
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", ds.ID, err)
	}
	return nil
}

// LoadSnapshot returns the stored dataset or ErrNotFound.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context, id core.DatasetID) (*core.Dataset, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not open")
	}

	var columnsJSON, rowsJSON, fetchedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT columns_json, rows_json, fetched_at FROM snapshots WHERE dataset = ?
	`, string(id)).Scan(&columnsJSON, &rowsJSON, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}

	ds := &core.Dataset{ID: id}
	if err := json.Unmarshal([]byte(columnsJSON), &ds.Columns); err != nil {
		return nil, fmt.Errorf("decode columns of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(rowsJSON), &ds.Rows); err != nil {
		return nil, fmt.Errorf("decode rows of %s: %w", id, err)
	}
	if ds.Rows == nil {
		ds.Rows = []core.Row{}
	}
	if ds.FetchedAt, err = parseTime(fetchedAt); err != nil {
		return nil, fmt.Errorf("decode fetched_at of %s: %w", id, err)
	}
	return ds, nil
}

// SnapshotInfo summarizes a stored snapshot without loading its rows.
type SnapshotInfo struct {
	Dataset   core.DatasetID
	Rows      int
	FetchedAt string
}

// ListSnapshots returns a summary of every stored snapshot.
func (s *SQLiteStore) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not open")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT dataset, row_count, fetched_at FROM snapshots ORDER BY dataset`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		var id string
		if err := rows.Scan(&id, &info.Rows, &info.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		info.Dataset = core.DatasetID(id)
		out = append(out, info)
	}
	return out, rows.Err()
}
