package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ssot/pkg/core"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, store.Path())

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	require.NoError(t, store.Close())

	// reopening an existing database is a no-op migration
	store, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore()
	ctx := context.Background()

	require.Error(t, store.Migrate())
	require.Error(t, store.SaveSnapshot(ctx, &core.Dataset{ID: core.RadiaPlan}))
	_, err := store.LoadSnapshot(ctx, core.RadiaPlan)
	require.Error(t, err)
	require.Error(t, store.RecordEdit(ctx, &core.Edit{}))
	_, err = store.ListEdits(ctx, core.EditFilter{})
	require.Error(t, err)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_Snapshots(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.LoadSnapshot(ctx, core.RadiaPlan)
	require.True(t, errors.Is(err, ErrNotFound))

	fetched := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	ds := &core.Dataset{
		ID:        core.RadiaPlan,
		Columns:   []string{"CAMPAIGN_ID", "AGENCY_NAME"},
		Rows:      []core.Row{{"CAMPAIGN_ID": "C1", "AGENCY_NAME": "OMD"}, {"CAMPAIGN_ID": "C2"}},
		FetchedAt: fetched,
	}
	require.NoError(t, store.SaveSnapshot(ctx, ds))

	got, err := store.LoadSnapshot(ctx, core.RadiaPlan)
	require.NoError(t, err)
	assert.Equal(t, ds.Columns, got.Columns)
	assert.Equal(t, ds.Rows, got.Rows)
	assert.True(t, fetched.Equal(got.FetchedAt))

	// saving again replaces the snapshot
	ds.Rows = ds.Rows[:1]
	require.NoError(t, store.SaveSnapshot(ctx, ds))
	got, err = store.LoadSnapshot(ctx, core.RadiaPlan)
	require.NoError(t, err)
	assert.Len(t, got.Rows, 1)

	infos, err := store.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, core.RadiaPlan, infos[0].Dataset)
	assert.Equal(t, 1, infos[0].Rows)
}

func TestSQLiteStore_EmptySnapshot(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSnapshot(ctx, core.NewDataset(core.MediaPlan, nil, nil)))
	got, err := store.LoadSnapshot(ctx, core.MediaPlan)
	require.NoError(t, err)
	assert.NotNil(t, got.Rows)
	assert.Empty(t, got.Rows)
}

func TestSQLiteStore_Edits(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	edits := []*core.Edit{
		{Dataset: core.MediaPlan, Action: "media-plan", Row: core.Row{"PACKAGE": "P1"}, CreatedAt: base},
		{Dataset: core.TargetingAnalytics, Action: "by-package", Row: core.Row{"TACTIC": "x"}, Status: core.EditStatusFailed, Error: "row locked", CreatedAt: base.Add(time.Minute)},
		{Dataset: core.MediaPlan, Action: "media-plan", Row: core.Row{"PACKAGE": "P2"}, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range edits {
		require.NoError(t, store.RecordEdit(ctx, e))
		assert.NotEmpty(t, e.ID)
	}

	tests := []struct {
		name    string
		filter  core.EditFilter
		wantIDs []string
	}{
		{"all newest first", core.EditFilter{}, []string{edits[2].ID, edits[1].ID, edits[0].ID}},
		{"by dataset", core.EditFilter{Dataset: core.MediaPlan}, []string{edits[2].ID, edits[0].ID}},
		{"limited", core.EditFilter{Limit: 1}, []string{edits[2].ID}},
		{"no match", core.EditFilter{Dataset: core.RadiaPlan}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListEdits(ctx, tt.filter)
			require.NoError(t, err)
			var ids []string
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	got, err := store.ListEdits(ctx, core.EditFilter{Dataset: core.TargetingAnalytics})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.EditStatusFailed, got[0].Status)
	assert.Equal(t, "row locked", got[0].Error)
	assert.Equal(t, core.Row{"TACTIC": "x"}, got[0].Row)
	assert.True(t, base.Add(time.Minute).Equal(got[0].CreatedAt))

	first, err := store.ListEdits(ctx, core.EditFilter{Dataset: core.MediaPlan, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, core.EditStatusOK, first[1].Status)
	assert.Empty(t, first[1].Error)
}

func TestSQLiteStore_DatabaseErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mock   func(mock sqlmock.Sqlmock)
		call   func(s *SQLiteStore) error
		errMsg string
	}{
		{
			name: "save snapshot",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO snapshots").WillReturnError(assert.AnError)
			},
			call: func(s *SQLiteStore) error {
				return s.SaveSnapshot(ctx, core.NewDataset(core.RadiaPlan, nil, nil))
			},
			errMsg: "save snapshot radia-plan",
		},
		{
			name: "load snapshot",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT columns_json").WillReturnError(assert.AnError)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.LoadSnapshot(ctx, core.RadiaPlan)
				return err
			},
			errMsg: "load snapshot radia-plan",
		},
		{
			name: "corrupt snapshot",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT columns_json").WillReturnRows(
					sqlmock.NewRows([]string{"columns_json", "rows_json", "fetched_at"}).
						AddRow(`["A"]`, `{not json`, "2024-01-01T00:00:00.000000000Z"),
				)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.LoadSnapshot(ctx, core.RadiaPlan)
				return err
			},
			errMsg: "decode rows of radia-plan",
		},
		{
			name: "record edit",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO edits").WillReturnError(assert.AnError)
			},
			call: func(s *SQLiteStore) error {
				return s.RecordEdit(ctx, &core.Edit{Dataset: core.MediaPlan, Action: "media-plan"})
			},
			errMsg: "failed to record edit",
		},
		{
			name: "list edits",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT id, dataset").WillReturnError(assert.AnError)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.ListEdits(ctx, core.EditFilter{Limit: 10})
				return err
			},
			errMsg: "failed to list edits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = tt.call(&SQLiteStore{db: db})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
