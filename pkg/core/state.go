package core

import (
	"context"
	"errors"
	"time"
)

// Store defines the persistence operations used by the cache and the UI.
type Store interface {
	Close() error

	// Snapshot operations
	SaveSnapshot(ctx context.Context, ds *Dataset) error
	LoadSnapshot(ctx context.Context, id DatasetID) (*Dataset, error)

	// Edit journal operations
	RecordEdit(ctx context.Context, edit *Edit) error
	ListEdits(ctx context.Context, filter EditFilter) ([]*Edit, error)
}

// EditStatus is the outcome of an update attempt.
type EditStatus string

// Edit status constants.
const (
	EditStatusOK     EditStatus = "ok"
	EditStatusFailed EditStatus = "failed"
)

// Edit is one journaled update attempt against a backend.
type Edit struct {
	ID        string     `json:"id"`
	Dataset   DatasetID  `json:"dataset"`
	Action    string     `json:"action"`
	Row       Row        `json:"row"`
	Status    EditStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// EditFilter narrows ListEdits. Zero values mean no restriction.
type EditFilter struct {
	Dataset DatasetID
	Limit   int
}

// ErrNotFound is returned by Store lookups that match nothing.
var ErrNotFound = errors.New("not found")
