// Package state persists the edit journal and mirrored dataset snapshots
// in SQLite.
//
// Core types are defined in pkg/core. This package re-exports the ones its
// callers need via type aliases.
package state

import (
	"github.com/leapstack-labs/ssot/pkg/core"
)

type (
	// Store is an alias for core.Store.
	Store = core.Store

	// Edit is an alias for core.Edit.
	Edit = core.Edit

	// EditStatus is an alias for core.EditStatus.
	EditStatus = core.EditStatus

	// EditFilter is an alias for core.EditFilter.
	EditFilter = core.EditFilter
)

// Edit status constants.
const (
	EditStatusOK     = core.EditStatusOK
	EditStatusFailed = core.EditStatusFailed
)

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = core.ErrNotFound
