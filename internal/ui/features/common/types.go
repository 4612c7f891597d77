// Package common provides shared types and utilities for UI features.
package common

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/ssot/internal/cache"
	"github.com/leapstack-labs/ssot/internal/source"
	"github.com/leapstack-labs/ssot/internal/ui/notifier"
	"github.com/leapstack-labs/ssot/internal/ui/session"
	"github.com/leapstack-labs/ssot/pkg/core"
)

// Updater sends an edited row back to its backend.
type Updater interface {
	Update(ctx context.Context, id core.DatasetID, action core.EditAction, row core.Row) error
}

// Deps is everything the feature handlers share.
type Deps struct {
	Cache    *cache.Cache
	Source   Updater
	Store    core.Store
	Notifier *notifier.Notifier
	Sessions sessions.Store
	Registry *session.Registry
	// Catalog resolves a dataset description, including configured
	// column overrides. Defaults to core.Spec.
	Catalog   func(core.DatasetID) (core.DatasetSpec, bool)
	Audiences []string
	PageSize  int
	Logger    *slog.Logger
	Dev       bool
}

// Spec looks up a dataset description.
func (d *Deps) Spec(id core.DatasetID) (core.DatasetSpec, bool) {
	if d.Catalog != nil {
		return d.Catalog(id)
	}
	return core.Spec(id)
}

// Log returns the configured logger or a discarding one.
func (d *Deps) Log() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

// ErrorText turns a fetch or update failure into the message shown to
// users.
func ErrorText(err error) string {
	var fe *source.FetchError
	if errors.As(err, &fe) {
		return fe.Message
	}
	var ue *source.UpdateError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return err.Error()
}
