// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ssot/internal/cache"
	"github.com/leapstack-labs/ssot/internal/source"
	"github.com/leapstack-labs/ssot/internal/state"
	"github.com/leapstack-labs/ssot/internal/testutil"
	"github.com/leapstack-labs/ssot/internal/ui/features/common"
	"github.com/leapstack-labs/ssot/internal/ui/notifier"
	"github.com/leapstack-labs/ssot/internal/ui/session"
	"github.com/leapstack-labs/ssot/pkg/core"
)

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Backend *testutil.Backend
	Store   *state.SQLiteStore
	Deps    *common.Deps
}

// SetupTestFixture wires handlers to a fake backend and an in-memory store.
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)
	backend := testutil.NewBackend(t)

	store, err := state.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	client := source.New(source.Config{
		Endpoints: backend.Endpoints(),
		Timeout:   5 * time.Second,
		Logger:    logger,
	})
	notify := notifier.New()
	data := cache.New(cache.Config{
		Fetcher:  client,
		Store:    store,
		Mirror:   []core.DatasetID{core.RadiaPlan},
		OnChange: func(id core.DatasetID) { notify.Broadcast(id) },
		Logger:   logger,
	})

	return &TestFixture{
		Backend: backend,
		Store:   store,
		Deps: &common.Deps{
			Cache:     data,
			Source:    client,
			Store:     store,
			Notifier:  notify,
			Sessions:  NewTestSessionStore(),
			Registry:  session.NewRegistry(),
			Audiences: core.DefaultAudiences(),
			PageSize:  50,
			Logger:    logger,
		},
	}
}

// Warm fetches a dataset into the fixture's cache.
func (f *TestFixture) Warm(t *testing.T, id core.DatasetID) *core.Dataset {
	t.Helper()
	ds, err := f.Deps.Cache.Get(context.Background(), id)
	require.NoError(t, err)
	return ds
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// WithCookies copies the cookies set by a previous response onto r.
func WithCookies(r *http.Request, from http.Header) *http.Request {
	resp := http.Response{Header: from}
	for _, c := range resp.Cookies() {
		r.AddCookie(c)
	}
	return r
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
