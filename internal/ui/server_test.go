package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/leapstack-labs/ssot/internal/cache"
	"github.com/leapstack-labs/ssot/internal/testutil"
	"github.com/leapstack-labs/ssot/internal/ui/notifier"
	"github.com/leapstack-labs/ssot/pkg/core"
)

// fakeSource serves fixture rows from whichever endpoint table it was last
// given. Endpoints ending in "/down" fail.
type fakeSource struct {
	mu        sync.Mutex
	endpoints map[core.DatasetID]string
	sets      int
}

func (f *fakeSource) Fetch(_ context.Context, id core.DatasetID) (*core.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if filepath.Base(f.endpoints[id]) == "down" {
		return nil, assert.AnError
	}
	rows := testutil.SampleRows(id)
	if f.sets > 0 {
		rows = rows[:1]
	}
	return core.NewDataset(id, rows, nil), nil
}

func (f *fakeSource) Update(context.Context, core.DatasetID, core.EditAction, core.Row) error {
	return nil
}

func (f *fakeSource) SetEndpoints(endpoints map[core.DatasetID]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endpoints = endpoints
	f.sets++
}

func (f *fakeSource) setCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

func newTestServer(t *testing.T, cfg Config) (*Server, *fakeSource) {
	t.Helper()
	src := &fakeSource{endpoints: map[core.DatasetID]string{}}
	notify := notifier.New()
	cfg.Source = src
	cfg.Notifier = notify
	cfg.Cache = cache.New(cache.Config{
		Fetcher:  src,
		OnChange: func(id core.DatasetID) { notify.Broadcast(id) },
	})
	cfg.SessionSecret = "test-secret"
	cfg.Logger = testutil.NewTestLogger(t)
	return NewServer(cfg), src
}

func TestHandler_Routes(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	h, err := s.Handler()
	require.NoError(t, err)

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/", http.StatusOK, "SSOT"},
		{"/table?tab=media-plan", http.StatusOK, "Media Plan"},
		{"/table?tab=nope", http.StatusNotFound, ""},
		{"/history", http.StatusOK, "not available without a state database"},
		{"/static/ssot.css", http.StatusOK, ""},
		{"/missing", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, rec.Code)
			if tt.body != "" {
				assert.Contains(t, rec.Body.String(), tt.body)
			}
		})
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s, _ := newTestServer(t, Config{Port: 0})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestApplyConfig_RefetchesEverything(t *testing.T) {
	var reloads int
	s, src := newTestServer(t, Config{
		Reload: func() (map[core.DatasetID]string, error) {
			reloads++
			return map[core.DatasetID]string{
				core.RadiaPlan: "http://next/radia",
				core.MediaPlan: "http://next/down",
			}, nil
		},
	})
	ctx := context.Background()

	ds, err := s.cache.Get(ctx, core.RadiaPlan)
	require.NoError(t, err)
	require.Equal(t, 4, ds.Len())

	sub := s.Notifier().Subscribe()
	defer s.Notifier().Unsubscribe(sub)

	s.applyConfig(ctx)

	assert.Equal(t, 1, reloads)
	assert.Equal(t, 1, src.setCount())

	entry := s.cache.Peek(core.RadiaPlan)
	require.Equal(t, cache.Ready, entry.Status)
	assert.Equal(t, 1, entry.Dataset.Len(), "radia plan was fetched again")
	assert.Equal(t, cache.Failed, s.cache.Peek(core.MediaPlan).Status)

	got := map[core.DatasetID]bool{}
	for len(sub) > 0 {
		got[<-sub] = true
	}
	assert.True(t, got[core.RadiaPlan], "successful refetch is announced")
	assert.True(t, got[core.MediaPlan], "failed refetch is announced")
}

func TestApplyConfig_ReloadError(t *testing.T) {
	s, src := newTestServer(t, Config{
		Reload: func() (map[core.DatasetID]string, error) {
			return nil, assert.AnError
		},
	})
	ctx := context.Background()
	_, err := s.cache.Get(ctx, core.RadiaPlan)
	require.NoError(t, err)

	s.applyConfig(ctx)

	assert.Zero(t, src.setCount())
	assert.Equal(t, cache.Ready, s.cache.Peek(core.RadiaPlan).Status, "cache is kept when the config is invalid")
}

func TestWatchConfig_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ssot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: http://a\n"), 0600))

	s, src := newTestServer(t, Config{
		Watch:      true,
		ConfigFile: path,
		Reload: func() (map[core.DatasetID]string, error) {
			return map[core.DatasetID]string{core.RadiaPlan: "http://b/radia"}, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.watchConfig(ctx) }()

	// unrelated files in the directory are ignored
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600)
		return src.setCount() == 0
	}, time.Second, 50*time.Millisecond)

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("base_url: http://b\n"), 0600)
		return src.setCount() > 0
	}, 5*time.Second, 200*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
