// Package cache owns the fetched datasets of a process. Each dataset is
// fetched at most once until it is explicitly reloaded or invalidated, and
// a failed fetch stays failed until someone asks again.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/leapstack-labs/ssot/pkg/core"
)

// Status is the observable state of one dataset.
type Status int

// Dataset states.
const (
	Idle Status = iota
	Pending
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Fetcher loads a dataset from its source.
type Fetcher interface {
	Fetch(ctx context.Context, id core.DatasetID) (*core.Dataset, error)
}

// SnapshotStore persists mirrored datasets.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, ds *core.Dataset) error
	LoadSnapshot(ctx context.Context, id core.DatasetID) (*core.Dataset, error)
}

// Entry is a point-in-time view of one dataset.
type Entry struct {
	Status    Status
	Dataset   *core.Dataset
	Err       error
	UpdatedAt time.Time
}

// Config configures a Cache.
type Config struct {
	Fetcher Fetcher
	// Store receives a copy of every mirrored dataset. Optional.
	Store SnapshotStore
	// Mirror lists the datasets written to Store after each fetch.
	Mirror []core.DatasetID
	// OnChange runs after a dataset was (re)loaded successfully.
	OnChange func(id core.DatasetID)
	Logger   *slog.Logger
}

type entry struct {
	Entry
	gen uint64
}

// Cache holds one entry per dataset.
type Cache struct {
	fetcher  Fetcher
	store    SnapshotStore
	mirror   map[core.DatasetID]bool
	onChange func(core.DatasetID)
	logger   *slog.Logger

	mu      sync.Mutex
	entries map[core.DatasetID]*entry
	group   singleflight.Group
}

// New creates an empty cache.
func New(cfg Config) *Cache {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	mirror := make(map[core.DatasetID]bool, len(cfg.Mirror))
	for _, id := range cfg.Mirror {
		mirror[id] = true
	}
	return &Cache{
		fetcher:  cfg.Fetcher,
		store:    cfg.Store,
		mirror:   mirror,
		onChange: cfg.OnChange,
		logger:   logger,
		entries:  make(map[core.DatasetID]*entry),
	}
}

func (c *Cache) entryLocked(id core.DatasetID) *entry {
	e, ok := c.entries[id]
	if !ok {
		e = &entry{}
		c.entries[id] = e
	}
	return e
}

// Get returns the dataset, fetching it when nothing is cached yet.
// Concurrent callers share one fetch. A failed dataset returns its stored
// error without fetching again; use Reload to retry.
func (c *Cache) Get(ctx context.Context, id core.DatasetID) (*core.Dataset, error) {
	c.mu.Lock()
	e := c.entryLocked(id)
	switch e.Status {
	case Ready:
		ds := e.Dataset
		c.mu.Unlock()
		return ds, nil
	case Failed:
		err := e.Err
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()
	return c.load(ctx, id)
}

// Reload fetches the dataset again regardless of its state. On failure the
// previous data is dropped.
func (c *Cache) Reload(ctx context.Context, id core.DatasetID) (*core.Dataset, error) {
	c.mu.Lock()
	e := c.entryLocked(id)
	e.gen++
	e.Status = Idle
	c.mu.Unlock()

	c.group.Forget(string(id))
	return c.load(ctx, id)
}

func (c *Cache) load(ctx context.Context, id core.DatasetID) (*core.Dataset, error) {
	v, err, _ := c.group.Do(string(id), func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx), id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.Dataset), nil
}

func (c *Cache) fetch(ctx context.Context, id core.DatasetID) (*core.Dataset, error) {
	if c.fetcher == nil {
		return nil, errors.New("cache has no fetcher")
	}

	c.mu.Lock()
	e := c.entryLocked(id)
	if e.Status == Ready {
		// another flight finished between the caller's check and this one
		ds := e.Dataset
		c.mu.Unlock()
		return ds, nil
	}
	gen := e.gen
	e.Status = Pending
	e.Err = nil
	c.mu.Unlock()

	start := time.Now()
	ds, err := c.fetcher.Fetch(ctx, id)

	c.mu.Lock()
	stale := e.gen != gen
	if !stale {
		e.UpdatedAt = time.Now()
		if err != nil {
			e.Status = Failed
			e.Dataset = nil
			e.Err = err
		} else {
			e.Status = Ready
			e.Dataset = ds
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("dataset fetch failed", "dataset", id, "error", err)
		return nil, err
	}
	c.logger.Debug("dataset cached", "dataset", id, "rows", ds.Len(), "duration", time.Since(start), "stale", stale)

	if !stale {
		c.mirrorDataset(ctx, ds)
		if c.onChange != nil {
			c.onChange(id)
		}
	}
	return ds, nil
}

func (c *Cache) mirrorDataset(ctx context.Context, ds *core.Dataset) {
	if c.store == nil || !c.mirror[ds.ID] {
		return
	}
	if err := c.store.SaveSnapshot(ctx, ds); err != nil {
		c.logger.Warn("failed to mirror dataset", "dataset", ds.ID, "error", err)
	}
}

// Warm seeds mirrored datasets from the store. Datasets that are already
// loaded or have no snapshot are skipped. It returns how many were seeded.
func (c *Cache) Warm(ctx context.Context) (int, error) {
	if c.store == nil {
		return 0, nil
	}
	var (
		n    int
		errs []error
	)
	for id := range c.mirror {
		ds, err := c.store.LoadSnapshot(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("warm %s: %w", id, err))
			continue
		}

		c.mu.Lock()
		e := c.entryLocked(id)
		seeded := e.Status == Idle
		if seeded {
			e.Status = Ready
			e.Dataset = ds
			e.UpdatedAt = ds.FetchedAt
		}
		c.mu.Unlock()

		if seeded {
			n++
			c.logger.Debug("dataset warmed from snapshot", "dataset", id, "rows", ds.Len())
		}
	}
	return n, errors.Join(errs...)
}

// Invalidate forgets a dataset so the next Get fetches it.
func (c *Cache) Invalidate(id core.DatasetID) {
	c.mu.Lock()
	if e, ok := c.entries[id]; ok {
		e.gen++
		e.Entry = Entry{}
	}
	c.mu.Unlock()
	c.group.Forget(string(id))
}

// InvalidateAll forgets every dataset.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	ids := make([]core.DatasetID, 0, len(c.entries))
	for id, e := range c.entries {
		e.gen++
		e.Entry = Entry{}
		ids = append(ids, id)
	}
	c.mu.Unlock()
	for _, id := range ids {
		c.group.Forget(string(id))
	}
}

// Peek reports the state of a dataset without any I/O.
func (c *Cache) Peek(id core.DatasetID) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		return e.Entry
	}
	return Entry{}
}
