package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/ssot/pkg/core"
)

// StoreFetcher serves datasets from mirrored snapshots instead of the
// network. It backs the --offline mode of the CLI.
type StoreFetcher struct {
	Store SnapshotStore
}

// Fetch loads the snapshot of id.
func (f StoreFetcher) Fetch(ctx context.Context, id core.DatasetID) (*core.Dataset, error) {
	ds, err := f.Store.LoadSnapshot(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("no offline snapshot of %s; run once online with %s in cache.mirror", id, id)
	}
	if err != nil {
		return nil, err
	}
	return ds, nil
}
