package cache

import (
	"context"
	"sync/atomic"

	"reportanalysis/internal/domain"
)

// SnapshotCache holds the most recent bucket snapshot. Set replaces it
// wholesale.
type SnapshotCache interface {
	Get(ctx context.Context) (*domain.Snapshot, bool, error)
	Set(ctx context.Context, snapshot domain.Snapshot) error
	Clear(ctx context.Context) error
}

type MemorySnapshotCache struct {
	current atomic.Pointer[domain.Snapshot]
}

func NewMemorySnapshotCache() *MemorySnapshotCache {
	return &MemorySnapshotCache{}
}

func (c *MemorySnapshotCache) Get(_ context.Context) (*domain.Snapshot, bool, error) {
	snapshot := c.current.Load()
	if snapshot == nil {
		return nil, false, nil
	}
	clone := snapshot.Clone()
	return &clone, true, nil
}

func (c *MemorySnapshotCache) Set(_ context.Context, snapshot domain.Snapshot) error {
	clone := snapshot.Clone()
	c.current.Store(&clone)
	return nil
}

func (c *MemorySnapshotCache) Clear(_ context.Context) error {
	c.current.Store(nil)
	return nil
}
