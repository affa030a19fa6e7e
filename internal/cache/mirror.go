package cache

import (
	"context"

	"go.uber.org/zap"

	"reportanalysis/internal/domain"
)

// Mirrored serves reads from the primary cache and copies writes to a
// secondary one. Secondary failures are logged and never surface. A cold
// primary is warmed from the secondary, so a snapshot survives a restart.
type Mirrored struct {
	primary   SnapshotCache
	secondary SnapshotCache
	logger    *zap.Logger
}

func NewMirrored(primary, secondary SnapshotCache, logger *zap.Logger) *Mirrored {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirrored{primary: primary, secondary: secondary, logger: logger}
}

func (m *Mirrored) Get(ctx context.Context) (*domain.Snapshot, bool, error) {
	snapshot, ok, err := m.primary.Get(ctx)
	if err != nil || ok {
		return snapshot, ok, err
	}

	snapshot, ok, err = m.secondary.Get(ctx)
	if err != nil {
		m.logger.Warn("snapshot mirror read failed", zap.Error(err))
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}
	if err := m.primary.Set(ctx, *snapshot); err != nil {
		return nil, false, err
	}
	return snapshot, true, nil
}

func (m *Mirrored) Set(ctx context.Context, snapshot domain.Snapshot) error {
	if err := m.primary.Set(ctx, snapshot); err != nil {
		return err
	}
	if err := m.secondary.Set(ctx, snapshot); err != nil {
		m.logger.Warn("snapshot mirror write failed", zap.String("run_id", snapshot.RunID.String()), zap.Error(err))
	}
	return nil
}

func (m *Mirrored) Clear(ctx context.Context) error {
	if err := m.primary.Clear(ctx); err != nil {
		return err
	}
	if err := m.secondary.Clear(ctx); err != nil {
		m.logger.Warn("snapshot mirror clear failed", zap.Error(err))
	}
	return nil
}
