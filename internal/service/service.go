package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"reportanalysis/internal/cache"
	"reportanalysis/internal/domain"
	"reportanalysis/internal/metrics"
	"reportanalysis/internal/report"
	"reportanalysis/internal/store"
	"reportanalysis/internal/upstream"
)

var (
	ErrPersistence   = errors.New("report persistence failed")
	ErrInvalidOffset = errors.New("invalid offset hours")
	ErrNoSnapshot    = errors.New("no report snapshot generated yet")
)

const DefaultFetchTimeout = 5 * time.Second

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	FetchTimeout time.Duration
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
	Now          func() time.Time
}

type Service struct {
	repo      store.Repository
	sales     upstream.SalesGateway
	inventory upstream.InventoryGateway
	snapshots cache.SnapshotCache

	fetchTimeout time.Duration
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time

	// runMu queues generation runs; two runs never interleave their
	// replace and publish steps.
	runMu sync.Mutex
	lazy  singleflight.Group
}

func New(repo store.Repository, sales upstream.SalesGateway, inventory upstream.InventoryGateway, snapshots cache.SnapshotCache, opts Options) *Service {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if snapshots == nil {
		snapshots = cache.NewMemorySnapshotCache()
	}

	return &Service{
		repo:         repo,
		sales:        sales,
		inventory:    inventory,
		snapshots:    snapshots,
		fetchTimeout: opts.FetchTimeout,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		now:          opts.Now,
	}
}

func (s *Service) ListReports(ctx context.Context) ([]domain.ReportResponse, error) {
	rows, err := s.repo.ListReports(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ReportResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Response())
	}
	return out, nil
}

// GetReportByItem matches the item name case-insensitively and returns
// store.ErrNotFound on a miss.
func (s *Service) GetReportByItem(ctx context.Context, itemName string) (domain.ReportResponse, error) {
	row, err := s.repo.FindReportByItem(ctx, itemName)
	if err != nil {
		return domain.ReportResponse{}, err
	}
	return row.Response(), nil
}

// GenerateReports recomputes every report row and the bucket snapshot from a
// fresh pull of both feeds. A nil offset means UTC. Gateway failures are
// absorbed; only an invalid offset or a failed store replacement is returned.
func (s *Service) GenerateReports(ctx context.Context, offsetHours *int) (domain.GenerationResult, error) {
	offset := 0
	if offsetHours != nil {
		offset = *offsetHours
	}
	loc, err := report.Zone(offset)
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("%w: %w", ErrInvalidOffset, err)
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	return s.generate(ctx, offset, loc)
}

func (s *Service) generate(ctx context.Context, offset int, loc *time.Location) (domain.GenerationResult, error) {
	started := time.Now()
	runID := uuid.New()
	logger := s.logger.With(zap.String("run_id", runID.String()), zap.Int("offset_hours", offset))
	if actor, ok := ActorFromContext(ctx); ok {
		logger = logger.With(zap.String("requested_by", actor.Subject))
	}
	logger.Info("report generation started")

	var (
		sales     upstream.Outcome[domain.SaleTransaction]
		inventory upstream.Outcome[domain.InventoryItem]
		g         errgroup.Group
	)
	g.Go(func() error {
		sales = upstream.FetchSales(ctx, s.sales, s.fetchTimeout)
		return nil
	})
	g.Go(func() error {
		inventory = upstream.FetchInventory(ctx, s.inventory, s.fetchTimeout)
		return nil
	})
	_ = g.Wait()

	// A cancelled caller is not an upstream outage; leave the published state alone.
	if err := ctx.Err(); err != nil {
		s.metrics.ObserveRun(metrics.OutcomeFailed, time.Since(started))
		logger.Warn("report generation cancelled", zap.Error(err))
		return domain.GenerationResult{}, err
	}

	s.recordFetch(logger, upstream.SalesGatewayName, sales.Err, sales.TimedOut(), len(sales.Items), sales.Elapsed)
	s.recordFetch(logger, upstream.InventoryGatewayName, inventory.Err, inventory.TimedOut(), len(inventory.Items), inventory.Elapsed)

	outcome := metrics.OutcomeSuccess
	var rows []domain.ReportRow
	if len(sales.Items) == 0 && len(inventory.Items) == 0 {
		outcome = metrics.OutcomeEmpty
		rows = []domain.ReportRow{}
		logger.Info("no sales or inventory data available, clearing reports")
	} else {
		rows = report.BuildRows(sales.Items, inventory.Items)
	}

	if err := s.repo.ReplaceReports(ctx, rows); err != nil {
		s.metrics.ObserveRun(metrics.OutcomeFailed, time.Since(started))
		logger.Error("report replacement failed", zap.Error(err))
		return domain.GenerationResult{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.metrics.SetReportRows(len(rows))

	if outcome == metrics.OutcomeEmpty {
		if err := s.snapshots.Clear(ctx); err != nil {
			logger.Warn("snapshot clear failed", zap.Error(err))
		}
		s.metrics.ObserveRun(outcome, time.Since(started))
		return domain.GenerationResult{
			RunID:           runID,
			GeneratedAt:     s.now().UTC(),
			OffsetHours:     offset,
			SalesFailed:     sales.Failed(),
			InventoryFailed: inventory.Failed(),
		}, nil
	}

	generatedAt := s.now()
	snapshot := domain.Snapshot{
		RunID:       runID,
		GeneratedAt: generatedAt.UTC(),
		OffsetHours: offset,
		Weekly:      report.WeeklyBuckets(sales.Items, loc),
		Monthly:     report.MonthlyBuckets(sales.Items, loc, generatedAt),
	}
	if err := s.snapshots.Set(ctx, snapshot); err != nil {
		// Rows are already committed; a stale snapshot is preferable to failing the run.
		logger.Warn("snapshot publish failed", zap.Error(err))
	}

	s.metrics.ObserveRun(outcome, time.Since(started))
	logger.Info("report generation completed",
		zap.Int("report_rows", len(rows)),
		zap.Int("weekly_buckets", len(snapshot.Weekly)),
		zap.Int("monthly_buckets", len(snapshot.Monthly)),
		zap.Duration("elapsed", time.Since(started)),
	)

	return domain.GenerationResult{
		RunID:           runID,
		GeneratedAt:     snapshot.GeneratedAt,
		OffsetHours:     offset,
		ReportRows:      len(rows),
		SalesFetched:    len(sales.Items),
		ItemsFetched:    len(inventory.Items),
		SalesFailed:     sales.Failed(),
		InventoryFailed: inventory.Failed(),
	}, nil
}

func (s *Service) recordFetch(logger *zap.Logger, gateway string, err error, timedOut bool, count int, elapsed time.Duration) {
	switch {
	case timedOut:
		s.metrics.ObserveFetch(gateway, metrics.FetchTimeout, elapsed)
		logger.Warn("upstream fetch timed out", zap.String("gateway", gateway), zap.Duration("elapsed", elapsed))
	case err != nil:
		s.metrics.ObserveFetch(gateway, metrics.FetchError, elapsed)
		logger.Warn("upstream fetch failed", zap.String("gateway", gateway), zap.Error(err))
	default:
		s.metrics.ObserveFetch(gateway, metrics.FetchOK, elapsed)
		logger.Debug("upstream fetch completed", zap.String("gateway", gateway), zap.Int("count", count))
	}
}

func (s *Service) WeeklySales(ctx context.Context) ([]domain.WeeklyBucket, error) {
	snapshot, err := s.currentSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snapshot == nil || len(snapshot.Weekly) == 0 {
		if snapshot, err = s.regenerate(ctx); err != nil {
			return nil, err
		}
	}
	return nonNil(snapshot.Weekly), nil
}

func (s *Service) MonthlySales(ctx context.Context) ([]domain.MonthlyBucket, error) {
	snapshot, err := s.currentSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snapshot == nil || len(snapshot.Monthly) == 0 {
		if snapshot, err = s.regenerate(ctx); err != nil {
			return nil, err
		}
	}
	return nonNil(snapshot.Monthly), nil
}

// Snapshot returns the latest published snapshot without triggering a run.
// It returns ErrNoSnapshot when nothing has been generated yet or the last
// run found both feeds empty.
func (s *Service) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	snapshot, err := s.currentSnapshot(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if snapshot == nil {
		return domain.Snapshot{}, ErrNoSnapshot
	}
	return *snapshot, nil
}

func (s *Service) currentSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	snapshot, ok, err := s.snapshots.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return snapshot, nil
}

// regenerate runs a UTC generation on behalf of a read. Concurrent readers
// share one run.
func (s *Service) regenerate(ctx context.Context) (*domain.Snapshot, error) {
	v, err, _ := s.lazy.Do("lazy", func() (any, error) {
		s.logger.Info("bucket snapshot empty, generating reports")
		zero := 0
		if _, err := s.GenerateReports(context.WithoutCancel(ctx), &zero); err != nil {
			return nil, err
		}
		snapshot, err := s.currentSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		if snapshot == nil {
			return &domain.Snapshot{}, nil
		}
		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Snapshot), nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
