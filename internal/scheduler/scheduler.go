// Package scheduler triggers report generation on a fixed interval.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"reportanalysis/internal/domain"
	"reportanalysis/internal/service"
)

type Generator interface {
	GenerateReports(ctx context.Context, offsetHours *int) (domain.GenerationResult, error)
}

type Config struct {
	Interval    time.Duration
	OffsetHours int
	RunOnStart  bool
}

type Scheduler struct {
	gen    Generator
	cfg    Config
	logger *zap.Logger
}

func New(gen Generator, cfg Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{gen: gen, cfg: cfg, logger: logger}
}

func (s *Scheduler) Enabled() bool {
	return s.cfg.Interval > 0
}

// Run blocks until ctx is done. Failed runs are logged and the next tick
// proceeds as usual.
func (s *Scheduler) Run(ctx context.Context) {
	if !s.Enabled() {
		if s.cfg.RunOnStart {
			s.runOnce(ctx)
		}
		return
	}

	s.logger.Info("report scheduler started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("offset_hours", s.cfg.OffsetHours),
	)
	if s.cfg.RunOnStart {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("report scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	offset := s.cfg.OffsetHours
	runCtx := service.WithActor(ctx, domain.Actor{Subject: "scheduler", Role: "system"})

	result, err := s.gen.GenerateReports(runCtx, &offset)
	if err != nil {
		if ctx.Err() != nil {
			s.logger.Info("scheduled report generation abandoned on shutdown", zap.Error(err))
			return
		}
		s.logger.Error("scheduled report generation failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled report generation finished",
		zap.String("run_id", result.RunID.String()),
		zap.Int("report_rows", result.ReportRows),
	)
}
