package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"reportanalysis/internal/cache"
	"reportanalysis/internal/config"
	"reportanalysis/internal/httpapi"
	"reportanalysis/internal/logger"
	"reportanalysis/internal/metrics"
	"reportanalysis/internal/report"
	"reportanalysis/internal/scheduler"
	"reportanalysis/internal/service"
	"reportanalysis/internal/store"
	"reportanalysis/internal/store/memory"
	pgstore "reportanalysis/internal/store/postgres"
	"reportanalysis/internal/upstream"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.ForEnvironment(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := validateConfig(cfg); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			if err := pgstore.Migrate(cfg.DatabaseURL, log.Named("migrate")); err != nil {
				log.Fatal("database migration failed", zap.Error(err))
			}
		}
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback", zap.Error(err))
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Info("repository: postgres")
	} else {
		repo = memory.New()
		log.Info("repository: in-memory")
	}

	snapshots := cache.SnapshotCache(cache.NewMemorySnapshotCache())
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSnapshotCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SnapshotTTL())
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn("redis unavailable, snapshot kept in memory only", zap.Error(err))
			_ = redisCache.Close()
		} else {
			snapshots = cache.NewMirrored(snapshots, redisCache, log.Named("cache"))
			closers = append(closers, redisCache.Close)
			log.Info("snapshot cache: memory + redis mirror")
		}
	} else {
		log.Info("snapshot cache: memory")
	}

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout() + time.Second}
	m := metrics.New()
	svc := service.New(
		repo,
		upstream.NewPOSClient(cfg.POSBaseURL, httpClient),
		upstream.NewInventoryClient(cfg.InventoryBaseURL, httpClient),
		snapshots,
		service.Options{
			FetchTimeout: cfg.UpstreamTimeout(),
			Metrics:      m,
			Logger:       log.Named("service"),
		},
	)
	api := httpapi.New(svc, httpapi.NewTokenVerifier(cfg.AuthSecret), m, cfg.AllowedOrigin, log.Named("httpapi"))

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	runCtx, stopRuns := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	sched := scheduler.New(svc, scheduler.Config{
		Interval:    cfg.ReportInterval(),
		OffsetHours: cfg.ReportScheduleOffsetHours,
		RunOnStart:  cfg.ReportRunOnStart,
	}, log.Named("scheduler"))
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(runCtx)
	}()

	go func() {
		log.Info("report analysis service listening", zap.String("addr", cfg.Address()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}
	stopRuns()
	wg.Wait()

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Warn("close error", zap.Error(err))
		}
	}

	log.Info("server stopped")
}

func validateConfig(cfg config.Config) error {
	if cfg.AuthSecret != "" && len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be at least 32 characters when set")
	}
	if err := validateBaseURL("POS_BASE_URL", cfg.POSBaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("INVENTORY_BASE_URL", cfg.InventoryBaseURL); err != nil {
		return err
	}
	if _, err := report.Zone(cfg.ReportScheduleOffsetHours); err != nil {
		return fmt.Errorf("REPORT_SCHEDULE_OFFSET_HOURS: %w", err)
	}
	return nil
}

func validateBaseURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", key, u.Scheme)
	}
	return nil
}
