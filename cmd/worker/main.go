// Package main is the entrypoint for the UtilityHub job worker.
//
// The worker polls the queue on a fixed interval and drains up to the
// configured batch limit per tick. Multiple workers can run against the
// same database; the claim step guarantees each job runs at most once.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/utilityhub/utilityhub/internal/apps"
	"github.com/utilityhub/utilityhub/internal/blob"
	"github.com/utilityhub/utilityhub/internal/cache"
	"github.com/utilityhub/utilityhub/internal/config"
	"github.com/utilityhub/utilityhub/internal/runner"
	"github.com/utilityhub/utilityhub/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "batch_limit", cfg.Worker.BatchLimit, "interval", cfg.Worker.Interval.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database (the server owns migrations)
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Create blob store
	blobs, err := blob.NewMinioStore(ctx, cfg.Blob)
	if err != nil {
		return fmt.Errorf("create blob store: %w", err)
	}
	slog.Info("blob store connected", "bucket", cfg.Blob.Bucket)

	// 4. Create cache so terminal writes can invalidate cached job rows
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	defer redisCache.Close()
	slog.Info("cache connected")

	// 5. Assemble the runner
	pgStore := store.NewPostgresStore(pool)
	registry := apps.DefaultRegistry()
	batchRunner := runner.New(pgStore, blobs, registry, redisCache, slog.Default())

	// 6. Poll loop
	ticker := time.NewTicker(cfg.Worker.Interval)
	defer ticker.Stop()

	slog.Info("worker started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, worker stopping")
			return nil
		case <-ticker.C:
			drainOnce(ctx, batchRunner, cfg.Worker.BatchLimit)
		}
	}
}

// drainOnce runs a single batch and logs the outcomes. Batch errors are
// logged rather than fatal so a transient database failure does not kill
// the worker.
func drainOnce(ctx context.Context, r *runner.Runner, limit int) {
	outcomes, err := r.RunBatch(ctx, limit)
	if err != nil {
		slog.Error("batch aborted", "error", err, "completed", len(outcomes))
		return
	}
	if len(outcomes) == 0 {
		return
	}
	for _, o := range outcomes {
		slog.Info("job finished", "job_id", o.JobID, "status", o.Status)
	}
}
