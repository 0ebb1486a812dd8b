// Package main is the entrypoint for the UtilityHub API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/utilityhub/utilityhub/internal/ai"
	"github.com/utilityhub/utilityhub/internal/api"
	"github.com/utilityhub/utilityhub/internal/api/handler"
	mw "github.com/utilityhub/utilityhub/internal/api/middleware"
	"github.com/utilityhub/utilityhub/internal/apps"
	"github.com/utilityhub/utilityhub/internal/blob"
	"github.com/utilityhub/utilityhub/internal/cache"
	"github.com/utilityhub/utilityhub/internal/config"
	"github.com/utilityhub/utilityhub/internal/runner"
	"github.com/utilityhub/utilityhub/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create blob store
	blobs, err := blob.NewMinioStore(ctx, cfg.Blob)
	if err != nil {
		return fmt.Errorf("create blob store: %w", err)
	}
	slog.Info("blob store connected", "bucket", cfg.Blob.Bucket)

	// 6. Create AI provider
	aiProvider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "provider", aiProvider.Name())

	// 7. Assemble services
	pgStore := store.NewPostgresStore(pool)
	registry := apps.DefaultRegistry()
	batchRunner := runner.New(pgStore, blobs, registry, redisCache, slog.Default())
	explainSvc := ai.NewExplainService(aiProvider, pgStore, redisCache, cfg.AI)

	// 8. Build router with dependencies
	auth := mw.NewAuth(pgStore)
	rateLimit := mw.NewRateLimit(redisCache, 60)

	deps := api.Dependencies{
		Auth:      auth,
		RateLimit: rateLimit,

		HealthHandler: handler.NewHealthHandler(pgStore, redisCache, blobs),

		ListAppsHandler: handler.NewListAppsHandler(registry),

		UploadFileHandler:   handler.NewUploadFileHandler(pgStore, blobs, cfg.Upload.MaxBytes),
		GetFileHandler:      handler.NewGetFileHandler(pgStore),
		DownloadFileHandler: handler.NewDownloadFileHandler(pgStore, blobs),

		CreateJobHandler: handler.NewCreateJobHandler(pgStore, redisCache, registry),
		GetJobHandler:    handler.NewGetJobHandler(pgStore, redisCache),
		ListJobsHandler:  handler.NewListJobsHandler(pgStore),

		RunBatchHandler: handler.NewRunBatchHandler(batchRunner),
		ExplainHandler:  handler.NewExplainHandler(explainSvc),

		CreateKeyHandler: handler.NewCreateKeyHandler(pgStore),
		ListKeysHandler:  handler.NewListKeysHandler(pgStore),
		RevokeKeyHandler: handler.NewRevokeKeyHandler(pgStore),
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
