// Command worker runs a Worker Pool (W): a fixed number of goroutines that
// pop ready job ids, dispatch them to registered handlers, and report
// outcomes back to the Job Store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corewave/jobengine/internal/bootstrap"
	"github.com/corewave/jobengine/internal/config"
	"github.com/corewave/jobengine/internal/domain"
	"github.com/corewave/jobengine/internal/store/sqlstore"
	"github.com/corewave/jobengine/internal/worker"
	"github.com/corewave/jobengine/internal/worker/handlers"
	"github.com/corewave/jobengine/pkg/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	obs, err := observability.Init(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("failed to init observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "failed to shutdown observability providers", "error", err)
		}
	}()
	slog.SetDefault(obs.Logger)

	registry := handlers.Default()
	for _, jobType := range registry.JobTypes() {
		domain.KnownJobTypes[jobType] = true
	}

	slog.InfoContext(ctx, "starting jobengine worker", "registered_job_types", registry.JobTypes())

	graceTimeout := time.Duration(cfg.StartupGraceS) * time.Second

	var st *sqlstore.Store
	if err := bootstrap.Connect(ctx, "job store", graceTimeout, func(ctx context.Context) error {
		s, err := bootstrap.OpenStore(ctx, cfg.StoreURL, cfg.StoragePool)
		if err != nil {
			return err
		}
		st = s
		return nil
	}); err != nil {
		return err
	}
	defer st.Close()
	slog.InfoContext(ctx, "store connected", "url", bootstrap.MaskPassword(cfg.StoreURL))

	tr, err := bootstrap.OpenTransport(cfg.TransportURL, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to construct transport: %w", err)
	}
	defer tr.Close()
	if err := bootstrap.Connect(ctx, "ready transport", graceTimeout, tr.Ping); err != nil {
		return err
	}
	slog.InfoContext(ctx, "transport connected")

	pool := worker.New(st, tr, registry,
		worker.WithPoolSize(cfg.PoolSize),
		worker.WithPopTimeout(time.Duration(cfg.PopTimeoutS)*time.Second),
	)

	slog.InfoContext(ctx, "worker pool started", "pool_size", cfg.PoolSize)

	if err := pool.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("worker pool run failed: %w", err)
	}

	slog.InfoContext(ctx, "shutting down")
	return nil
}
