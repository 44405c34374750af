// Command engine runs the Scheduler Engine (E): the tick loop that drains
// PENDING jobs into a policy and dispatches them onto the Ready Transport.
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
	"github.com/corewave/jobengine/internal/engine"
	"github.com/corewave/jobengine/internal/store/sqlstore"
	"github.com/corewave/jobengine/pkg/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadEngineConfig()
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

	slog.InfoContext(ctx, "starting jobengine engine")

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

	e := engine.New(st, tr, domain.PolicyName(cfg.DefaultPolicy),
		engine.WithTickInterval(time.Duration(cfg.TickMS)*time.Millisecond),
	)

	errResult := make(chan error, 1)
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := e.Run(ctx); err != nil && ctx.Err() == nil {
			errResult <- fmt.Errorf("engine run failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutting down")
		<-runDone
		return nil
	case err := <-errResult:
		return err
	}
}
