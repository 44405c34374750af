// Command server exposes the HTTP API surface over the Job Store and Ready
// Transport: job submission, status, cancellation, DLQ inspection, and
// runtime scheduling-policy changes.
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

	"github.com/corewave/jobengine/internal/bootstrap"
	"github.com/corewave/jobengine/internal/config"
	"github.com/corewave/jobengine/internal/domain"
	"github.com/corewave/jobengine/internal/httpapi"
	"github.com/corewave/jobengine/internal/httpapi/handler"
	"github.com/corewave/jobengine/internal/store/sqlstore"
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
	cfg, err := config.LoadServerConfig()
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

	for _, jobType := range handlers.Default().JobTypes() {
		domain.KnownJobTypes[jobType] = true
	}

	slog.InfoContext(ctx, "starting jobengine server")

	graceTimeout := 30 * time.Second

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

	scheduler := transportScheduler{transport: tr}
	srv := handler.NewServer(st, tr, scheduler, cfg.WorkerPoolSize, cfg.Pagination.DefaultPageSize, cfg.Pagination.MaxPageSize)
	router := httpapi.NewRouter(srv, httpapi.Config{MaxBodyBytes: cfg.MaxBodyBytes})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: time.Duration(cfg.HTTPReadTimeoutS) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTPWriteTimeoutS) * time.Second,
		IdleTimeout:       time.Duration(cfg.HTTPIdleTimeoutS) * time.Second,
	}

	errResult := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "http server listening", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errResult <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.WarnContext(shutdownCtx, "http server shutdown timed out, forcing close", "error", err)
			httpServer.Close()
		}
		return nil
	case err := <-errResult:
		return err
	}
}

// transportScheduler reports the transport's active policy and queue depth
// directly, since the server process does not run a Scheduler Engine of its
// own; the engine's in-memory policy queue is not visible cross-process.
type transportScheduler struct {
	transport interface {
		GetPolicy(ctx context.Context) (domain.PolicyName, error)
		QueueDepth(ctx context.Context) (int, error)
	}
}

func (s transportScheduler) Status() (domain.PolicyName, int) {
	name, err := s.transport.GetPolicy(context.Background())
	if err != nil {
		name = domain.PolicyFCFS
	}
	depth, err := s.transport.QueueDepth(context.Background())
	if err != nil {
		depth = 0
	}
	return name, depth
}
