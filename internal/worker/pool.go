// Package worker implements the Worker Pool (W): a fixed set of concurrent
// executors that pop ready job ids from the transport, dispatch to the
// registered handler, and drive the RUNNING -> {COMPLETED, RETRIED->PENDING,
// FAILED->DLQ} transitions.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/corewave/jobengine/internal/domain"
	"github.com/corewave/jobengine/internal/store"
	"github.com/corewave/jobengine/internal/transport"
)

// Option configures a Pool.
type Option func(*Pool)

// WithPoolSize sets the number of concurrent executors. Default 4.
func WithPoolSize(k int) Option {
	return func(p *Pool) { p.size = k }
}

// WithPopTimeout sets how long each executor blocks waiting for a ready id
// before looping. Default 5s.
func WithPopTimeout(d time.Duration) Option {
	return func(p *Pool) { p.popTimeout = d }
}

// Pool is the Worker Pool (W).
type Pool struct {
	store     store.Store
	transport transport.Transport
	registry  Registry

	size       int
	popTimeout time.Duration

	wg sync.WaitGroup
}

// New constructs a Pool. registry must be populated before Run is called.
func New(s store.Store, t transport.Transport, registry Registry, opts ...Option) *Pool {
	p := &Pool{
		store:      s,
		transport:  t,
		registry:   registry,
		size:       4,
		popTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run starts size executors and blocks until ctx is cancelled, then waits
// for in-flight executions to finish before returning.
func (p *Pool) Run(ctx context.Context) error {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		workerID := fmt.Sprintf("worker-%d", i)
		go func() {
			defer p.wg.Done()
			p.executorLoop(ctx, workerID)
		}()
	}
	<-ctx.Done()
	p.wg.Wait()
	return ctx.Err()
}

func (p *Pool) executorLoop(ctx context.Context, workerID string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := p.ProcessOne(ctx, workerID); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			slog.ErrorContext(ctx, "worker: process one failed", "worker_id", workerID, "error", err)
		}
	}
}

// ProcessOne pops one id and fully processes it: SCHEDULED->RUNNING, handler
// dispatch, then the terminal or retry transition. Exported for tests and
// RunProcessOnce-style single-step driving.
func (p *Pool) ProcessOne(ctx context.Context, workerID string) error {
	id, ok, err := p.transport.Pop(ctx, p.popTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return nil // timeout, nothing to do
	}

	now := time.Now().UTC()
	job, err := p.store.Transition(ctx, id, domain.StatusScheduled, domain.StatusRunning, store.Patch{StartedAt: &now})
	if err != nil {
		if domain.IsTransient(err) {
			return fmt.Errorf("worker: transition to RUNNING failed: %w", err)
		}
		// Conflict/NotFound: the job was canceled, or another worker's
		// retry already moved it on. This is the cancellation protocol
		// (SPEC_FULL.md §5): discard and continue.
		slog.WarnContext(ctx, "worker: job no longer SCHEDULED, discarding", "job_id", id, "worker_id", workerID, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "worker: claimed job", "job_id", job.ID, "job_type", job.JobType, "worker_id", workerID)

	result, handlerErr := p.executeWithRecovery(ctx, job)
	if handlerErr == nil {
		return p.complete(ctx, job, result)
	}
	return p.handleFailure(ctx, job, handlerErr)
}

// executeWithRecovery dispatches to the registered handler, converting a
// panic into a domain.PanicError the way the teacher's
// generation_worker.go does.
func (p *Pool) executeWithRecovery(ctx context.Context, job *domain.Job) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())
			slog.ErrorContext(ctx, "worker: handler panicked", "job_id", job.ID, "panic", r)
			err = domain.PanicError{Value: r, StackTrace: stack}
		}
	}()

	handler, ok := p.registry.Lookup(job.JobType)
	if !ok {
		// Defense-in-depth: Store.Create already rejects unknown job
		// types (SPEC_FULL.md §4.5's "unknown handler invariant").
		return nil, domain.HandlerFailure{JobType: job.JobType, Err: fmt.Errorf("no handler registered for job_type %q", job.JobType), Retryable: false}
	}
	return handler(ctx, job.Payload)
}

func (p *Pool) complete(ctx context.Context, job *domain.Job, result map[string]any) error {
	now := time.Now().UTC()
	_, err := p.store.Transition(ctx, job.ID, domain.StatusRunning, domain.StatusCompleted, store.Patch{
		FinishedAt: &now,
		Result:     result,
	})
	if err != nil {
		return fmt.Errorf("worker: transition to COMPLETED failed: %w", err)
	}
	slog.InfoContext(ctx, "worker: job completed", "job_id", job.ID)
	return nil
}

// handleFailure routes a handler error to either an immediate-requeue retry
// or a terminal FAILED+DLQ transition, per SPEC_FULL.md §4.5. Panics and
// unknown-handler dispatch are never retried.
func (p *Pool) handleFailure(ctx context.Context, job *domain.Job, failErr error) error {
	retryable := true
	if domain.IsPanic(failErr) {
		retryable = false
	}
	if hf, ok := domain.IsHandlerFailure(failErr); ok {
		retryable = hf.Retryable
		if hf.Err != nil {
			// Record the handler's own message, not the job-type-prefixed wrapper.
			failErr = hf.Err
		}
	}

	if retryable && job.RetryCount+1 <= job.MaxRetries {
		return p.retry(ctx, job, failErr)
	}
	return p.fail(ctx, job, failErr)
}

// retry moves the job RUNNING->RETRIED->PENDING with no scheduled delay
// (SPEC_FULL.md §9): retry accounting lives entirely in retry_count.
func (p *Pool) retry(ctx context.Context, job *domain.Job, failErr error) error {
	errMsg := failErr.Error()
	newRetryCount := job.RetryCount + 1

	_, err := p.store.Transition(ctx, job.ID, domain.StatusRunning, domain.StatusRetried, store.Patch{
		Error:      &errMsg,
		RetryCount: &newRetryCount,
	})
	if err != nil {
		return fmt.Errorf("worker: transition to RETRIED failed: %w", err)
	}

	_, err = p.store.Transition(ctx, job.ID, domain.StatusRetried, domain.StatusPending, store.Patch{})
	if err != nil {
		return fmt.Errorf("worker: transition RETRIED to PENDING failed: %w", err)
	}

	slog.InfoContext(ctx, "worker: job scheduled for retry", "job_id", job.ID, "retry_count", newRetryCount, "error", errMsg)
	return nil
}

// fail moves the job RUNNING->FAILED and appends a DLQ entry.
func (p *Pool) fail(ctx context.Context, job *domain.Job, failErr error) error {
	now := time.Now().UTC()
	errMsg := failErr.Error()

	_, err := p.store.Transition(ctx, job.ID, domain.StatusRunning, domain.StatusFailed, store.Patch{
		FinishedAt: &now,
		Error:      &errMsg,
	})
	if err != nil {
		return fmt.Errorf("worker: transition to FAILED failed: %w", err)
	}

	if dlqErr := p.transport.AppendDLQ(ctx, domain.DLQEntry{
		JobID:      job.ID,
		Error:      errMsg,
		RetryCount: job.RetryCount,
		EnqueuedAt: now,
	}); dlqErr != nil {
		slog.ErrorContext(ctx, "worker: failed to append DLQ entry", "job_id", job.ID, "error", dlqErr)
	}

	slog.WarnContext(ctx, "worker: job exhausted retries, moved to DLQ", "job_id", job.ID, "retry_count", job.RetryCount, "error", errMsg)
	return nil
}
