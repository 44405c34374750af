// Package engine implements the Scheduler Engine (E): a single-threaded
// tick loop that drains PENDING jobs into an in-memory Policy and dispatches
// them onto the Ready Transport in policy order.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/corewave/jobengine/internal/domain"
	"github.com/corewave/jobengine/internal/policy"
	"github.com/corewave/jobengine/internal/store"
	"github.com/corewave/jobengine/internal/transport"
)

// Option is a functional option for configuring Engine, grounded on the
// teacher's Worker functional-options pattern.
type Option func(*Engine)

// WithTickInterval sets how often the engine ticks. Default 100ms.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.tickInterval = d }
}

// WithClaimBatchSize bounds how many PENDING rows a single tick pulls from
// the store into the in-memory policy.
func WithClaimBatchSize(n int) Option {
	return func(e *Engine) { e.claimBatch = n }
}

// WithDispatchQuota bounds how many ids a single tick pushes onto the ready
// transport. Zero means "drain the whole policy every tick".
func WithDispatchQuota(n int) Option {
	return func(e *Engine) { e.dispatchQuota = n }
}

// Engine is the Scheduler Engine (E).
type Engine struct {
	store     store.Store
	transport transport.Transport

	tickInterval  time.Duration
	claimBatch    int
	dispatchQuota int

	mu           sync.Mutex
	activePolicy domain.PolicyName
	p            policy.Policy

	tick chan struct{} // test hook: forces an immediate tick
	done chan struct{}
	wg   sync.WaitGroup
}

// New constructs an Engine seeded with the given initial policy.
func New(s store.Store, t transport.Transport, initial domain.PolicyName, opts ...Option) *Engine {
	e := &Engine{
		store:         s,
		transport:     t,
		tickInterval:  100 * time.Millisecond,
		claimBatch:    100,
		dispatchQuota: 0,
		activePolicy:  initial,
		p:             policy.New(initial),
		tick:          make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes Recover once, then loops ticks until ctx is cancelled or Stop
// is called.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.store.Recover(ctx); err != nil {
		slog.ErrorContext(ctx, "engine: recover failed at startup", "error", err)
	}

	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.runTick(ctx)
		case <-e.tick:
			e.runTick(ctx)
		case <-ctx.Done():
			e.wg.Wait()
			return ctx.Err()
		case <-e.done:
			e.wg.Wait()
			return nil
		}
	}
}

// Stop gracefully stops Run.
func (e *Engine) Stop() {
	close(e.done)
}

// ForceTick triggers an immediate tick, used by tests that don't want to
// wait out the tick interval.
func (e *Engine) ForceTick() {
	select {
	case e.tick <- struct{}{}:
	default:
	}
}

// RunTickOnce executes a single tick synchronously; exported for tests.
func (e *Engine) RunTickOnce(ctx context.Context) {
	e.runTick(ctx)
}

func (e *Engine) runTick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reconcilePolicy(ctx)
	e.claimIntoPolicy(ctx)
	e.dispatch(ctx)
}

// reconcilePolicy implements SPEC_FULL.md §4.4 step 1: if the active policy
// on the transport differs from the one the engine currently holds, rebuild
// in place, migrating everything still queued.
func (e *Engine) reconcilePolicy(ctx context.Context) {
	name, err := e.transport.GetPolicy(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "engine: read active policy failed", "error", err)
		return
	}
	if name == e.activePolicy {
		return
	}
	if !domain.ValidPolicyName(name) {
		slog.WarnContext(ctx, "engine: unknown policy name on transport, ignoring", "policy", name)
		return
	}
	fresh := policy.New(name)
	policy.Migrate(e.p, fresh)
	e.p = fresh
	e.activePolicy = name
	slog.InfoContext(ctx, "engine: switched policy", "policy", name)
}

func (e *Engine) claimIntoPolicy(ctx context.Context) {
	jobs, err := e.store.ClaimPending(ctx, e.claimBatch)
	if err != nil {
		slog.ErrorContext(ctx, "engine: claim pending failed, will retry next tick", "error", err)
		return
	}
	for _, job := range jobs {
		e.p.Offer(job.Summary())
	}
}

func (e *Engine) dispatch(ctx context.Context) {
	dispatched := 0
	for {
		if e.dispatchQuota > 0 && dispatched >= e.dispatchQuota {
			return
		}
		summary, ok := e.p.Next()
		if !ok {
			return
		}

		_, err := e.store.Transition(ctx, summary.ID, domain.StatusPending, domain.StatusScheduled, store.Patch{})
		if err != nil {
			if domain.IsTransient(err) {
				slog.ErrorContext(ctx, "engine: transition to SCHEDULED failed, will retry next tick", "job_id", summary.ID, "error", err)
				// Don't drop the job: re-offer so it's tried again next tick.
				e.p.Offer(summary)
				return
			}
			// Conflict or NotFound: the job was canceled or already moved on.
			slog.WarnContext(ctx, "engine: job no longer PENDING, dropping from dispatch", "job_id", summary.ID, "error", err)
			continue
		}

		if err := e.transport.Push(ctx, summary.ID); err != nil {
			slog.ErrorContext(ctx, "engine: push to transport failed, compensating transition back to PENDING", "job_id", summary.ID, "error", err)
			if _, compErr := e.store.Transition(ctx, summary.ID, domain.StatusScheduled, domain.StatusPending, store.Patch{}); compErr != nil {
				slog.ErrorContext(ctx, "engine: compensating transition failed, job left SCHEDULED for recover() to reclaim", "job_id", summary.ID, "error", compErr)
			}
			continue
		}
		dispatched++
	}
}

// Status reports the engine's current policy and in-memory queue depth, for
// the scheduler-status endpoint.
func (e *Engine) Status() (domain.PolicyName, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activePolicy, e.p.Size()
}
