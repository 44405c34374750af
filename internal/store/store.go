// Package store defines the Job Store contract (S) consumed by the
// scheduler engine, the worker pool, and the HTTP layer. Concrete
// implementations live in sub-packages (sqlstore).
package store

import (
	"context"
	"time"

	"github.com/corewave/jobengine/internal/domain"
)

// Filter narrows List to jobs matching the given status and/or job_type.
// Zero values mean "no filter on this field".
type Filter struct {
	Status  domain.Status
	JobType string
}

// Page describes pagination for List and DLQ listing.
type Page struct {
	Number int // 1-indexed
	Size   int
}

// PagedResult is the output of a paginated list operation.
type PagedResult struct {
	Items []*domain.Job
	Total int
}

// Stats summarizes the store's current contents for the stats/health
// endpoints.
type Stats struct {
	CountByStatus map[domain.Status]int
}

// Patch carries the optional fields a Transition may set alongside the
// status change.
type Patch struct {
	StartedAt  *time.Time
	FinishedAt *time.Time
	Result     map[string]any
	Error      *string
	RetryCount *int
}

// Store is the Job Store (S) contract. Every method is safe for concurrent
// use by multiple goroutines and, where noted, multiple processes.
type Store interface {
	// Create validates and persists a new job with status PENDING.
	Create(ctx context.Context, spec domain.Spec) (*domain.Job, error)
	// Get returns the job with id, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Job, error)
	// List returns jobs matching filter, newest first, paginated.
	List(ctx context.Context, filter Filter, page Page) (*PagedResult, error)
	// Transition performs an atomic compare-and-set status change. It
	// returns domain.ErrConflict if the job's current status is not from,
	// and domain.ErrNotFound if the job does not exist.
	Transition(ctx context.Context, id string, from, to domain.Status, patch Patch) (*domain.Job, error)
	// Delete removes a job, but only while it is PENDING or SCHEDULED.
	Delete(ctx context.Context, id string) error
	// ClaimPending returns up to limit PENDING jobs, created_at ascending,
	// without changing their status.
	ClaimPending(ctx context.Context, limit int) ([]*domain.Job, error)
	// Recover sweeps SCHEDULED and RUNNING jobs back to PENDING on engine
	// startup, per SPEC_FULL.md §9. No worker liveness is tracked, so a job
	// still running on a live worker is swept as well.
	Recover(ctx context.Context) error
	// Stats reports counts by status.
	Stats(ctx context.Context) (*Stats, error)
	// Close releases underlying resources.
	Close() error
}
