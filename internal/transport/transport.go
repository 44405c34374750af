// Package transport defines the Ready Transport (T) contract: the blocking
// inter-process hand-off of job ids from the scheduler engine to the worker
// pool, plus the DLQ list and active-policy key.
package transport

import (
	"context"
	"time"

	"github.com/corewave/jobengine/internal/domain"
)

// Transport is the Ready Transport (T) contract.
type Transport interface {
	// Push appends id to the tail of the ready queue. Logical single-writer
	// (the engine).
	Push(ctx context.Context, id string) error
	// Pop blocks for up to timeout waiting for a ready id. ok is false on
	// timeout. Safe for concurrent callers (the worker pool's executors).
	Pop(ctx context.Context, timeout time.Duration) (id string, ok bool, err error)

	// GetPolicy reads the active policy name. Tolerant of staleness up to
	// one engine tick.
	GetPolicy(ctx context.Context) (domain.PolicyName, error)
	// SetPolicy sets the active policy name.
	SetPolicy(ctx context.Context, name domain.PolicyName) error

	// AppendDLQ records a job that exhausted its retries.
	AppendDLQ(ctx context.Context, entry domain.DLQEntry) error
	// ListDLQ returns DLQ entries newest-first, paginated.
	ListDLQ(ctx context.Context, pageNumber, pageSize int) ([]domain.DLQEntry, int, error)

	// QueueDepth reports the number of ids currently waiting on the ready
	// queue, for the scheduler-status endpoint.
	QueueDepth(ctx context.Context) (int, error)

	// Ping verifies connectivity, for the health endpoint.
	Ping(ctx context.Context) error
	// Close releases underlying resources.
	Close() error
}
