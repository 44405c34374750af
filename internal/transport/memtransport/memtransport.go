// Package memtransport is an in-process Transport implementation used by
// the engine, worker pool and HTTP API tests (SPEC_FULL.md §13), so those
// tests exercise the same Transport interface the Redis
// implementation satisfies without requiring a live Redis or an added
// in-memory-Redis dependency with no grounding in the pack.
package memtransport

import (
	"context"
	"sync"
	"time"

	"github.com/corewave/jobengine/internal/domain"
	"github.com/corewave/jobengine/internal/transport"
)

type Transport struct {
	mu     sync.Mutex
	ready  []string
	dlq    []domain.DLQEntry
	policy domain.PolicyName

	signal chan struct{}
}

var _ transport.Transport = (*Transport)(nil)

func New() *Transport {
	return &Transport{policy: domain.PolicyFCFS, signal: make(chan struct{}, 1)}
}

func (t *Transport) wake() {
	select {
	case t.signal <- struct{}{}:
	default:
	}
}

func (t *Transport) Push(ctx context.Context, id string) error {
	t.mu.Lock()
	t.ready = append(t.ready, id)
	t.mu.Unlock()
	t.wake()
	return nil
}

func (t *Transport) Pop(ctx context.Context, timeout time.Duration) (string, bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		t.mu.Lock()
		if len(t.ready) > 0 {
			id := t.ready[0]
			t.ready = t.ready[1:]
			t.mu.Unlock()
			return id, true, nil
		}
		t.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", false, nil
		}
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-t.signal:
		case <-time.After(remaining):
			return "", false, nil
		}
	}
}

func (t *Transport) GetPolicy(ctx context.Context) (domain.PolicyName, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.policy, nil
}

func (t *Transport) SetPolicy(ctx context.Context, name domain.PolicyName) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.policy = name
	return nil
}

func (t *Transport) AppendDLQ(ctx context.Context, entry domain.DLQEntry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dlq = append([]domain.DLQEntry{entry}, t.dlq...)
	return nil
}

func (t *Transport) ListDLQ(ctx context.Context, pageNumber, pageSize int) ([]domain.DLQEntry, int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageNumber <= 0 {
		pageNumber = 1
	}
	start := (pageNumber - 1) * pageSize
	if start >= len(t.dlq) {
		return nil, len(t.dlq), nil
	}
	end := start + pageSize
	if end > len(t.dlq) {
		end = len(t.dlq)
	}
	out := make([]domain.DLQEntry, end-start)
	copy(out, t.dlq[start:end])
	return out, len(t.dlq), nil
}

func (t *Transport) QueueDepth(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ready), nil
}

func (t *Transport) Ping(ctx context.Context) error { return nil }
func (t *Transport) Close() error                   { return nil }
