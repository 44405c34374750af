package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/corewave/jobengine/internal/domain"
	"github.com/corewave/jobengine/internal/store"
	"github.com/corewave/jobengine/internal/transport/memtransport"
	"github.com/corewave/jobengine/internal/worker"
	"github.com/stretchr/testify/require"
)

// fakeStore is a function-field mock in the teacher's worker_test.go
// mockRepository style.
type fakeStore struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job

	transitionFunc func(ctx context.Context, id string, from, to domain.Status, patch store.Patch) (*domain.Job, error)
}

func newFakeStore(jobs ...*domain.Job) *fakeStore {
	s := &fakeStore{jobs: make(map[string]*domain.Job)}
	for _, j := range jobs {
		s.jobs[j.ID] = j
	}
	return s
}

func (s *fakeStore) Create(ctx context.Context, spec domain.Spec) (*domain.Job, error) {
	panic("not used in worker tests")
}

func (s *fakeStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return j, nil
}

func (s *fakeStore) List(ctx context.Context, filter store.Filter, page store.Page) (*store.PagedResult, error) {
	panic("not used in worker tests")
}

func (s *fakeStore) Transition(ctx context.Context, id string, from, to domain.Status, patch store.Patch) (*domain.Job, error) {
	if s.transitionFunc != nil {
		return s.transitionFunc(ctx, id, from, to, patch)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if j.Status != from {
		return nil, domain.ConflictError{JobID: id, From: from, To: to, Got: j.Status}
	}
	j.Status = to
	if patch.StartedAt != nil {
		j.StartedAt = patch.StartedAt
	}
	if patch.FinishedAt != nil {
		j.FinishedAt = patch.FinishedAt
	}
	if patch.Result != nil {
		j.Result = patch.Result
	}
	if patch.Error != nil {
		j.Error = *patch.Error
	}
	if patch.RetryCount != nil {
		j.RetryCount = *patch.RetryCount
	}
	return j, nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	panic("not used in worker tests")
}

func (s *fakeStore) ClaimPending(ctx context.Context, limit int) ([]*domain.Job, error) {
	panic("not used in worker tests")
}

func (s *fakeStore) Recover(ctx context.Context) error { return nil }

func (s *fakeStore) Stats(ctx context.Context) (*store.Stats, error) {
	panic("not used in worker tests")
}

func (s *fakeStore) Close() error { return nil }

func scheduledJob(id, jobType string, retryCount, maxRetries int) *domain.Job {
	now := time.Now()
	return &domain.Job{
		ID:         id,
		Name:       id,
		JobType:    jobType,
		Status:     domain.StatusScheduled,
		RetryCount: retryCount,
		MaxRetries: maxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestProcessOne_SuccessTransitionsToCompleted(t *testing.T) {
	j := scheduledJob("job-1", "wordcount", 0, 3)
	s := newFakeStore(j)
	tr := memtransport.New()
	require.NoError(t, tr.Push(context.Background(), j.ID))

	registry := worker.NewRegistry(map[string]worker.Handler{
		"wordcount": func(ctx context.Context, payload map[string]any) (map[string]any, error) {
			return map[string]any{"word_count": 3}, nil
		},
	})

	p := worker.New(s, tr, registry, worker.WithPopTimeout(10*time.Millisecond))
	require.NoError(t, p.ProcessOne(context.Background(), "worker-0"))

	got, err := s.Get(context.Background(), "job-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, got.Status)
	require.Equal(t, 3, got.Result["word_count"])
	require.NotNil(t, got.FinishedAt)
}

func TestProcessOne_RetryableFailure_RequeuesToPending(t *testing.T) {
	j := scheduledJob("job-2", "flaky", 0, 3)
	s := newFakeStore(j)
	tr := memtransport.New()
	require.NoError(t, tr.Push(context.Background(), j.ID))

	registry := worker.NewRegistry(map[string]worker.Handler{
		"flaky": func(ctx context.Context, payload map[string]any) (map[string]any, error) {
			return nil, domain.HandlerFailure{JobType: "flaky", Err: errors.New("boom"), Retryable: true}
		},
	})

	p := worker.New(s, tr, registry, worker.WithPopTimeout(10*time.Millisecond))
	require.NoError(t, p.ProcessOne(context.Background(), "worker-0"))

	got, err := s.Get(context.Background(), "job-2")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, got.Status)
	require.Equal(t, 1, got.RetryCount)
	require.Equal(t, "boom", got.Error)

	depth, err := tr.QueueDepth(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, depth, "retried jobs wait for the engine to re-dispatch, not the transport directly")
}

func TestProcessOne_RetriesExhausted_FailsAndAppendsDLQ(t *testing.T) {
	j := scheduledJob("job-3", "flaky", 3, 3)
	s := newFakeStore(j)
	tr := memtransport.New()
	require.NoError(t, tr.Push(context.Background(), j.ID))

	registry := worker.NewRegistry(map[string]worker.Handler{
		"flaky": func(ctx context.Context, payload map[string]any) (map[string]any, error) {
			return nil, domain.HandlerFailure{JobType: "flaky", Err: errors.New("still broken"), Retryable: true}
		},
	})

	p := worker.New(s, tr, registry, worker.WithPopTimeout(10*time.Millisecond))
	require.NoError(t, p.ProcessOne(context.Background(), "worker-0"))

	got, err := s.Get(context.Background(), "job-3")
	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, got.Status)
	require.Equal(t, 3, got.RetryCount, "retry_count is not incremented on the exhausting failure")

	entries, total, err := tr.ListDLQ(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "job-3", entries[0].JobID)
	require.Equal(t, "still broken", entries[0].Error)
}

func TestProcessOne_NonRetryableHandlerFailure_FailsImmediately(t *testing.T) {
	j := scheduledJob("job-4", "validate-only", 0, 5)
	s := newFakeStore(j)
	tr := memtransport.New()
	require.NoError(t, tr.Push(context.Background(), j.ID))

	registry := worker.NewRegistry(map[string]worker.Handler{
		"validate-only": func(ctx context.Context, payload map[string]any) (map[string]any, error) {
			return nil, domain.HandlerFailure{JobType: "validate-only", Err: errors.New("bad payload"), Retryable: false}
		},
	})

	p := worker.New(s, tr, registry, worker.WithPopTimeout(10*time.Millisecond))
	require.NoError(t, p.ProcessOne(context.Background(), "worker-0"))

	got, err := s.Get(context.Background(), "job-4")
	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, got.Status)

	_, total, err := tr.ListDLQ(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestProcessOne_HandlerPanics_ConvertsToPanicErrorAndFails(t *testing.T) {
	j := scheduledJob("job-5", "explodes", 0, 3)
	s := newFakeStore(j)
	tr := memtransport.New()
	require.NoError(t, tr.Push(context.Background(), j.ID))

	registry := worker.NewRegistry(map[string]worker.Handler{
		"explodes": func(ctx context.Context, payload map[string]any) (map[string]any, error) {
			panic("handler exploded")
		},
	})

	p := worker.New(s, tr, registry, worker.WithPopTimeout(10*time.Millisecond))
	require.NoError(t, p.ProcessOne(context.Background(), "worker-0"))

	got, err := s.Get(context.Background(), "job-5")
	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, got.Status, "a panic is never retried regardless of remaining retry budget")
	require.Contains(t, got.Error, "handler exploded")
}

func TestProcessOne_UnknownJobType_FailsWithoutRetry(t *testing.T) {
	j := scheduledJob("job-6", "no-such-handler", 0, 3)
	s := newFakeStore(j)
	tr := memtransport.New()
	require.NoError(t, tr.Push(context.Background(), j.ID))

	p := worker.New(s, tr, worker.NewRegistry(nil), worker.WithPopTimeout(10*time.Millisecond))
	require.NoError(t, p.ProcessOne(context.Background(), "worker-0"))

	got, err := s.Get(context.Background(), "job-6")
	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, got.Status)
}

func TestProcessOne_JobNoLongerScheduled_DiscardsWithoutError(t *testing.T) {
	j := scheduledJob("job-7", "wordcount", 0, 3)
	j.Status = domain.StatusCompleted // canceled/raced out from under the pool
	s := newFakeStore(j)
	tr := memtransport.New()
	require.NoError(t, tr.Push(context.Background(), j.ID))

	registry := worker.NewRegistry(map[string]worker.Handler{
		"wordcount": func(ctx context.Context, payload map[string]any) (map[string]any, error) {
			t.Fatal("handler must not run for a job that is no longer SCHEDULED")
			return nil, nil
		},
	})

	p := worker.New(s, tr, registry, worker.WithPopTimeout(10*time.Millisecond))
	require.NoError(t, p.ProcessOne(context.Background(), "worker-0"))

	got, err := s.Get(context.Background(), "job-7")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, got.Status, "discarding must not disturb the job's actual terminal state")
}

func TestProcessOne_EmptyTransport_ReturnsNilWithoutBlockingLong(t *testing.T) {
	s := newFakeStore()
	tr := memtransport.New()
	p := worker.New(s, tr, worker.NewRegistry(nil), worker.WithPopTimeout(5*time.Millisecond))

	start := time.Now()
	err := p.ProcessOne(context.Background(), "worker-0")
	require.NoError(t, err)
	require.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestPool_Run_StopsOnContextCancel(t *testing.T) {
	s := newFakeStore()
	tr := memtransport.New()
	p := worker.New(s, tr, worker.NewRegistry(nil), worker.WithPoolSize(2), worker.WithPopTimeout(10*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
