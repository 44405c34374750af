package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/corewave/jobengine/internal/domain"
	"github.com/corewave/jobengine/internal/engine"
	"github.com/corewave/jobengine/internal/store"
	"github.com/corewave/jobengine/internal/transport/memtransport"
	"github.com/stretchr/testify/require"
)

// fakeStore is a function-field mock in the teacher's worker_test.go
// mockRepository style: each Store method delegates to an overridable func
// field, falling back to a simple in-memory map when unset.
type fakeStore struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job

	transitionFunc func(ctx context.Context, id string, from, to domain.Status, patch store.Patch) (*domain.Job, error)
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: make(map[string]*domain.Job)}
}

func (s *fakeStore) seed(jobs ...*domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range jobs {
		s.jobs[j.ID] = j
	}
}

func (s *fakeStore) Create(ctx context.Context, spec domain.Spec) (*domain.Job, error) {
	panic("not used in engine tests")
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
	panic("not used in engine tests")
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
	return j, nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	panic("not used in engine tests")
}

func (s *fakeStore) ClaimPending(ctx context.Context, limit int) ([]*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Job
	for _, j := range s.jobs {
		if j.Status == domain.StatusPending {
			out = append(out, j)
		}
	}
	return out, nil
}

func (s *fakeStore) Recover(ctx context.Context) error { return nil }

func (s *fakeStore) Stats(ctx context.Context) (*store.Stats, error) {
	panic("not used in engine tests")
}

func (s *fakeStore) Close() error { return nil }

func job(id string, priority int, created time.Time) *domain.Job {
	return &domain.Job{
		ID:         id,
		Name:       id,
		JobType:    "sleep",
		Priority:   priority,
		Status:     domain.StatusPending,
		MaxRetries: 3,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestEngine_DispatchesPendingJobsInFCFSOrder(t *testing.T) {
	s := newFakeStore()
	base := time.Now()
	s.seed(job("b", 5, base.Add(time.Second)), job("a", 5, base))

	tr := memtransport.New()
	e := engine.New(s, tr, domain.PolicyFCFS)

	ctx := context.Background()
	e.RunTickOnce(ctx)

	first, ok, err := tr.Pop(ctx, time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", first)

	second, ok, err := tr.Pop(ctx, time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "b", second)

	gotA, _ := s.Get(ctx, "a")
	require.Equal(t, domain.StatusScheduled, gotA.Status)
}

func TestEngine_PolicySwitch_PreservesQueuedJobs(t *testing.T) {
	s := newFakeStore()
	base := time.Now()
	s.seed(job("low-prio", 9, base), job("high-prio", 1, base.Add(time.Second)))

	tr := memtransport.New()
	e := engine.New(s, tr, domain.PolicyFCFS)
	ctx := context.Background()

	// A single tick reads the new policy before claiming, so both jobs are
	// offered straight into the priority-ordered policy and dispatch
	// respects priority from the very first tick.
	require.NoError(t, tr.SetPolicy(ctx, domain.PolicyPriority))
	e.RunTickOnce(ctx)

	first, ok, _ := tr.Pop(ctx, time.Millisecond)
	require.True(t, ok)
	require.Equal(t, "high-prio", first, "priority policy must dispatch priority=1 before priority=9")

	second, ok, _ := tr.Pop(ctx, time.Millisecond)
	require.True(t, ok)
	require.Equal(t, "low-prio", second)
}

func TestEngine_ConflictOnDispatch_DropsJobSilently(t *testing.T) {
	s := newFakeStore()
	base := time.Now()
	s.seed(job("canceled", 5, base))

	s.transitionFunc = func(ctx context.Context, id string, from, to domain.Status, patch store.Patch) (*domain.Job, error) {
		return nil, domain.ConflictError{JobID: id, From: from, To: to, Got: domain.StatusPending}
	}

	tr := memtransport.New()
	e := engine.New(s, tr, domain.PolicyFCFS)
	ctx := context.Background()
	e.RunTickOnce(ctx)

	_, ok, err := tr.Pop(ctx, time.Millisecond)
	require.NoError(t, err)
	require.False(t, ok, "a canceled job must never reach the transport")
}

func TestEngine_Status_ReportsActivePolicyAndQueueDepth(t *testing.T) {
	s := newFakeStore()
	s.seed(job("a", 5, time.Now()))
	tr := memtransport.New()
	e := engine.New(s, tr, domain.PolicyFCFS, engine.WithDispatchQuota(0))

	name, depth := e.Status()
	require.Equal(t, domain.PolicyFCFS, name)
	require.Equal(t, 0, depth)

	// With no dispatch quota a single tick claims and dispatches everything,
	// so the in-memory queue is empty again afterwards.
	e.RunTickOnce(context.Background())
	_, depthAfter := e.Status()
	require.Equal(t, 0, depthAfter)
}
