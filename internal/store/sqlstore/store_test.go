package sqlstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/corewave/jobengine/internal/domain"
	"github.com/corewave/jobengine/internal/store"
	"github.com/corewave/jobengine/internal/store/sqlstore"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(dir, "jobs.db"), sqlstore.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreate_ValidatesAndPersistsPending(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	job, err := s.Create(ctx, domain.Spec{Name: "n", JobType: "sleep", Payload: map[string]any{"duration_ms": 10}})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, job.Status)
	require.Equal(t, domain.DefaultPriority, job.Priority)
	require.Equal(t, domain.DefaultMaxRetries, job.MaxRetries)

	got, err := s.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, job.ID, got.ID)
	require.Equal(t, job.JobType, got.JobType)
}

func TestCreate_RejectsInvalidPriority(t *testing.T) {
	s := newSQLiteStore(t)
	_, err := s.Create(context.Background(), domain.Spec{Name: "n", JobType: "sleep", Priority: 99})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestGet_UnknownID_ReturnsNotFound(t *testing.T) {
	s := newSQLiteStore(t)
	_, err := s.Get(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransition_CAS_SucceedsAndConflicts(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	job, err := s.Create(ctx, domain.Spec{Name: "n", JobType: "sleep"})
	require.NoError(t, err)

	updated, err := s.Transition(ctx, job.ID, domain.StatusPending, domain.StatusScheduled, store.Patch{})
	require.NoError(t, err)
	require.Equal(t, domain.StatusScheduled, updated.Status)

	// Repeating the same transition now conflicts: current status is SCHEDULED, not PENDING.
	_, err = s.Transition(ctx, job.ID, domain.StatusPending, domain.StatusScheduled, store.Patch{})
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestTransition_UnknownID_ReturnsNotFound(t *testing.T) {
	s := newSQLiteStore(t)
	_, err := s.Transition(context.Background(), "nope", domain.StatusPending, domain.StatusScheduled, store.Patch{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_OnlyFromPendingOrScheduled(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	job, err := s.Create(ctx, domain.Spec{Name: "n", JobType: "sleep"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, job.ID))
	_, err = s.Get(ctx, job.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	// Second delete: NotFound, not Conflict — idempotence per SPEC_FULL §8.
	err = s.Delete(ctx, job.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_RunningJob_Conflicts(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	job, err := s.Create(ctx, domain.Spec{Name: "n", JobType: "sleep"})
	require.NoError(t, err)
	_, err = s.Transition(ctx, job.ID, domain.StatusPending, domain.StatusScheduled, store.Patch{})
	require.NoError(t, err)
	_, err = s.Transition(ctx, job.ID, domain.StatusScheduled, domain.StatusRunning, store.Patch{})
	require.NoError(t, err)

	err = s.Delete(ctx, job.ID)
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestClaimPending_OrdersByCreatedAtAscending(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		job, err := s.Create(ctx, domain.Spec{Name: "n", JobType: "sleep"})
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}

	claimed, err := s.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 3)
	for i, job := range claimed {
		require.Equal(t, ids[i], job.ID)
		require.Equal(t, domain.StatusPending, job.Status)
	}
}

func TestRecover_SweepsScheduledAndRunningToPendingWithoutIncrementingRetryCount(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	job, err := s.Create(ctx, domain.Spec{Name: "n", JobType: "sleep"})
	require.NoError(t, err)
	_, err = s.Transition(ctx, job.ID, domain.StatusPending, domain.StatusScheduled, store.Patch{})
	require.NoError(t, err)
	_, err = s.Transition(ctx, job.ID, domain.StatusScheduled, domain.StatusRunning, store.Patch{})
	require.NoError(t, err)

	require.NoError(t, s.Recover(ctx))

	got, err := s.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, got.Status)
	require.Equal(t, 0, got.RetryCount)
}

func TestStats_CountsByStatus(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, domain.Spec{Name: "a", JobType: "sleep"})
	require.NoError(t, err)
	_, err = s.Create(ctx, domain.Spec{Name: "b", JobType: "sleep"})
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.CountByStatus[domain.StatusPending])
}

// TestPostgresStore runs a create-and-delete smoke check against a live
// Postgres instance when TEST_POSTGRES_URL is set, mirroring the teacher's env-gated
// integration test pattern (internal/storage/sql/repository/store_test.go).
func TestPostgresStore(t *testing.T) {
	pgURL := os.Getenv("TEST_POSTGRES_URL")
	if pgURL == "" {
		t.Skip("TEST_POSTGRES_URL not set, skipping postgres integration test")
	}

	ctx := context.Background()
	s, err := sqlstore.OpenPostgres(ctx, pgURL, sqlstore.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	job, err := s.Create(ctx, domain.Spec{Name: "pg", JobType: "sleep"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, job.ID))
}
