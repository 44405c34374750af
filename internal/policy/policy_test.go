package policy_test

import (
	"testing"
	"time"

	"github.com/corewave/jobengine/internal/domain"
	"github.com/corewave/jobengine/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, p policy.Policy) []string {
	t.Helper()
	var ids []string
	for {
		job, ok := p.Next()
		if !ok {
			break
		}
		ids = append(ids, job.ID)
	}
	return ids
}

func TestFCFS_OrdersByCreatedAtThenID(t *testing.T) {
	base := time.Now()
	jobs := []domain.Summary{
		{ID: "b", CreatedAt: base.Add(2 * time.Second)},
		{ID: "a", CreatedAt: base},
		{ID: "c", CreatedAt: base}, // tie with "a" on created_at
	}
	p := policy.NewFCFS()
	for _, j := range jobs {
		p.Offer(j)
	}
	require.Equal(t, []string{"a", "c", "b"}, drain(t, p))
}

func TestSJF_OrdersByDurationThenCreatedAtThenID(t *testing.T) {
	base := time.Now()
	p := policy.NewSJF()
	p.Offer(domain.Summary{ID: "slow", CreatedAt: base, EstimatedDuration: 10})
	p.Offer(domain.Summary{ID: "fast", CreatedAt: base.Add(time.Second), EstimatedDuration: 1})
	p.Offer(domain.Summary{ID: "mid", CreatedAt: base, EstimatedDuration: 5})
	require.Equal(t, []string{"fast", "mid", "slow"}, drain(t, p))
}

func TestPriority_OrdersByPriorityThenCreatedAtThenID(t *testing.T) {
	base := time.Now()
	p := policy.NewPriority()
	p.Offer(domain.Summary{ID: "low", CreatedAt: base, Priority: 9})
	p.Offer(domain.Summary{ID: "high", CreatedAt: base, Priority: 1})
	require.Equal(t, []string{"high", "low"}, drain(t, p))
}

func TestRoundRobin_PreservesInsertionOrderAndRequeuesToTail(t *testing.T) {
	p := policy.NewRoundRobin()
	p.Offer(domain.Summary{ID: "a"})
	p.Offer(domain.Summary{ID: "b"})
	job, ok := p.Next()
	require.True(t, ok)
	require.Equal(t, "a", job.ID)

	// Retry re-enters at the tail, not its original slot.
	p.Offer(job)
	require.Equal(t, []string{"b", "a"}, drain(t, p))
}

func TestOffer_IsIdempotentByID(t *testing.T) {
	p := policy.NewFCFS()
	job := domain.Summary{ID: "x", CreatedAt: time.Now()}
	p.Offer(job)
	assert.Equal(t, 1, p.Size())
	p.Offer(job)
	assert.Equal(t, 1, p.Size(), "offering a duplicate id must not grow the policy")
}

func TestMigrate_PreservesSetAcrossPolicySwitch(t *testing.T) {
	base := time.Now()
	old := policy.NewFCFS()
	old.Offer(domain.Summary{ID: "a", CreatedAt: base, Priority: 9})
	old.Offer(domain.Summary{ID: "b", CreatedAt: base.Add(time.Second), Priority: 1})

	fresh := policy.NewPriority()
	policy.Migrate(old, fresh)

	require.Equal(t, 0, old.Size())
	require.Equal(t, []string{"b", "a"}, drain(t, fresh))
}
