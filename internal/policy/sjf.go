package policy

import "github.com/corewave/jobengine/internal/domain"

// SJF (shortest-job-first) orders jobs by estimated_duration ascending,
// tie-broken by created_at ascending, then id.
type SJF struct {
	*heapPolicy
}

func NewSJF() *SJF {
	return &SJF{heapPolicy: newHeapPolicy(func(a, b domain.Summary) bool {
		if a.EstimatedDuration != b.EstimatedDuration {
			return a.EstimatedDuration < b.EstimatedDuration
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})}
}
