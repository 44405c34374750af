package policy

import "github.com/corewave/jobengine/internal/domain"

// Priority orders jobs by priority value ascending (1 = highest), tie-broken
// by created_at ascending, then id.
type Priority struct {
	*heapPolicy
}

func NewPriority() *Priority {
	return &Priority{heapPolicy: newHeapPolicy(func(a, b domain.Summary) bool {
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})}
}
