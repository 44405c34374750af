package policy

import "github.com/corewave/jobengine/internal/domain"

// FCFS orders jobs by created_at ascending, tie-broken by id ascending.
type FCFS struct {
	*heapPolicy
}

func NewFCFS() *FCFS {
	return &FCFS{heapPolicy: newHeapPolicy(func(a, b domain.Summary) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})}
}
