package policy

import "github.com/corewave/jobengine/internal/domain"

// RoundRobin preserves plain insertion order: jobs are dispatched in the
// order they were first offered, and a job that is re-offered after being
// popped (a retry re-entering the policy) goes to the tail rather than
// keeping its original position.
type RoundRobin struct {
	queue   []domain.Summary
	present map[string]bool
}

func NewRoundRobin() *RoundRobin {
	return &RoundRobin{present: make(map[string]bool)}
}

func (p *RoundRobin) Offer(job domain.Summary) {
	if p.present[job.ID] {
		return
	}
	p.present[job.ID] = true
	p.queue = append(p.queue, job)
}

func (p *RoundRobin) Next() (domain.Summary, bool) {
	if len(p.queue) == 0 {
		return domain.Summary{}, false
	}
	job := p.queue[0]
	p.queue = p.queue[1:]
	delete(p.present, job.ID)
	return job, true
}

func (p *RoundRobin) Size() int {
	return len(p.queue)
}

func (p *RoundRobin) Clear() {
	p.queue = nil
	p.present = make(map[string]bool)
}
