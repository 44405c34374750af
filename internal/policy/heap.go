package policy

import (
	"container/heap"

	"github.com/corewave/jobengine/internal/domain"
)

// lessFunc orders two summaries; used to parameterize the heap-backed
// policies (FCFS, SJF, Priority) which differ only in comparison.
type lessFunc func(a, b domain.Summary) bool

// summaryHeap is a container/heap.Interface over domain.Summary, ordered by
// a caller-supplied lessFunc.
type summaryHeap struct {
	items []domain.Summary
	less  lessFunc
}

func (h *summaryHeap) Len() int            { return len(h.items) }
func (h *summaryHeap) Less(i, j int) bool  { return h.less(h.items[i], h.items[j]) }
func (h *summaryHeap) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *summaryHeap) Push(x any)          { h.items = append(h.items, x.(domain.Summary)) }
func (h *summaryHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// heapPolicy implements Policy on top of a summaryHeap plus a membership set
// for the offer-is-idempotent rule.
type heapPolicy struct {
	h       *summaryHeap
	present map[string]bool
}

func newHeapPolicy(less lessFunc) *heapPolicy {
	return &heapPolicy{
		h:       &summaryHeap{less: less},
		present: make(map[string]bool),
	}
}

func (p *heapPolicy) Offer(job domain.Summary) {
	if p.present[job.ID] {
		return
	}
	p.present[job.ID] = true
	heap.Push(p.h, job)
}

func (p *heapPolicy) Next() (domain.Summary, bool) {
	if p.h.Len() == 0 {
		return domain.Summary{}, false
	}
	job := heap.Pop(p.h).(domain.Summary)
	delete(p.present, job.ID)
	return job, true
}

func (p *heapPolicy) Size() int {
	return p.h.Len()
}

func (p *heapPolicy) Clear() {
	p.h.items = nil
	p.present = make(map[string]bool)
}
