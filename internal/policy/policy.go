// Package policy implements the in-memory, pure, no-I/O job ordering
// structures used by the scheduler engine. Each variant is a distinct
// sum-type member with the same four-operation contract.
package policy

import "github.com/corewave/jobengine/internal/domain"

// Policy is the uniform contract across all scheduling variants. An
// implementation must never block and must never touch the store or
// transport directly; it is owned exclusively by the engine.
type Policy interface {
	// Offer inserts a job summary. Offering an id already present is a
	// no-op.
	Offer(job domain.Summary)
	// Next returns and removes the next job summary in policy order. ok is
	// false when the policy is empty.
	Next() (job domain.Summary, ok bool)
	// Size reports the number of ids currently held.
	Size() int
	// Clear empties the policy, as on a policy switch.
	Clear()
}

// New constructs the Policy variant named by name. It panics on an unknown
// name; callers must validate with domain.ValidPolicyName first.
func New(name domain.PolicyName) Policy {
	switch name {
	case domain.PolicyFCFS:
		return NewFCFS()
	case domain.PolicySJF:
		return NewSJF()
	case domain.PolicyPriority:
		return NewPriority()
	case domain.PolicyRoundRobin:
		return NewRoundRobin()
	default:
		panic("policy: unknown policy name " + string(name))
	}
}

// Migrate drains every job still held in old and offers it into fresh,
// preserving the set of pending-but-not-yet-dispatched jobs across a policy
// switch (SPEC_FULL.md §4.4 step 1). old is left empty.
func Migrate(old Policy, fresh Policy) {
	for {
		s, ok := old.Next()
		if !ok {
			break
		}
		fresh.Offer(s)
	}
}
