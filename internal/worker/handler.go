package worker

import "context"

// Handler is a black-box job payload implementation keyed by job_type. It
// returns a result map on success, or an error (ordinarily a
// domain.HandlerFailure) on failure.
type Handler func(ctx context.Context, payload map[string]any) (map[string]any, error)

// Registry is a process-wide job_type -> Handler mapping, grounded on the
// teacher's handler-registry design note (SPEC_FULL.md §9): a plain map
// populated at worker startup, extended by adding entries.
type Registry map[string]Handler

// NewRegistry builds a Registry from name->handler pairs.
func NewRegistry(handlers map[string]Handler) Registry {
	r := make(Registry, len(handlers))
	for name, h := range handlers {
		r[name] = h
	}
	return r
}

// Lookup returns the handler for jobType, or ok=false if unregistered.
func (r Registry) Lookup(jobType string) (Handler, bool) {
	h, ok := r[jobType]
	return h, ok
}

// JobTypes returns the registered job type names, for seeding
// domain.KnownJobTypes so Store.Create rejects unknown types up front.
func (r Registry) JobTypes() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}
