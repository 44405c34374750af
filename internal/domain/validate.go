package domain

import "fmt"

// KnownJobTypes is populated by the worker package's handler registry at
// process startup so Create can reject unknown job types up front (SPEC_FULL
// §4.5's "unknown handler invariant": validation here makes the worker's own
// unknown-type branch pure defense-in-depth).
var KnownJobTypes = map[string]bool{}

// Validate checks spec against the constraints in SPEC_FULL.md §4.2, filling
// in defaults for unset optional fields.
func (spec *Spec) Validate() error {
	if spec.Name == "" {
		return ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if spec.JobType == "" {
		return ValidationError{Field: "job_type", Reason: "must not be empty"}
	}
	if len(KnownJobTypes) > 0 && !KnownJobTypes[spec.JobType] {
		return ValidationError{Field: "job_type", Reason: fmt.Sprintf("unknown job type %q", spec.JobType)}
	}
	if spec.Priority == 0 {
		spec.Priority = DefaultPriority
	}
	if spec.Priority < MinPriority || spec.Priority > MaxPriority {
		return ValidationError{Field: "priority", Reason: fmt.Sprintf("must be in [%d,%d]", MinPriority, MaxPriority)}
	}
	if spec.EstimatedDuration < 0 {
		return ValidationError{Field: "estimated_duration", Reason: "must be non-negative"}
	}
	if spec.MaxRetries < 0 {
		return ValidationError{Field: "max_retries", Reason: "must be non-negative"}
	}
	if spec.MaxRetries == 0 {
		spec.MaxRetries = DefaultMaxRetries
	}
	return nil
}
