// Package domain holds the job lifecycle types shared by the store, engine,
// and worker pool.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusScheduled Status = "SCHEDULED"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusRetried   Status = "RETRIED"
)

// Terminal reports whether s is a terminal status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// transitions enumerates every legal (from, to) edge of the lifecycle state
// machine. Any move not listed here is rejected by the store.
var transitions = map[Status]map[Status]bool{
	StatusPending:   {StatusScheduled: true},
	StatusScheduled: {StatusRunning: true, StatusPending: true}, // recover() sweep
	StatusRunning:   {StatusCompleted: true, StatusFailed: true, StatusRetried: true, StatusPending: true},
	StatusRetried:   {StatusPending: true},
}

// CanTransition reports whether moving from one status to another is a legal
// edge of the lifecycle state machine.
func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

const (
	MinPriority = 1
	MaxPriority = 10

	DefaultPriority   = 5
	DefaultMaxRetries = 3
)

// Job is the central entity of the job lifecycle engine.
type Job struct {
	ID                 string
	Name               string
	JobType            string
	Payload            map[string]any
	Priority           int
	EstimatedDuration  float64
	Status             Status
	RetryCount         int
	MaxRetries         int
	Result             map[string]any
	Error              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	StartedAt          *time.Time
	FinishedAt         *time.Time
}

// Spec describes the fields a caller may set when submitting a job.
type Spec struct {
	Name               string
	JobType            string
	Payload            map[string]any
	Priority           int
	EstimatedDuration  float64
	MaxRetries         int
}

// NewJob builds a Job from a validated Spec, assigning a fresh id and the
// initial PENDING status.
func NewJob(spec Spec, now time.Time) *Job {
	return &Job{
		ID:                uuid.NewString(),
		Name:              spec.Name,
		JobType:           spec.JobType,
		Payload:           spec.Payload,
		Priority:          spec.Priority,
		EstimatedDuration: spec.EstimatedDuration,
		Status:            StatusPending,
		RetryCount:        0,
		MaxRetries:        spec.MaxRetries,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Summary is the subset of a Job a Policy needs to order it; kept separate
// from Job so policies never see (or mutate) the full record.
type Summary struct {
	ID                string
	CreatedAt         time.Time
	Priority          int
	EstimatedDuration float64
}

func (j *Job) Summary() Summary {
	return Summary{
		ID:                j.ID,
		CreatedAt:         j.CreatedAt,
		Priority:          j.Priority,
		EstimatedDuration: j.EstimatedDuration,
	}
}

// DLQEntry is an append-only record of a job that exhausted its retries.
type DLQEntry struct {
	JobID      string    `json:"job_id"`
	Error      string    `json:"error"`
	RetryCount int       `json:"retry_count"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// PolicyName identifies one of the four scheduling policy variants.
type PolicyName string

const (
	PolicyFCFS       PolicyName = "fcfs"
	PolicySJF        PolicyName = "sjf"
	PolicyPriority   PolicyName = "priority"
	PolicyRoundRobin PolicyName = "round_robin"
)

// ValidPolicyName reports whether name is one of the four known policies.
func ValidPolicyName(name PolicyName) bool {
	switch name {
	case PolicyFCFS, PolicySJF, PolicyPriority, PolicyRoundRobin:
		return true
	default:
		return false
	}
}
