package handler

import (
	"time"

	"github.com/corewave/jobengine/internal/domain"
	"github.com/corewave/jobengine/internal/ptr"
)

// JobDTO is the wire representation of a Job.
type JobDTO struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	JobType           string         `json:"job_type"`
	Payload           map[string]any `json:"payload,omitempty"`
	Priority          int            `json:"priority"`
	EstimatedDuration float64        `json:"estimated_duration,omitempty"`
	Status            string         `json:"status"`
	RetryCount        int            `json:"retry_count"`
	MaxRetries        int            `json:"max_retries"`
	Result            map[string]any `json:"result,omitempty"`
	Error             string         `json:"error,omitempty"`
	CreatedAt         string         `json:"created_at"`
	UpdatedAt         string         `json:"updated_at"`
	StartedAt         *string        `json:"started_at,omitempty"`
	FinishedAt        *string        `json:"finished_at,omitempty"`
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// MapJobToDTO converts a domain.Job into its wire representation.
func MapJobToDTO(j *domain.Job) JobDTO {
	dto := JobDTO{
		ID:                j.ID,
		Name:              j.Name,
		JobType:           j.JobType,
		Payload:           j.Payload,
		Priority:          j.Priority,
		EstimatedDuration: j.EstimatedDuration,
		Status:            string(j.Status),
		RetryCount:        j.RetryCount,
		MaxRetries:        j.MaxRetries,
		Result:            j.Result,
		Error:             j.Error,
		CreatedAt:         formatTime(j.CreatedAt),
		UpdatedAt:         formatTime(j.UpdatedAt),
	}
	if j.StartedAt != nil {
		dto.StartedAt = ptr.To(formatTime(*j.StartedAt))
	}
	if j.FinishedAt != nil {
		dto.FinishedAt = ptr.To(formatTime(*j.FinishedAt))
	}
	return dto
}

// DLQEntryDTO is the wire representation of a domain.DLQEntry.
type DLQEntryDTO struct {
	JobID      string `json:"job_id"`
	Error      string `json:"error"`
	RetryCount int    `json:"retry_count"`
	EnqueuedAt string `json:"enqueued_at"`
}

func MapDLQEntryToDTO(e domain.DLQEntry) DLQEntryDTO {
	return DLQEntryDTO{
		JobID:      e.JobID,
		Error:      e.Error,
		RetryCount: e.RetryCount,
		EnqueuedAt: formatTime(e.EnqueuedAt),
	}
}
