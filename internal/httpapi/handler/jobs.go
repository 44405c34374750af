package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corewave/jobengine/internal/domain"
	"github.com/corewave/jobengine/internal/httpapi/response"
	"github.com/corewave/jobengine/internal/store"
)

// createJobRequest is the POST /api/jobs request body.
type createJobRequest struct {
	Name              string         `json:"name"`
	JobType           string         `json:"job_type"`
	Payload           map[string]any `json:"payload"`
	Priority          int            `json:"priority"`
	EstimatedDuration float64        `json:"estimated_duration"`
	MaxRetries        int            `json:"max_retries"`
}

// CreateJob implements POST /api/jobs.
func (s *Server) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	job, err := s.store.Create(r.Context(), domain.Spec{
		Name:              req.Name,
		JobType:           req.JobType,
		Payload:           req.Payload,
		Priority:          req.Priority,
		EstimatedDuration: req.EstimatedDuration,
		MaxRetries:        req.MaxRetries,
	})
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.Created(w, MapJobToDTO(job))
}

// listJobsResponse is the GET /api/jobs response body.
type listJobsResponse struct {
	Items    []JobDTO `json:"items"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}

// ListJobs implements GET /api/jobs.
func (s *Server) ListJobs(w http.ResponseWriter, r *http.Request) {
	page, pageSize := s.parsePage(r)
	filter := store.Filter{
		Status:  domain.Status(r.URL.Query().Get("status")),
		JobType: r.URL.Query().Get("job_type"),
	}

	result, err := s.store.List(r.Context(), filter, store.Page{Number: page, Size: pageSize})
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	items := make([]JobDTO, len(result.Items))
	for i, j := range result.Items {
		items[i] = MapJobToDTO(j)
	}

	response.OK(w, listJobsResponse{Items: items, Total: result.Total, Page: page, PageSize: pageSize})
}

// GetJob implements GET /api/jobs/{id}.
func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.store.Get(r.Context(), id)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, MapJobToDTO(job))
}

// CancelJob implements DELETE /api/jobs/{id}. Deletion is only legal while
// the job is PENDING or SCHEDULED; store.Delete enforces that invariant.
func (s *Server) CancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.NoContent(w)
}
