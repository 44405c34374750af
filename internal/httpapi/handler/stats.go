package handler

import (
	"net/http"

	"github.com/corewave/jobengine/internal/httpapi/response"
)

type statsResponse struct {
	CountByStatus map[string]int `json:"count_by_status"`
	DLQSize       int            `json:"dlq_size"`
	QueueDepth    int            `json:"queue_depth"`
}

// Stats implements GET /api/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	_, dlqTotal, err := s.transport.ListDLQ(r.Context(), 1, 1)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	queueDepth, err := s.transport.QueueDepth(r.Context())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	byStatus := make(map[string]int, len(stats.CountByStatus))
	for status, count := range stats.CountByStatus {
		byStatus[string(status)] = count
	}

	response.OK(w, statsResponse{
		CountByStatus: byStatus,
		DLQSize:       dlqTotal,
		QueueDepth:    queueDepth,
	})
}
