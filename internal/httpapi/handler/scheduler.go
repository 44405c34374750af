package handler

import (
	"net/http"

	"github.com/corewave/jobengine/internal/httpapi/response"
)

type schedulerStatusResponse struct {
	Policy     string `json:"policy"`
	QueueDepth int    `json:"queue_depth"`
	PoolSize   int    `json:"pool_size"`
}

// SchedulerStatus implements GET /api/scheduler.
func (s *Server) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	policy, depth := s.scheduler.Status()
	response.OK(w, schedulerStatusResponse{
		Policy:     string(policy),
		QueueDepth: depth,
		PoolSize:   s.poolSize,
	})
}
