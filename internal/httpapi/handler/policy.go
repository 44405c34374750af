package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/corewave/jobengine/internal/domain"
	"github.com/corewave/jobengine/internal/httpapi/response"
)

type setPolicyRequest struct {
	Policy string `json:"policy"`
}

type setPolicyResponse struct {
	Policy      string `json:"policy"`
	EffectiveAt string `json:"effective_at"`
}

// SetPolicy implements PUT /api/policy. The change takes effect on the
// scheduler engine's next tick, when it re-reads the active-policy key.
func (s *Server) SetPolicy(w http.ResponseWriter, r *http.Request) {
	var req setPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	name := domain.PolicyName(req.Policy)
	if !domain.ValidPolicyName(name) {
		response.ValidationFailed(w, "policy", "must be one of fcfs, sjf, priority, round_robin")
		return
	}

	if err := s.transport.SetPolicy(r.Context(), name); err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, setPolicyResponse{Policy: string(name), EffectiveAt: time.Now().UTC().Format(time.RFC3339Nano)})
}
