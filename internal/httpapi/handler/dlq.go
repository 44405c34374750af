package handler

import (
	"net/http"

	"github.com/corewave/jobengine/internal/httpapi/response"
)

type listDLQResponse struct {
	Items    []DLQEntryDTO `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// ListDLQ implements GET /api/dlq.
func (s *Server) ListDLQ(w http.ResponseWriter, r *http.Request) {
	page, pageSize := s.parsePage(r)

	entries, total, err := s.transport.ListDLQ(r.Context(), page, pageSize)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	items := make([]DLQEntryDTO, len(entries))
	for i, e := range entries {
		items[i] = MapDLQEntryToDTO(e)
	}

	response.OK(w, listDLQResponse{Items: items, Total: total, Page: page, PageSize: pageSize})
}
