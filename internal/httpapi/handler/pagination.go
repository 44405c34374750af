package handler

import (
	"net/http"
	"strconv"
)

// parsePage reads page/page_size query params, clamped to [1, maxPageSize]
// with defaultPageSize used when page_size is absent or invalid.
func (s *Server) parsePage(r *http.Request) (number, size int) {
	number = 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			number = n
		}
	}

	size = s.defaultPageSize
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			size = n
		}
	}
	if size > s.maxPageSize {
		size = s.maxPageSize
	}
	return number, size
}
