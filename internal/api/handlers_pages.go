package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// handleListPages lists pages the integration can see, as candidate parents.
func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	pageSize := 10
	if v := r.URL.Query().Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			jsonError(w, "page_size must be between 1 and 100", http.StatusBadRequest)
			return
		}
		pageSize = n
	}

	pages, err := s.notion.Search(r.Context(), pageSize)
	if err != nil {
		s.log.Error("page search failed", "error", err)
		jsonError(w, "failed to search pages: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"pages":          pages,
		"default_parent": s.cfg.ParentPageID,
	})
}
