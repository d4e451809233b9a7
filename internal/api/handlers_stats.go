package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleNotionStats(w http.ResponseWriter, r *http.Request) {
	if s.notion == nil || s.notion.Stats == nil {
		jsonError(w, "notion stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"version":      s.notion.Version(),
		"stats":        s.notion.Stats.Snapshot(),
		"by_operation": s.notion.Stats.ByOperation(),
		"queue_depth":  s.orchestrator.QueueDepth(),
	})
}
