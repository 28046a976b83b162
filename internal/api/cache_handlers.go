package api

import (
	"net/http"
)

type warmRequest struct {
	Paths []string `json:"paths"`
}

type warmResponse struct {
	Queued int `json:"queued"`
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.Cache.Stats(r.Context()))
}

// handleClearCache clears ?storage=memory|local|session, or everything.
func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.Cache.Clear(r.Context(), r.URL.Query().Get("storage")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWarmCache(w http.ResponseWriter, r *http.Request) {
	var req warmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	queued, err := s.Cache.Warm(r.Context(), req.Paths)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, warmResponse{Queued: queued})
}
