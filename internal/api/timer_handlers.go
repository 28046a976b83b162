package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleGetTimer(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Timers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) handleDeleteTimer(w http.ResponseWriter, r *http.Request) {
	if err := s.Timers.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTimerAction(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Timers.Apply(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "action"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}
