package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/studyflash/internal/logger"
)

type rateRequest struct {
	Difficulty string `json:"difficulty"`
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.Reviews.Schedule(r.Context()))
}

func (s *Server) handleDueReviews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.Reviews.Due(r.Context()))
}

func (s *Server) handleReviewStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.Reviews.Counts(r.Context()))
}

func (s *Server) handleRateCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	log := logger.FromContext(r.Context()).WithField("card_id", cardID)

	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	entry, err := s.Reviews.Rate(r.Context(), cardID, req.Difficulty)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Info("card rated %s", entry.Difficulty)
	writeJSON(w, r, http.StatusOK, entry)
}

func (s *Server) handleRemoveCard(w http.ResponseWriter, r *http.Request) {
	if err := s.Reviews.Remove(r.Context(), chi.URLParam(r, "cardID")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
