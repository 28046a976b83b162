package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/studyflash/internal/logger"
)

// handleProxy serves GET /api/{path} from the cache, falling back to the
// study backend. The query string takes part in the cache key.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	path := "/" + chi.URLParam(r, "*")
	log := logger.FromContext(r.Context()).WithField("upstream_path", path)
	log.Debug("proxying request")

	body, err := s.Gateway.Fetch(r.Context(), path, r.URL.Query())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeRawJSON(w, r, http.StatusOK, body)
}
