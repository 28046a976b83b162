package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Group(func(r chi.Router) {
		if s.RequestTimeout > 0 {
			r.Use(timeoutMiddleware(s.RequestTimeout))
		}

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", s.handleListReviews)
			r.Get("/due", s.handleDueReviews)
			r.Get("/stats", s.handleReviewStats)
			r.Put("/{cardID}", s.handleRateCard)
			r.Delete("/{cardID}", s.handleRemoveCard)
		})

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", s.handleCacheStats)
			r.Delete("/", s.handleClearCache)
			r.Post("/warm", s.handleWarmCache)
		})

		r.Route("/timers/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetTimer)
			r.Delete("/", s.handleDeleteTimer)
			r.Post("/{action}", s.handleTimerAction)
		})

		r.Get("/api/*", s.handleProxy)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errNotFoundRoute(r))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errMethodNotAllowed(r))
	})
	return r
}
