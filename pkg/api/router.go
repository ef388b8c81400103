// Package api serves the word store as a small JSON API.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a chi router with all API routes mounted. logger may be
// nil.
func NewRouter(store Store, logger *slog.Logger) chi.Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := NewHandler(store, logger)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		requestLogger(logger),
		middleware.Recoverer,
	)

	r.Route("/words", func(r chi.Router) {
		r.Get("/", h.ListWords)
		r.Post("/", h.SaveWord)
		r.Post("/batch", h.SaveWords)
		r.Get("/{id}", h.GetWord)
		r.Get("/{id}/translations", h.GetTranslations)
	})
	r.Post("/translations", h.Translate)

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.Duration("took", time.Since(start)))
		})
	}
}
