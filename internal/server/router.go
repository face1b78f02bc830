package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/verdantiq/esgpilot/internal/api"
	"github.com/verdantiq/esgpilot/internal/api/handlers"
	"github.com/verdantiq/esgpilot/internal/api/middleware"
)

type RouterConfig struct {
	AuthValidator   middleware.AuthValidator
	DocumentHandler *handlers.DocumentHandler
	QAHandler       *handlers.QAHandler
	MetricsHandler  *handlers.MetricsHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Uploads carry whole reports, so the body limit is generous.
	const maxBodyBytes int64 = 32 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		r.Route("/documents", func(r chi.Router) {
			r.Post("/upload", cfg.DocumentHandler.Upload)
			r.Get("/", cfg.DocumentHandler.List)
			r.Get("/{documentID}", cfg.DocumentHandler.Get)
		})

		r.Route("/qa", func(r chi.Router) {
			r.Post("/ask", cfg.QAHandler.Ask)
			r.Post("/validate", cfg.QAHandler.Validate)
			r.Get("/history/{documentID}", cfg.QAHandler.History)
		})

		r.Route("/metrics", func(r chi.Router) {
			r.Post("/extract/{documentID}", cfg.MetricsHandler.Extract)
			r.Get("/{documentID}", cfg.MetricsHandler.ListByDocument)
			r.Post("/{documentID}", cfg.MetricsHandler.CreateManual)
			r.Put("/item/{metricID}", cfg.MetricsHandler.Update)
		})
	})

	return r
}
