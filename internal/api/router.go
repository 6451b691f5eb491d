package api

import (
	"net/http"

	"github.com/factchecker/claimradar/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg *config.Config, handler *Handler) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	r.Get("/", handler.Index)
	r.Get("/health", handler.HealthCheck)
	r.Get("/version", handler.Version)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimitMiddleware(cfg.RateLimits.RequestsPerMinute))

		r.Post("/process_text", handler.ProcessText)
		r.Get("/verifications/{hash}", handler.GetVerification)
	})

	return r
}
