package routes

import (
	"github.com/go-chi/chi/v5"

	healthhandlers "EmbeddedAssets/internal/api/handlers/health"
)

// RegisterHealthRoutes registers GET /health.
func RegisterHealthRoutes(r chi.Router, handler *healthhandlers.Handler) {
	r.Get("/health", handler.HandleHealth)
}
