// Package health serves the liveness endpoint.
package health

import (
	"net/http"

	"EmbeddedAssets/internal/api/handlers"
	"EmbeddedAssets/internal/core/extract"
	"EmbeddedAssets/internal/core/imageproxy"
)

// StatsSource reports per-provider circuit breaker state.
type StatsSource interface {
	ProviderStats() map[string]extract.ProviderStats
}

// Handler handles GET /health.
type Handler struct {
	stats StatsSource
}

// NewHandler creates a health handler. stats may be nil.
func NewHandler(stats StatsSource) *Handler {
	return &Handler{stats: stats}
}

type response struct {
	Status           string                           `json:"status"`
	Providers        map[string]extract.ProviderStats `json:"providers,omitempty"`
	ImageStoreErrors int64                            `json:"imageStoreErrors"`
}

// HandleHealth always returns 200; open circuits are reported, not failed on.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := response{
		Status:           "ok",
		ImageStoreErrors: imageproxy.StoreErrorCount(),
	}
	if h.stats != nil {
		resp.Providers = h.stats.ProviderStats()
	}
	handlers.WriteJSON(w, http.StatusOK, resp)
}
