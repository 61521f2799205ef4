package routes

import (
	"github.com/go-chi/chi/v5"

	imageproxyhandlers "EmbeddedAssets/internal/api/handlers/imageproxy"
)

// RegisterImageProxyRoutes registers the image resize endpoint.
//
// Route: GET /img?url=<source>&size=<pixels>
//
// The response redirects to the stored variant.
func RegisterImageProxyRoutes(r chi.Router, handler *imageproxyhandlers.Handler) {
	r.Get("/img", handler.HandleImage)
}
