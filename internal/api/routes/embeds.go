package routes

import (
	"github.com/go-chi/chi/v5"

	embedhandlers "EmbeddedAssets/internal/api/handlers/embeds"
)

// RegisterEmbedRoutes registers the /embeds endpoints on the router.
//
// Accessor routes take repeated ?param=key=value query values which are
// merged (iframe-*) or appended (video-*) into the embed source URL.
func RegisterEmbedRoutes(r chi.Router, handler *embedhandlers.Handler) {
	r.Route("/embeds", func(r chi.Router) {
		r.Post("/preview", handler.HandlePreview)
		r.Post("/", handler.HandleCreate)
		r.Get("/", handler.HandleLookup)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handler.HandleGet)
			r.Post("/refresh", handler.HandleRefresh)
			r.Get("/iframe-src", handler.HandleIframeSrc)
			r.Get("/iframe-code", handler.HandleIframeCode)
			r.Get("/video-url", handler.HandleVideoURL)
			r.Get("/video-code", handler.HandleVideoCode)
			r.Get("/video-id", handler.HandleVideoID)
			r.Get("/html", handler.HandleHTML)
			r.Get("/image", handler.HandleImage)
			r.Get("/provider-icon", handler.HandleProviderIcon)
		})
	})
}
