package routes

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	embedhandlers "EmbeddedAssets/internal/api/handlers/embeds"
	healthhandlers "EmbeddedAssets/internal/api/handlers/health"
	imageproxyhandlers "EmbeddedAssets/internal/api/handlers/imageproxy"
	"EmbeddedAssets/internal/core/embeds"
)

func TestRoutesRegistered(t *testing.T) {
	r := chi.NewRouter()
	RegisterEmbedRoutes(r, embedhandlers.NewHandler(nil, embeds.Delegates{}))
	RegisterImageProxyRoutes(r, imageproxyhandlers.NewHandler(nil))
	RegisterHealthRoutes(r, healthhandlers.NewHandler(nil))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/embeds/preview"},
		{http.MethodPost, "/embeds"},
		{http.MethodGet, "/embeds"},
		{http.MethodGet, "/embeds/abc"},
		{http.MethodPost, "/embeds/abc/refresh"},
		{http.MethodGet, "/embeds/abc/iframe-src"},
		{http.MethodGet, "/embeds/abc/iframe-code"},
		{http.MethodGet, "/embeds/abc/video-url"},
		{http.MethodGet, "/embeds/abc/video-code"},
		{http.MethodGet, "/embeds/abc/video-id"},
		{http.MethodGet, "/embeds/abc/html"},
		{http.MethodGet, "/embeds/abc/image"},
		{http.MethodGet, "/embeds/abc/provider-icon"},
		{http.MethodGet, "/img"},
		{http.MethodGet, "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rctx := chi.NewRouteContext()
			assert.True(t, r.Match(rctx, tt.method, tt.path))
		})
	}

	assert.False(t, r.Match(chi.NewRouteContext(), http.MethodDelete, "/embeds/abc"))
}
