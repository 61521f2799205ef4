// Package embeds provides HTTP handlers for previewing, storing and rendering
// embedded assets.
package embeds

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"EmbeddedAssets/internal/api/handlers"
	"EmbeddedAssets/internal/core/embeds"
)

// maxBodyBytes bounds request bodies; they only carry a URL.
const maxBodyBytes = 64 * 1024

// Handler serves the /embeds endpoints.
type Handler struct {
	service   embeds.Service
	delegates embeds.Delegates
}

// NewHandler creates a new embeds handler
func NewHandler(service embeds.Service, delegates embeds.Delegates) *Handler {
	return &Handler{service: service, delegates: delegates}
}

type urlRequest struct {
	URL string `json:"url"`
}

// StoredEmbedView is the JSON shape of a stored embed.
type StoredEmbedView struct {
	ID           string                 `json:"id"`
	Asset        map[string]interface{} `json:"asset"`
	ThumbnailURL string                 `json:"thumbnailUrl,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

func storedView(s *embeds.StoredEmbed) StoredEmbedView {
	return StoredEmbedView{
		ID:           s.ID,
		Asset:        s.Asset.ToSerializable(),
		ThumbnailURL: s.ThumbnailURL,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// HandlePreview extracts and validates a URL without storing it.
// POST /embeds/preview {"url": "..."}
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeURLRequest(w, r)
	if !ok {
		return
	}

	asset, err := h.service.Preview(r.Context(), req.URL)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, asset.ToSerializable())
}

// HandleCreate extracts and stores a URL, replacing any existing record for it.
// POST /embeds {"url": "..."}
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeURLRequest(w, r)
	if !ok {
		return
	}

	asset, err := h.service.Preview(r.Context(), req.URL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	stored, err := h.service.Save(r.Context(), asset)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, storedView(stored))
}

// HandleGet returns a stored embed.
// GET /embeds/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.load(w, r)
	if !ok {
		return
	}
	handlers.WriteJSON(w, http.StatusOK, storedView(stored))
}

// HandleLookup returns the stored embed for a source URL.
// GET /embeds?url=...
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "url parameter is required")
		return
	}

	stored, err := h.service.GetByURL(r.Context(), target)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, storedView(stored))
}

// HandleRefresh re-extracts a stored embed.
// POST /embeds/{id}/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	stored, err := h.service.Refresh(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, storedView(stored))
}

// HandleIframeSrc returns the iframe src with ?param=k=v overrides applied.
// GET /embeds/{id}/iframe-src
func (h *Handler) HandleIframeSrc(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.load(w, r)
	if !ok {
		return
	}
	src, err := stored.Asset.IframeSrc(params(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]string{"src": src})
}

// HandleIframeCode returns the iframe markup with its src overridden.
// GET /embeds/{id}/iframe-code
func (h *Handler) HandleIframeCode(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.load(w, r)
	if !ok {
		return
	}
	code, err := stored.Asset.IframeCode(params(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]string{"code": string(code)})
}

// HandleVideoURL returns the video URL with params appended, or null for
// non-video assets.
// GET /embeds/{id}/video-url
func (h *Handler) HandleVideoURL(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.load(w, r)
	if !ok {
		return
	}
	u, err := stored.Asset.VideoURL(params(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]*string{"url": optional(u)})
}

// HandleVideoCode returns video markup with params appended to its src.
// GET /embeds/{id}/video-code
func (h *Handler) HandleVideoCode(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.load(w, r)
	if !ok {
		return
	}
	code, err := stored.Asset.VideoCode(params(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]string{"code": string(code)})
}

// HandleVideoID returns the YouTube or Vimeo video ID, or null.
// GET /embeds/{id}/video-id
func (h *Handler) HandleVideoID(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.load(w, r)
	if !ok {
		return
	}
	id, err := stored.Asset.VideoID()
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]*string{"videoId": optional(id)})
}

// HandleHTML renders the embed for display.
// GET /embeds/{id}/html
func (h *Handler) HandleHTML(w http.ResponseWriter, r *http.Request) {
	stored, ok := h.load(w, r)
	if !ok {
		return
	}
	out, err := h.delegates.HTML(stored.Asset)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Embed-Safe", strconv.FormatBool(h.delegates.IsSafe(stored.Asset)))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, string(out))
}

// HandleImage resolves the asset image for ?size=N.
// GET /embeds/{id}/image
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	h.handleSized(w, r, h.delegates.ImageToSize)
}

// HandleProviderIcon resolves the provider icon for ?size=N.
// GET /embeds/{id}/provider-icon
func (h *Handler) HandleProviderIcon(w http.ResponseWriter, r *http.Request) {
	h.handleSized(w, r, h.delegates.ProviderIconToSize)
}

type sizedResolver func(ctx context.Context, a *embeds.EmbeddedAsset, size int) (*embeds.ImageSize, error)

func (h *Handler) handleSized(w http.ResponseWriter, r *http.Request, resolve sizedResolver) {
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "size must be a positive integer")
		return
	}

	stored, ok := h.load(w, r)
	if !ok {
		return
	}

	img, err := resolve(r.Context(), stored.Asset, size)
	if err != nil {
		slog.Warn("[EMBEDS] image resolution failed", "id", stored.ID, "size", size, "error", err)
		handlers.WriteError(w, http.StatusBadGateway, "ImageUnavailable", "Could not resolve image")
		return
	}
	if img == nil {
		handlers.WriteError(w, http.StatusNotFound, "NotFound", "Embedded asset has no image")
		return
	}
	handlers.WriteJSON(w, http.StatusOK, img)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*embeds.StoredEmbed, bool) {
	stored, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return nil, false
	}
	return stored, true
}

func decodeURLRequest(w http.ResponseWriter, r *http.Request) (urlRequest, bool) {
	var req urlRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "request body is required")
		} else {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "invalid JSON body")
		}
		return req, false
	}
	return req, true
}

// params collects repeated ?param=k=v query values.
func params(r *http.Request) []string {
	return r.URL.Query()["param"]
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
