// Package imageproxy provides the HTTP handler that redirects to resized
// image variants.
package imageproxy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"EmbeddedAssets/internal/core/embeds"
	"EmbeddedAssets/internal/core/imageproxy"
)

// maxSize caps the requested variant size.
const maxSize = 4096

// Handler handles HTTP requests for the image proxy.
type Handler struct {
	resolver embeds.ImageResolver
}

// NewHandler creates a new image proxy handler.
func NewHandler(resolver embeds.ImageResolver) *Handler {
	return &Handler{resolver: resolver}
}

// HandleImage handles GET /img?url={source}&size={n}
// It resolves the stored variant and redirects to it.
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("url")
	if source == "" {
		writeErrorResponse(w, http.StatusBadRequest, "missing url parameter")
		return
	}

	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 || size > maxSize {
		writeErrorResponse(w, http.StatusBadRequest, "size must be between 1 and "+strconv.Itoa(maxSize))
		return
	}

	img, err := h.resolver.ResolveImage(r.Context(), source, size)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Image-Width", strconv.Itoa(img.Width))
	w.Header().Set("X-Image-Height", strconv.Itoa(img.Height))
	http.Redirect(w, r, img.URL, http.StatusFound)
}

// handleServiceError converts resolver errors to appropriate HTTP responses.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, imageproxy.ErrSourceNotFound):
		writeErrorResponse(w, http.StatusNotFound, "image not found")
	case errors.Is(err, imageproxy.ErrFetchTimeout), errors.Is(err, context.DeadlineExceeded):
		writeErrorResponse(w, http.StatusGatewayTimeout, "request timed out")
	case errors.Is(err, imageproxy.ErrFetchFailed):
		writeErrorResponse(w, http.StatusBadGateway, "failed to fetch image")
	case errors.Is(err, imageproxy.ErrInvalidSourceURL), errors.Is(err, imageproxy.ErrInvalidSize):
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, imageproxy.ErrUnsupportedFormat):
		writeErrorResponse(w, http.StatusBadRequest, "unsupported image format")
	case errors.Is(err, imageproxy.ErrImageTooLarge):
		writeErrorResponse(w, http.StatusBadRequest, "image too large")
	case errors.Is(err, imageproxy.ErrProcessingFailed):
		writeErrorResponse(w, http.StatusInternalServerError, "image processing failed")
	default:
		slog.Error("[IMAGE-PROXY] unhandled service error",
			"error", err,
		)
		writeErrorResponse(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeErrorResponse writes a plain text error response; clients of this
// endpoint expect image data, not JSON.
func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(message)); err != nil {
		slog.Warn("[IMAGE-PROXY] failed to write error response",
			"status", status,
			"message", message,
			"error", err,
		)
	}
}
