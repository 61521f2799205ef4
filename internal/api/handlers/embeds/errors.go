package embeds

import (
	"errors"
	"log/slog"
	"net/http"

	"EmbeddedAssets/internal/api/handlers"
	"EmbeddedAssets/internal/core/embeds"
	"EmbeddedAssets/internal/core/extract"
)

// handleServiceError converts service and accessor errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error) {
	var validationErr *embeds.ValidationError

	switch {
	case errors.As(err, &validationErr):
		handlers.WriteJSON(w, http.StatusUnprocessableEntity, handlers.ErrorResponse{
			Error:   "InvalidEmbed",
			Message: validationErr.Error(),
			Fields:  validationErr.Fields,
		})
	case errors.Is(err, embeds.ErrNotFound):
		handlers.WriteError(w, http.StatusNotFound, "NotFound", "Embedded asset not found")
	case errors.Is(err, embeds.ErrInvalidEmbedShape), errors.Is(err, embeds.ErrMissingSource):
		handlers.WriteError(w, http.StatusConflict, "NotAnIframe", err.Error())
	case errors.Is(err, embeds.ErrNotVideo):
		handlers.WriteError(w, http.StatusConflict, "NotAVideo", err.Error())
	case errors.Is(err, embeds.ErrFilenameCollision):
		handlers.WriteError(w, http.StatusConflict, "Collision", "Thumbnail name collision, please retry")
	case errors.Is(err, embeds.ErrMalformedProviderURL), errors.Is(err, embeds.ErrNoTag):
		handlers.WriteError(w, http.StatusUnprocessableEntity, "MalformedEmbed", err.Error())
	case errors.Is(err, extract.ErrUnsupportedURL):
		handlers.WriteError(w, http.StatusUnprocessableEntity, "UnsupportedURL", "URL must be an absolute http(s) URL")
	case errors.Is(err, extract.ErrCircuitOpen):
		handlers.WriteError(w, http.StatusServiceUnavailable, "ProviderUnavailable", "Provider is temporarily unavailable")
	case errors.Is(err, embeds.ErrExtractionFailed):
		slog.Warn("[EMBEDS] extraction failed", "error", err)
		handlers.WriteError(w, http.StatusBadGateway, "ExtractionFailed", "Could not extract metadata from URL")
	default:
		slog.Error("[EMBEDS] unhandled service error", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}
