package embeds

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidEmbedShape is returned when an iframe accessor is used on code
	// that is not a single <iframe ...></iframe> element.
	ErrInvalidEmbedShape = errors.New("embedded asset code is not an iframe")

	// ErrNotVideo is returned by video accessors that require the video type.
	ErrNotVideo = errors.New("embedded asset type is not video")

	// ErrMalformedProviderURL is returned when a provider embed URL does not
	// have the path shape the video ID resolver expects.
	ErrMalformedProviderURL = errors.New("unexpected provider URL shape")

	// ErrMissingSource is returned when the embed code carries no src attribute.
	ErrMissingSource = errors.New("embedded asset code has no src attribute")

	// ErrNoTag is returned when markup contains no recognizable tag.
	ErrNoTag = errors.New("markup contains no tag")

	// ErrFilenameCollision is returned by thumbnail storage when a derived
	// filename already exists.
	ErrFilenameCollision = errors.New("collision when storing thumbnail")

	// ErrNotFound is returned when no stored embed exists for an ID or URL.
	ErrNotFound = errors.New("embedded asset not found")

	// ErrExtractionFailed wraps errors from the extraction backend.
	ErrExtractionFailed = errors.New("metadata extraction failed")

	// ErrNilDependency is returned when a required collaborator is nil.
	ErrNilDependency = errors.New("required dependency is nil")
)

// FieldError describes one violated validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError accumulates every violated rule of a record.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "invalid embedded asset: " + strings.Join(parts, "; ")
}

// Has reports whether field has at least one violation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}
