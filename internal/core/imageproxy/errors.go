package imageproxy

import "errors"

var (
	// ErrInvalidSize is returned when the requested target size is not positive.
	ErrInvalidSize = errors.New("invalid target size")

	// ErrInvalidSourceURL is returned when the source is not an absolute http(s) URL.
	ErrInvalidSourceURL = errors.New("invalid source image URL")

	// ErrFetchFailed is returned when fetching the source image fails for any reason.
	ErrFetchFailed = errors.New("failed to fetch source image")

	// ErrSourceNotFound is returned when the source image does not exist.
	ErrSourceNotFound = errors.New("source image not found")

	// ErrFetchTimeout is returned when a fetch exceeds the configured timeout.
	ErrFetchTimeout = errors.New("source image request timed out")

	// ErrUnsupportedFormat is returned when the source image format cannot be processed.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrImageTooLarge is returned when the source image exceeds the maximum allowed size.
	ErrImageTooLarge = errors.New("source image exceeds size limit")

	// ErrProcessingFailed is returned when image processing fails for any reason.
	ErrProcessingFailed = errors.New("image processing failed")

	// ErrNilDependency is returned when a required dependency is nil.
	ErrNilDependency = errors.New("required dependency is nil")
)
