package extract

import "errors"

var (
	// ErrUnsupportedURL is returned for URLs that are not absolute http(s) URLs
	ErrUnsupportedURL = errors.New("unsupported URL")

	// ErrCircuitOpen is returned when a provider has failed repeatedly and is
	// temporarily skipped
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrFetchFailed is returned when a remote document could not be retrieved
	ErrFetchFailed = errors.New("failed to fetch remote document")

	// ErrNoMetadata is returned when a page yields neither a title nor embed code
	ErrNoMetadata = errors.New("no embeddable metadata found")
)
