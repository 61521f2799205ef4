package imageproxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Fetcher retrieves source image bytes.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string) ([]byte, error)
}

// HTTPFetcher fetches images over http(s) with a size limit.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	maxSizeBytes int64
}

// DefaultMaxSourceSizeMB is the default maximum source image size if not configured.
const DefaultMaxSourceSizeMB = 10

// NewHTTPFetcher creates a fetcher with the specified timeout.
// maxSizeMB specifies the maximum allowed image size in megabytes (0 uses default of 10MB).
func NewHTTPFetcher(timeout time.Duration, maxSizeMB int, userAgent string) *HTTPFetcher {
	if maxSizeMB <= 0 {
		maxSizeMB = DefaultMaxSourceSizeMB
	}
	if userAgent == "" {
		userAgent = "EmbeddedAssets-ImageProxy/1.0"
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent:    userAgent,
		maxSizeBytes: int64(maxSizeMB) * 1024 * 1024,
	}
}

// Fetch retrieves the image at sourceURL.
// Returns:
//   - ErrInvalidSourceURL if sourceURL is not an absolute http(s) URL
//   - ErrSourceNotFound on 404/410 responses
//   - ErrFetchTimeout if the request times out or context is cancelled
//   - ErrImageTooLarge if the body exceeds the size limit
//   - ErrFetchFailed for any other error
func (f *HTTPFetcher) Fetch(ctx context.Context, sourceURL string) ([]byte, error) {
	u, err := url.Parse(sourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSourceURL, sourceURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetchTimeout, ctx.Err())
		}
		if isTimeoutError(err) {
			return nil, fmt.Errorf("%w: request timed out", ErrFetchTimeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if resp.ContentLength > f.maxSizeBytes {
			return nil, fmt.Errorf("%w: content length %d exceeds maximum %d bytes",
				ErrImageTooLarge, resp.ContentLength, f.maxSizeBytes)
		}

		// Read one byte past the limit to detect oversize bodies without Content-Length.
		data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSizeBytes+1))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read response body: %v", ErrFetchFailed, err)
		}
		if int64(len(data)) > f.maxSizeBytes {
			return nil, fmt.Errorf("%w: response body exceeds maximum %d bytes",
				ErrImageTooLarge, f.maxSizeBytes)
		}
		return data, nil

	case http.StatusNotFound, http.StatusGone:
		return nil, ErrSourceNotFound

	default:
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrFetchFailed, resp.StatusCode)
	}
}

// isTimeoutError checks if the error is a timeout-related error.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if te, ok := err.(interface{ Timeout() bool }); ok {
		return te.Timeout()
	}
	return false
}
