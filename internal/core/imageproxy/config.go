package imageproxy

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config validation errors
var (
	// ErrInvalidFetchTimeout is returned when FetchTimeout is not positive
	ErrInvalidFetchTimeout = errors.New("FetchTimeout must be positive")
	// ErrInvalidMaxSourceSize is returned when MaxSourceSizeMB is not positive
	ErrInvalidMaxSourceSize = errors.New("MaxSourceSizeMB must be positive")
	// ErrInvalidQuality is returned when Quality is outside the JPEG range
	ErrInvalidQuality = errors.New("Quality must be between 1 and 100")
	// ErrInvalidMemoTTL is returned when MemoTTL is negative
	ErrInvalidMemoTTL = errors.New("MemoTTL cannot be negative")
)

// Config holds the configuration for the image resolver.
type Config struct {
	// FetchTimeout is the maximum time allowed for fetching a source image.
	FetchTimeout time.Duration

	// MaxSourceSizeMB is the maximum allowed size for source images in megabytes.
	MaxSourceSizeMB int

	// Quality is the JPEG quality of resized variants.
	Quality int

	// MemoTTL is how long resolved variants are remembered in memory.
	// Zero keeps them until the process exits.
	MemoTTL time.Duration

	// Prefix is the storage name prefix for resized variants.
	Prefix string
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidFetchTimeout, c.FetchTimeout)
	}
	if c.MaxSourceSizeMB <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxSourceSize, c.MaxSourceSizeMB)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuality, c.Quality)
	}
	if c.MemoTTL < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidMemoTTL, c.MemoTTL)
	}
	return nil
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		FetchTimeout:    30 * time.Second,
		MaxSourceSizeMB: DefaultMaxSourceSizeMB,
		Quality:         85,
		MemoTTL:         time.Hour,
		Prefix:          "images",
	}
}

// ConfigFromEnv creates a Config from environment variables.
// Uses defaults for any missing environment variables.
//
// Environment variables:
//   - IMAGE_PROXY_FETCH_TIMEOUT_SECONDS: source fetch timeout in seconds (default: 30)
//   - IMAGE_PROXY_MAX_SOURCE_SIZE_MB: max source image size in MB (default: 10)
//   - IMAGE_PROXY_QUALITY: JPEG quality 1-100 (default: 85)
//   - IMAGE_PROXY_MEMO_TTL_MINUTES: in-memory memo lifetime, 0 for no expiry (default: 60)
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("IMAGE_PROXY_FETCH_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FetchTimeout = time.Duration(n) * time.Second
		} else {
			slog.Warn("[IMAGE-PROXY] invalid IMAGE_PROXY_FETCH_TIMEOUT_SECONDS value, using default",
				"value", v,
				"default_seconds", int(cfg.FetchTimeout.Seconds()),
				"error", err,
			)
		}
	}

	if v := os.Getenv("IMAGE_PROXY_MAX_SOURCE_SIZE_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSourceSizeMB = n
		} else {
			slog.Warn("[IMAGE-PROXY] invalid IMAGE_PROXY_MAX_SOURCE_SIZE_MB value, using default",
				"value", v,
				"default", cfg.MaxSourceSizeMB,
				"error", err,
			)
		}
	}

	if v := os.Getenv("IMAGE_PROXY_QUALITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 100 {
			cfg.Quality = n
		} else {
			slog.Warn("[IMAGE-PROXY] invalid IMAGE_PROXY_QUALITY value, using default",
				"value", v,
				"default", cfg.Quality,
				"error", err,
			)
		}
	}

	if v := os.Getenv("IMAGE_PROXY_MEMO_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MemoTTL = time.Duration(n) * time.Minute
		} else {
			slog.Warn("[IMAGE-PROXY] invalid IMAGE_PROXY_MEMO_TTL_MINUTES value, using default",
				"value", v,
				"default_minutes", int(cfg.MemoTTL.Minutes()),
				"error", err,
			)
		}
	}

	return cfg
}
