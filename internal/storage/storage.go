// Package storage holds the asset stores thumbnails and resized images are
// written to.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	// ErrExists is returned by Save when an object with the name is already stored.
	ErrExists = errors.New("object already exists")

	// ErrInvalidName is returned when a name is empty or escapes the store root.
	ErrInvalidName = errors.New("invalid object name")
)

// Storage persists named objects and reports their public location.
type Storage interface {
	// Save writes r under name and returns its public URL. It never
	// overwrites: an existing name yields ErrExists.
	Save(ctx context.Context, name string, r io.Reader) (string, error)

	// Exists reports whether name is stored.
	Exists(ctx context.Context, name string) (bool, error)

	// URL returns the public URL name is (or would be) served from.
	URL(name string) string
}

// CleanName normalizes name into a slash separated key and rejects traversal.
// Inner "/" separators are kept so callers can group objects by prefix.
func CleanName(name string) (string, error) {
	s := strings.ReplaceAll(name, "\\", "/")
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.Trim(s, "/")

	parts := strings.Split(s, "/")
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			return "", ErrInvalidName
		}
	}
	return s, nil
}

func joinURL(base, name string) string {
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		return name
	}
	return base + "/" + name
}
