// Package thumbnails derives stored thumbnail assets from an embed's remote
// image.
package thumbnails

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"EmbeddedAssets/internal/core/embeds"
	"EmbeddedAssets/internal/core/imageproxy"
	"EmbeddedAssets/internal/storage"
)

// ErrUnsupportedType is returned when the downloaded file is not an allowed image type.
var ErrUnsupportedType = errors.New("unsupported thumbnail type")

// Service implements embeds.ThumbnailStore.
type Service struct {
	store   storage.Storage
	fetcher imageproxy.Fetcher
	prefix  string
	newID   func() string
}

var _ embeds.ThumbnailStore = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithPrefix stores thumbnails below prefix.
func WithPrefix(prefix string) Option {
	return func(s *Service) {
		s.prefix = prefix
	}
}

// WithIDGenerator replaces the uuid source used for names.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// NewService creates a thumbnail service.
func NewService(store storage.Storage, fetcher imageproxy.Fetcher, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: storage", embeds.ErrNilDependency)
	}
	if fetcher == nil {
		return nil, fmt.Errorf("%w: fetcher", embeds.ErrNilDependency)
	}

	s := &Service{
		store:   store,
		fetcher: fetcher,
		prefix:  "thumbnails",
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// StoreThumbnail downloads imageURL and stores it as embed_<uuid>.<ext>.
// Flow:
// 1. Fetch the image (size limited by the fetcher)
// 2. Sniff the content type; only jpeg, png, gif and webp are kept
// 3. Save under a fresh name, never overwriting
func (s *Service) StoreThumbnail(ctx context.Context, imageURL string) (string, error) {
	if imageURL == "" {
		return "", fmt.Errorf("image URL cannot be empty")
	}

	data, err := s.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return "", err
	}

	mime := mimetype.Detect(data)
	ext, ok := extensionFor(mime)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mime.String())
	}

	name := Filename(s.newID(), ext)
	if s.prefix != "" {
		name = s.prefix + "/" + name
	}

	publicURL, err := s.store.Save(ctx, name, bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, storage.ErrExists) {
			return "", fmt.Errorf("%w: %s", embeds.ErrFilenameCollision, name)
		}
		return "", fmt.Errorf("failed to store thumbnail: %w", err)
	}

	slog.Debug("[THUMBNAILS] stored thumbnail",
		"source", imageURL,
		"name", name,
		"mime", mime.String(),
		"size_bytes", len(data),
	)
	return publicURL, nil
}

// Filename builds the stored name for id and an extension with its dot.
func Filename(id, ext string) string {
	return "embed_" + id + ext
}

func extensionFor(mime *mimetype.MIME) (string, bool) {
	switch {
	case mime.Is("image/jpeg"):
		return ".jpg", true
	case mime.Is("image/png"):
		return ".png", true
	case mime.Is("image/gif"):
		return ".gif", true
	case mime.Is("image/webp"):
		return ".webp", true
	default:
		return "", false
	}
}
