package embeds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Service extracts, validates and stores embedded assets.
type Service interface {
	// Preview extracts metadata for url and returns the validated record
	// without storing it.
	Preview(ctx context.Context, url string) (*EmbeddedAsset, error)

	// Save validates the asset, derives its thumbnail and stores it,
	// replacing any record with the same URL.
	Save(ctx context.Context, asset *EmbeddedAsset) (*StoredEmbed, error)

	Get(ctx context.Context, id string) (*StoredEmbed, error)
	GetByURL(ctx context.Context, url string) (*StoredEmbed, error)

	// Refresh re-extracts the stored record's URL and replaces it wholesale.
	Refresh(ctx context.Context, id string) (*StoredEmbed, error)
}

type service struct {
	repo       Repository
	extractor  Extractor
	thumbnails ThumbnailStore
	validator  Validator
}

// ServiceOption configures the service
type ServiceOption func(*service)

// WithThumbnailStore enables thumbnail derivation on Save.
func WithThumbnailStore(store ThumbnailStore) ServiceOption {
	return func(s *service) {
		s.thumbnails = store
	}
}

// WithValidator replaces the default validator.
func WithValidator(v Validator) ServiceOption {
	return func(s *service) {
		s.validator = v
	}
}

// NewService creates a new embeds service. Returns an error if a required
// dependency is nil.
func NewService(repo Repository, extractor Extractor, opts ...ServiceOption) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("%w: repository", ErrNilDependency)
	}
	if extractor == nil {
		return nil, fmt.Errorf("%w: extractor", ErrNilDependency)
	}

	s := &service{
		repo:      repo,
		extractor: extractor,
		validator: NewValidator(DefaultMaxStringLength),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *service) Preview(ctx context.Context, url string) (*EmbeddedAsset, error) {
	url = WithDefaultScheme(strings.TrimSpace(url))
	if url == "" {
		return nil, &ValidationError{Fields: []FieldError{{Field: "url", Message: "cannot be blank"}}}
	}

	raw, err := s.extractor.Extract(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrExtractionFailed, url, err)
	}

	asset, err := FromRaw(raw)
	if err != nil {
		return nil, err
	}
	if asset.URL == "" {
		asset.URL = url
	}
	asset = asset.Normalized()

	if err := s.validator.Validate(asset); err != nil {
		return nil, err
	}
	return asset, nil
}

func (s *service) Save(ctx context.Context, asset *EmbeddedAsset) (*StoredEmbed, error) {
	asset = asset.Normalized()
	if err := s.validator.Validate(asset); err != nil {
		return nil, err
	}

	thumbnailURL, err := s.storeThumbnail(ctx, asset)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.Upsert(ctx, asset, thumbnailURL)
	if err != nil {
		return nil, fmt.Errorf("failed to store embed for %s: %w", asset.URL, err)
	}

	slog.Info("[EMBEDS] saved embed",
		"id", stored.ID,
		"url", asset.URL,
		"has_thumbnail", thumbnailURL != "",
	)
	return stored, nil
}

// storeThumbnail returns "" when no thumbnail could be derived. Only a name
// collision is reported to the caller.
func (s *service) storeThumbnail(ctx context.Context, asset *EmbeddedAsset) (string, error) {
	if s.thumbnails == nil || asset.Image == "" {
		return "", nil
	}

	thumbnailURL, err := s.thumbnails.StoreThumbnail(ctx, asset.Image)
	if err != nil {
		if errors.Is(err, ErrFilenameCollision) {
			return "", err
		}
		slog.Warn("[EMBEDS] thumbnail derivation failed, storing without thumbnail",
			"url", asset.URL,
			"image", asset.Image,
			"error", err,
		)
		return "", nil
	}
	return thumbnailURL, nil
}

func (s *service) Get(ctx context.Context, id string) (*StoredEmbed, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByURL(ctx context.Context, url string) (*StoredEmbed, error) {
	url = WithDefaultScheme(strings.TrimSpace(url))
	if url == "" {
		return nil, ErrNotFound
	}
	return s.repo.GetByURL(ctx, url)
}

func (s *service) Refresh(ctx context.Context, id string) (*StoredEmbed, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	asset, err := s.Preview(ctx, existing.Asset.URL)
	if err != nil {
		return nil, err
	}
	// Keep the record keyed by the stored URL even if the provider
	// reports a canonical one.
	asset.URL = existing.Asset.URL

	return s.Save(ctx, asset)
}
