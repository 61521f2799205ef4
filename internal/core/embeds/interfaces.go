package embeds

import (
	"context"
	"html/template"
)

// Extractor fetches remote metadata for a URL and returns it as a raw
// key/value map. Keys follow the record's JSON names; unknown keys are ignored.
type Extractor interface {
	Extract(ctx context.Context, url string) (map[string]interface{}, error)
}

// SafetyEvaluator decides whether an asset's markup may be emitted unescaped.
type SafetyEvaluator interface {
	IsEmbedSafe(a *EmbeddedAsset) bool
}

// Renderer produces display markup for an asset.
type Renderer interface {
	RenderEmbedHTML(a *EmbeddedAsset) (template.HTML, error)
}

// ImageResolver returns a resized variant of the image at url whose larger
// side is at most size pixels.
type ImageResolver interface {
	ResolveImage(ctx context.Context, url string, size int) (*ImageSize, error)
}

// ThumbnailStore derives a stored thumbnail from a remote image and returns
// its public URL. Implementations return ErrFilenameCollision when the
// generated name is already taken.
type ThumbnailStore interface {
	StoreThumbnail(ctx context.Context, imageURL string) (string, error)
}

// Repository persists embedded assets keyed by their source URL.
type Repository interface {
	// Upsert stores the asset, replacing any record with the same URL.
	Upsert(ctx context.Context, asset *EmbeddedAsset, thumbnailURL string) (*StoredEmbed, error)

	// GetByID returns ErrNotFound when no record has the given ID.
	GetByID(ctx context.Context, id string) (*StoredEmbed, error)

	// GetByURL returns ErrNotFound when no record has the given URL.
	GetByURL(ctx context.Context, url string) (*StoredEmbed, error)
}
