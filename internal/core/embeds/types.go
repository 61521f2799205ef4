package embeds

import "time"

// Embed types accepted by the legacy Type field.
const (
	TypeLink  = "link"
	TypeImage = "image"
	TypeVideo = "video"
	TypeRich  = "rich"
)

// validTypes is the enumerated range of the legacy Type field.
var validTypes = map[string]bool{
	TypeLink:  true,
	TypeImage: true,
	TypeVideo: true,
	TypeRich:  true,
}

// EmbeddedAsset is the normalized metadata for a piece of remotely hosted
// content (video, image, rich widget) referenced by URL.
//
// Optional fields use their zero value for "absent". Code holds the raw embed
// markup returned by the extraction backend; it is untrusted and always
// serializes as a flat string.
type EmbeddedAsset struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	URL           string   `json:"url"`
	Feeds         []string `json:"feeds,omitempty"`
	Image         string   `json:"image,omitempty"`
	Code          string   `json:"code,omitempty"`
	Width         int      `json:"width,omitempty"`
	Height        int      `json:"height,omitempty"`
	AspectRatio   float64  `json:"aspectRatio,omitempty"`
	AuthorName    string   `json:"authorName,omitempty"`
	AuthorURL     string   `json:"authorUrl,omitempty"`
	ProviderIcon  string   `json:"providerIcon,omitempty"`
	ProviderName  string   `json:"providerName,omitempty"`
	ProviderURL   string   `json:"providerUrl,omitempty"`
	PublishedTime string   `json:"publishedTime,omitempty"`
	License       string   `json:"license,omitempty"`
	CMS           string   `json:"cms,omitempty"`
	Favicon       string   `json:"favicon,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	Language      string   `json:"language,omitempty"`
	Languages     []string `json:"languages,omitempty"`
	Redirect      string   `json:"redirect,omitempty"`

	// Deprecated: only populated when decoding payloads stored by the
	// previous extraction protocol. New validation paths never require them.
	Type          string     `json:"type,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Images        []ImageRef `json:"images,omitempty"`
	ImageWidth    int        `json:"imageWidth,omitempty"`
	ImageHeight   int        `json:"imageHeight,omitempty"`
	ProviderIcons []ImageRef `json:"providerIcons,omitempty"`
}

// ImageRef is one entry of the legacy images / providerIcons lists.
type ImageRef struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Size   int    `json:"size,omitempty"`
	Mime   string `json:"mime,omitempty"`
}

// ImageSize is an image reference resolved for a target size.
type ImageSize struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// IsVideo reports whether the asset carries the video type.
func (a *EmbeddedAsset) IsVideo() bool {
	return a != nil && a.Type == TypeVideo
}

// StoredEmbed is an embedded asset as owned by the persistence layer.
type StoredEmbed struct {
	ID           string         `json:"id"`
	Asset        *EmbeddedAsset `json:"asset"`
	ThumbnailURL string         `json:"thumbnailUrl,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}
