package embeds

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ToSerializable returns the flat key-value projection of the asset used for
// persistence. Code is stored as a plain string and never expanded.
func (a *EmbeddedAsset) ToSerializable() map[string]interface{} {
	out := map[string]interface{}{
		"title": a.Title,
		"url":   a.URL,
	}

	putString := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	putStrings := func(key string, value []string) {
		if len(value) > 0 {
			out[key] = cloneStrings(value)
		}
	}
	putInt := func(key string, value int) {
		if value != 0 {
			out[key] = value
		}
	}
	putImages := func(key string, value []ImageRef) {
		if len(value) > 0 {
			out[key] = append([]ImageRef(nil), value...)
		}
	}

	putString("description", a.Description)
	putStrings("feeds", a.Feeds)
	putString("image", a.Image)
	putString("code", a.Code)
	putInt("width", a.Width)
	putInt("height", a.Height)
	if a.AspectRatio != 0 {
		out["aspectRatio"] = a.AspectRatio
	}
	putString("authorName", a.AuthorName)
	putString("authorUrl", a.AuthorURL)
	putString("providerIcon", a.ProviderIcon)
	putString("providerName", a.ProviderName)
	putString("providerUrl", a.ProviderURL)
	putString("publishedTime", a.PublishedTime)
	putString("license", a.License)
	putString("cms", a.CMS)
	putString("favicon", a.Favicon)
	putStrings("keywords", a.Keywords)
	putString("language", a.Language)
	putStrings("languages", a.Languages)
	putString("redirect", a.Redirect)

	putString("type", a.Type)
	putStrings("tags", a.Tags)
	putImages("images", a.Images)
	putInt("imageWidth", a.ImageWidth)
	putInt("imageHeight", a.ImageHeight)
	putImages("providerIcons", a.ProviderIcons)

	return out
}

// MarshalStored encodes the serializable projection as JSON.
func (a *EmbeddedAsset) MarshalStored() ([]byte, error) {
	return json.Marshal(a.ToSerializable())
}

// storedAsset is the tolerant wire shape accepted when decoding. It covers
// the current field names, the snake_case names used by oEmbed responses and
// the shapes written by earlier protocol versions.
type storedAsset struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	URL           string          `json:"url"`
	Feeds         []string        `json:"feeds"`
	Image         string          `json:"image"`
	Code          json.RawMessage `json:"code"`
	Width         json.Number     `json:"width"`
	Height        json.Number     `json:"height"`
	AspectRatio   json.Number     `json:"aspectRatio"`
	AuthorName    string          `json:"authorName"`
	AuthorURL     string          `json:"authorUrl"`
	ProviderIcon  string          `json:"providerIcon"`
	ProviderName  string          `json:"providerName"`
	ProviderURL   string          `json:"providerUrl"`
	PublishedTime string          `json:"publishedTime"`
	License       string          `json:"license"`
	CMS           string          `json:"cms"`
	Favicon       string          `json:"favicon"`
	Keywords      []string        `json:"keywords"`
	Language      string          `json:"language"`
	Languages     []string        `json:"languages"`
	Redirect      string          `json:"redirect"`

	Type          string          `json:"type"`
	Tags          []string        `json:"tags"`
	Images        json.RawMessage `json:"images"`
	ImageWidth    json.Number     `json:"imageWidth"`
	ImageHeight   json.Number     `json:"imageHeight"`
	ProviderIcons json.RawMessage `json:"providerIcons"`

	// oEmbed spellings
	OEmbedHTML         string      `json:"html"`
	OEmbedAuthorName   string      `json:"author_name"`
	OEmbedAuthorURL    string      `json:"author_url"`
	OEmbedProviderName string      `json:"provider_name"`
	OEmbedProviderURL  string      `json:"provider_url"`
	OEmbedThumbnailURL string      `json:"thumbnail_url"`
	OEmbedThumbWidth   json.Number `json:"thumbnail_width"`
	OEmbedThumbHeight  json.Number `json:"thumbnail_height"`
}

// FromStored reconstructs an asset from its persisted JSON projection.
// Unknown keys are ignored.
func FromStored(data []byte) (*EmbeddedAsset, error) {
	var s storedAsset
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode stored embedded asset: %w", err)
	}
	return s.toAsset()
}

// FromRaw maps the key/value metadata produced by an extraction backend onto
// an asset. Unknown keys are ignored.
func FromRaw(raw map[string]interface{}) (*EmbeddedAsset, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode raw metadata: %w", err)
	}
	return FromStored(data)
}

func (s *storedAsset) toAsset() (*EmbeddedAsset, error) {
	a := &EmbeddedAsset{
		Title:         s.Title,
		Description:   s.Description,
		URL:           s.URL,
		Feeds:         s.Feeds,
		Image:         firstNonEmpty(s.Image, s.OEmbedThumbnailURL),
		AuthorName:    firstNonEmpty(s.AuthorName, s.OEmbedAuthorName),
		AuthorURL:     firstNonEmpty(s.AuthorURL, s.OEmbedAuthorURL),
		ProviderIcon:  s.ProviderIcon,
		ProviderName:  firstNonEmpty(s.ProviderName, s.OEmbedProviderName),
		ProviderURL:   firstNonEmpty(s.ProviderURL, s.OEmbedProviderURL),
		PublishedTime: s.PublishedTime,
		License:       s.License,
		CMS:           s.CMS,
		Favicon:       s.Favicon,
		Keywords:      s.Keywords,
		Language:      s.Language,
		Languages:     s.Languages,
		Redirect:      s.Redirect,
		Type:          s.Type,
		Tags:          s.Tags,
	}

	code, err := decodeCode(s.Code)
	if err != nil {
		return nil, err
	}
	a.Code = firstNonEmpty(code, s.OEmbedHTML)

	ints := []struct {
		name string
		num  json.Number
		dst  *int
	}{
		{"width", s.Width, &a.Width},
		{"height", s.Height, &a.Height},
		{"imageWidth", firstNumber(s.ImageWidth, s.OEmbedThumbWidth), &a.ImageWidth},
		{"imageHeight", firstNumber(s.ImageHeight, s.OEmbedThumbHeight), &a.ImageHeight},
	}
	for _, n := range ints {
		v, err := numberToInt(n.num)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", n.name, err)
		}
		*n.dst = v
	}

	if s.AspectRatio != "" {
		ratio, err := s.AspectRatio.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid aspectRatio: %w", err)
		}
		a.AspectRatio = ratio
	}

	if a.Images, err = decodeImageRefs(s.Images); err != nil {
		return nil, fmt.Errorf("invalid images: %w", err)
	}
	if a.ProviderIcons, err = decodeImageRefs(s.ProviderIcons); err != nil {
		return nil, fmt.Errorf("invalid providerIcons: %w", err)
	}

	return a, nil
}

// decodeCode reads the code field. Payloads written by the earlier
// recursive serializer hold an object where the markup used to be; the
// markup is lost in that case and code decodes as absent.
func decodeCode(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", nil
	}

	var code string
	if err := json.Unmarshal(trimmed, &code); err != nil {
		return "", fmt.Errorf("invalid code: %w", err)
	}
	return code, nil
}

// imageRefWire accepts numeric fields as numbers or numeric strings.
type imageRefWire struct {
	URL    string      `json:"url"`
	Width  json.Number `json:"width"`
	Height json.Number `json:"height"`
	Size   json.Number `json:"size"`
	Mime   string      `json:"mime"`
}

// decodeImageRefs accepts a list of image objects or a list of bare URLs.
func decodeImageRefs(raw json.RawMessage) ([]ImageRef, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var urls []string
	if err := json.Unmarshal(trimmed, &urls); err == nil {
		refs := make([]ImageRef, 0, len(urls))
		for _, u := range urls {
			refs = append(refs, ImageRef{URL: u})
		}
		return refs, nil
	}

	var wires []imageRefWire
	if err := json.Unmarshal(trimmed, &wires); err != nil {
		return nil, err
	}

	refs := make([]ImageRef, 0, len(wires))
	for _, w := range wires {
		ref := ImageRef{URL: w.URL, Mime: w.Mime}
		var err error
		if ref.Width, err = numberToInt(w.Width); err != nil {
			return nil, err
		}
		if ref.Height, err = numberToInt(w.Height); err != nil {
			return nil, err
		}
		if ref.Size, err = numberToInt(w.Size); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func numberToInt(n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func firstNumber(values ...json.Number) json.Number {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
