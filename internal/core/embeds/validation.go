package embeds

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/alioygur/is"
	xhtml "golang.org/x/net/html"
)

// DefaultMaxStringLength is the rune limit applied to string fields when no
// deployment policy is configured.
const DefaultMaxStringLength = 1024

// Validator checks embedded assets against the record rules. The image and
// markup predicates are delegated; nil predicates fall back to
// DefaultImageValidator and DefaultMarkupValidator.
type Validator struct {
	// MaxStringLength limits string fields in runes. 0 disables the limit.
	MaxStringLength int

	// ValidImage reports whether a legacy image entry is a fetchable image reference.
	ValidImage func(ImageRef) bool

	// ValidMarkup reports whether code is an acceptable raw markup fragment.
	ValidMarkup func(string) bool
}

// NewValidator returns a Validator using the default predicates.
func NewValidator(maxStringLength int) Validator {
	return Validator{
		MaxStringLength: maxStringLength,
		ValidImage:      DefaultImageValidator,
		ValidMarkup:     DefaultMarkupValidator,
	}
}

// Validate checks every rule and returns a *ValidationError listing all
// violations, or nil when the asset is usable. URL fields are checked as if
// a missing scheme were https; use Normalized to apply that to the record.
func (v Validator) Validate(a *EmbeddedAsset) error {
	verr := &ValidationError{}
	if a == nil {
		verr.add("title", "cannot be blank")
		verr.add("url", "cannot be blank")
		return verr
	}

	if strings.TrimSpace(a.Title) == "" {
		verr.add("title", "cannot be blank")
	}
	if strings.TrimSpace(a.URL) == "" {
		verr.add("url", "cannot be blank")
	}

	for _, f := range []struct {
		name  string
		value string
	}{
		{"title", a.Title},
		{"description", a.Description},
		{"authorName", a.AuthorName},
		{"providerName", a.ProviderName},
		{"publishedTime", a.PublishedTime},
		{"license", a.License},
	} {
		if msg := v.checkString(f.value); msg != "" {
			verr.add(f.name, msg)
		}
	}

	for _, f := range []struct {
		name  string
		value string
	}{
		{"url", a.URL},
		{"image", a.Image},
		{"authorUrl", a.AuthorURL},
		{"providerIcon", a.ProviderIcon},
		{"providerUrl", a.ProviderURL},
	} {
		if f.value != "" && !IsValidURL(WithDefaultScheme(f.value)) {
			verr.add(f.name, "is not a valid URL")
		}
	}

	if a.Type != "" && !validTypes[a.Type] {
		verr.add("type", "is invalid")
	}

	for i, tag := range a.Tags {
		if msg := v.checkString(tag); msg != "" {
			verr.add("tags", fmt.Sprintf("entry %d %s", i, msg))
		}
	}

	for i, feed := range a.Feeds {
		if !IsValidURL(feed) {
			verr.add("feeds", fmt.Sprintf("entry %d is not a valid URL", i))
		}
	}

	for _, f := range []struct {
		name  string
		value float64
	}{
		{"width", float64(a.Width)},
		{"height", float64(a.Height)},
		{"aspectRatio", a.AspectRatio},
		{"imageWidth", float64(a.ImageWidth)},
		{"imageHeight", float64(a.ImageHeight)},
	} {
		if f.value < 0 {
			verr.add(f.name, "must be no less than 0")
		}
	}

	validImage := v.ValidImage
	if validImage == nil {
		validImage = DefaultImageValidator
	}
	for i, img := range a.Images {
		if !validImage(img) {
			verr.add("images", fmt.Sprintf("entry %d is not a valid image", i))
		}
	}
	for i, img := range a.ProviderIcons {
		if !validImage(img) {
			verr.add("providerIcons", fmt.Sprintf("entry %d is not a valid image", i))
		}
	}

	validMarkup := v.ValidMarkup
	if validMarkup == nil {
		validMarkup = DefaultMarkupValidator
	}
	if a.Code != "" && !validMarkup(a.Code) {
		verr.add("code", "is not valid markup")
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func (v Validator) checkString(s string) string {
	if !utf8.ValidString(s) {
		return "must be a valid UTF-8 string"
	}
	if v.MaxStringLength > 0 && utf8.RuneCountInString(s) > v.MaxStringLength {
		return fmt.Sprintf("should contain at most %d characters", v.MaxStringLength)
	}
	return ""
}

// Validate checks the asset with the default validator.
func (a *EmbeddedAsset) Validate() error {
	return NewValidator(DefaultMaxStringLength).Validate(a)
}

// dottedHostPattern requires at least two labels, so "localhost" and other
// single-label names are rejected.
var dottedHostPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*(\.[A-Za-z0-9][A-Za-z0-9_-]*)+$`)

// IsValidURL reports whether raw is an absolute http(s) URL with a dotted
// host name or an IP address.
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	// Numeric and bracketed hosts must be real IP addresses.
	if strings.Trim(host, "0123456789.") == "" || strings.Contains(host, ":") {
		return is.IP(host)
	}
	return dottedHostPattern.MatchString(host)
}

// WithDefaultScheme prefixes https to a URL that has no scheme.
func WithDefaultScheme(raw string) string {
	switch {
	case raw == "":
		return raw
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case !strings.Contains(raw, "://"):
		return "https://" + raw
	default:
		return raw
	}
}

// DefaultImageValidator accepts an image entry with a valid URL and
// non-negative dimensions.
func DefaultImageValidator(img ImageRef) bool {
	return IsValidURL(WithDefaultScheme(img.URL)) && img.Width >= 0 && img.Height >= 0 && img.Size >= 0
}

// DefaultMarkupValidator accepts UTF-8 markup that tokenizes cleanly and
// contains at least one element.
func DefaultMarkupValidator(code string) bool {
	if !utf8.ValidString(code) {
		return false
	}

	z := xhtml.NewTokenizer(strings.NewReader(code))
	sawTag := false
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return sawTag && z.Err() == io.EOF
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			sawTag = true
		}
	}
}

// Normalized returns a copy of the asset with trimmed strings and https
// applied to URL fields lacking a scheme.
func (a *EmbeddedAsset) Normalized() *EmbeddedAsset {
	if a == nil {
		return nil
	}

	n := a.Clone()
	n.Title = strings.TrimSpace(n.Title)
	n.Description = strings.TrimSpace(n.Description)
	n.AuthorName = strings.TrimSpace(n.AuthorName)
	n.ProviderName = strings.TrimSpace(n.ProviderName)

	n.URL = WithDefaultScheme(strings.TrimSpace(n.URL))
	n.Image = WithDefaultScheme(strings.TrimSpace(n.Image))
	n.AuthorURL = WithDefaultScheme(strings.TrimSpace(n.AuthorURL))
	n.ProviderIcon = WithDefaultScheme(strings.TrimSpace(n.ProviderIcon))
	n.ProviderURL = WithDefaultScheme(strings.TrimSpace(n.ProviderURL))

	return n
}

// Clone returns a deep copy of the asset. Empty lists become nil, the same
// "absent" value the serialized form uses.
func (a *EmbeddedAsset) Clone() *EmbeddedAsset {
	if a == nil {
		return nil
	}

	c := *a
	c.Feeds = cloneStrings(a.Feeds)
	c.Keywords = cloneStrings(a.Keywords)
	c.Languages = cloneStrings(a.Languages)
	c.Tags = cloneStrings(a.Tags)
	c.Images = cloneImages(a.Images)
	c.ProviderIcons = cloneImages(a.ProviderIcons)
	return &c
}

func cloneStrings(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneImages(s []ImageRef) []ImageRef {
	if len(s) == 0 {
		return nil
	}
	return append([]ImageRef(nil), s...)
}
