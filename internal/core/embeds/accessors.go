package embeds

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"
)

// iframePattern matches code that is exactly one single-line iframe element.
var iframePattern = regexp.MustCompile(`^<iframe (.+)></iframe>$`)

// srcPattern is the legacy provider pattern used to find the embed source.
var srcPattern = regexp.MustCompile(`src="([^"]+)"`)

// videoIDProviders are the providers whose embed URLs carry the video ID as
// the fifth "/"-delimited segment.
var videoIDProviders = map[string]bool{
	"YouTube": true,
	"Vimeo":   true,
}

// IsIframe reports whether the code is a single <iframe ...></iframe> element.
// One trailing newline is tolerated.
func (a *EmbeddedAsset) IsIframe() bool {
	return iframePattern.MatchString(strings.TrimSuffix(a.Code, "\n"))
}

// IframeSrc returns the iframe source URL with params merged into its query,
// replacing any existing values for the same keys.
func (a *EmbeddedAsset) IframeSrc(params []string) (string, error) {
	if !a.IsIframe() {
		return "", ErrInvalidEmbedShape
	}
	return a.rewriteSrc(params, QueryOverride)
}

// IframeCode returns the iframe markup with its src replaced by IframeSrc.
func (a *EmbeddedAsset) IframeCode(params []string) (template.HTML, error) {
	if !a.IsIframe() {
		return "", ErrInvalidEmbedShape
	}
	return a.codeWithSrc(params, QueryOverride)
}

// VideoURL returns the embed source URL with params appended verbatim. It
// returns "" without error when the asset is not a video.
func (a *EmbeddedAsset) VideoURL(params []string) (string, error) {
	if !a.IsVideo() {
		return "", nil
	}
	return a.rewriteSrc(params, QueryAppend)
}

// VideoCode returns the embed markup with params appended to its src.
// Unlike VideoURL it fails with ErrNotVideo on non-video assets.
func (a *EmbeddedAsset) VideoCode(params []string) (template.HTML, error) {
	if !a.IsVideo() {
		return "", fmt.Errorf("%w: type is %q", ErrNotVideo, a.Type)
	}
	return a.codeWithSrc(params, QueryAppend)
}

// VideoID returns the provider video ID for YouTube and Vimeo videos. It
// returns "" without error for any other asset.
func (a *EmbeddedAsset) VideoID() (string, error) {
	if !a.IsVideo() || !videoIDProviders[a.ProviderName] {
		return "", nil
	}

	match := srcPattern.FindStringSubmatch(a.Code)
	if match == nil {
		return "", fmt.Errorf("%w: no src in %s embed code", ErrMalformedProviderURL, a.ProviderName)
	}

	segments := strings.Split(match[1], "/")
	if len(segments) < 5 {
		return "", fmt.Errorf("%w: %s has %d segments", ErrMalformedProviderURL, match[1], len(segments))
	}

	id, _, _ := strings.Cut(segments[4], "?")
	return id, nil
}

func (a *EmbeddedAsset) rewriteSrc(params []string, mode QueryMode) (string, error) {
	src, ok := ParseAttribute(a.Code, "src")
	if !ok {
		return "", ErrMissingSource
	}
	return RewriteURL(src, params, mode), nil
}

func (a *EmbeddedAsset) codeWithSrc(params []string, mode QueryMode) (template.HTML, error) {
	src, err := a.rewriteSrc(params, mode)
	if err != nil {
		return "", err
	}

	code, err := SetAttribute(a.Code, "src", src)
	if err != nil {
		return "", err
	}

	return template.HTML(code), nil
}
