// Package safety decides whether embed markup comes from trusted hosts and
// may be emitted unescaped.
package safety

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ryanuber/go-glob"

	"EmbeddedAssets/internal/core/embeds"
)

// DefaultWhitelist is the host allow-list used when none is configured.
var DefaultWhitelist = []string{
	"youtube.com",
	"youtube-nocookie.com",
	"youtu.be",
	"vimeo.com",
	"player.vimeo.com",
	"soundcloud.com",
	"w.soundcloud.com",
	"streamable.com",
	"flickr.com",
	"flic.kr",
	"dailymotion.com",
	"twitter.com",
	"platform.twitter.com",
	"instagram.com",
	"spotify.com",
	"open.spotify.com",
	"google.com",
	"maps.google.com",
}

// sourceSelector finds every element of embed code that loads remote content.
const sourceSelector = "iframe[src], script[src], embed[src], video[src], audio[src], source[src], img[src], object[data]"

// Evaluator implements embeds.SafetyEvaluator with a glob host allow-list.
// A pattern "example.com" also covers its subdomains; patterns may use "*".
type Evaluator struct {
	patterns []string
}

// NewEvaluator returns an evaluator for patterns. Blank patterns are dropped.
func NewEvaluator(patterns []string) *Evaluator {
	e := &Evaluator{}
	for _, p := range patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			e.patterns = append(e.patterns, p)
		}
	}
	return e
}

// IsEmbedSafe reports whether the asset URL and every source referenced by
// its code are on allowed hosts. Inline scripts and on* event handler
// attributes are never safe.
func (e *Evaluator) IsEmbedSafe(a *embeds.EmbeddedAsset) bool {
	if a == nil || !e.AllowsURL(embeds.WithDefaultScheme(a.URL)) {
		return false
	}
	if strings.TrimSpace(a.Code) == "" {
		return true
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(a.Code))
	if err != nil {
		return false
	}

	if doc.Find("script:not([src])").Length() > 0 || hasEventHandler(doc) {
		return false
	}

	safe := true
	doc.Find(sourceSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, ok := s.Attr("src")
		if !ok {
			src, _ = s.Attr("data")
		}
		if !e.AllowsURL(embeds.WithDefaultScheme(strings.TrimSpace(src))) {
			safe = false
		}
		return safe
	})
	return safe
}

// hasEventHandler reports whether any element carries an on* attribute.
func hasEventHandler(doc *goquery.Document) bool {
	found := false
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, attr := range s.Get(0).Attr {
			if strings.HasPrefix(strings.ToLower(attr.Key), "on") {
				found = true
				break
			}
		}
		return !found
	})
	return found
}

// AllowsURL reports whether rawURL is an http(s) URL on an allowed host.
func (e *Evaluator) AllowsURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	return e.AllowsHost(u.Hostname())
}

// AllowsHost reports whether host matches a pattern.
func (e *Evaluator) AllowsHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return false
	}
	for _, p := range e.patterns {
		if glob.Glob(p, host) || glob.Glob("*."+p, host) {
			return true
		}
	}
	return false
}

// Patterns returns the normalized allow-list.
func (e *Evaluator) Patterns() []string {
	return append([]string(nil), e.patterns...)
}
