package extract

import (
	"fmt"
	"html"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// pageMetadata is what a fetched HTML page yields: the raw record map and
// an optional oEmbed discovery endpoint.
type pageMetadata struct {
	raw       map[string]interface{}
	discovery string
}

// parsePage reads OpenGraph, Twitter card and plain <meta>/<link> metadata
// from an HTML document. Relative URLs are resolved against base.
func parsePage(r io.Reader, base *url.URL) (*pageMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	meta := collectMeta(doc)
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(meta[k]); v != "" {
				return v
			}
		}
		return ""
	}
	resolve := func(ref string) string {
		if ref == "" {
			return ""
		}
		u, err := url.Parse(ref)
		if err != nil {
			return ""
		}
		return base.ResolveReference(u).String()
	}
	linkHref := func(selector string) string {
		href, _ := doc.Find(selector).First().Attr("href")
		return resolve(strings.TrimSpace(href))
	}

	raw := map[string]interface{}{}
	put := func(key, value string) {
		if value != "" {
			raw[key] = value
		}
	}
	putInt := func(key, value string) {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
			raw[key] = n
		}
	}

	title := first("og:title", "twitter:title")
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	put("title", title)
	put("description", first("og:description", "twitter:description", "description"))

	canonical := resolve(first("og:url"))
	if canonical == "" {
		canonical = linkHref("link[rel='canonical']")
	}
	if canonical == "" {
		canonical = base.String()
	}
	put("url", canonical)

	put("image", resolve(first("og:image:secure_url", "og:image", "og:image:url", "twitter:image", "twitter:image:src")))
	if _, ok := raw["image"]; !ok {
		put("image", linkHref("link[rel='image_src']"))
	}
	putInt("imageWidth", first("og:image:width"))
	putInt("imageHeight", first("og:image:height"))

	providerURL := (&url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"}).String()
	put("providerUrl", providerURL)
	providerName := first("og:site_name", "application-name", "twitter:site")
	if providerName == "" {
		providerName = strings.TrimPrefix(base.Hostname(), "www.")
	}
	put("providerName", providerName)

	favicon := linkHref("link[rel='icon'], link[rel='shortcut icon']")
	if favicon == "" {
		favicon = resolve("/favicon.ico")
	}
	put("favicon", favicon)
	providerIcon := linkHref("link[rel='apple-touch-icon'], link[rel='apple-touch-icon-precomposed']")
	if providerIcon == "" {
		providerIcon = favicon
	}
	put("providerIcon", providerIcon)

	if author := first("author", "article:author", "twitter:creator"); author != "" {
		if strings.HasPrefix(author, "http://") || strings.HasPrefix(author, "https://") {
			put("authorUrl", author)
		} else {
			put("authorName", author)
		}
	}
	put("publishedTime", first("article:published_time", "og:published_time", "date", "dc.date"))
	put("license", linkHref("link[rel='license']"))
	put("cms", first("generator"))

	if keywords := first("keywords"); keywords != "" {
		var list []string
		for _, k := range strings.Split(keywords, ",") {
			if k = strings.TrimSpace(k); k != "" {
				list = append(list, k)
			}
		}
		if len(list) > 0 {
			raw["keywords"] = list
		}
	}

	lang, _ := doc.Find("html").First().Attr("lang")
	if lang = strings.TrimSpace(lang); lang == "" {
		lang = first("og:locale")
	}
	put("language", lang)

	var languages []string
	doc.Find("link[rel='alternate'][hreflang]").Each(func(_ int, s *goquery.Selection) {
		if hl, _ := s.Attr("hreflang"); hl != "" && hl != "x-default" {
			languages = append(languages, hl)
		}
	})
	if len(languages) > 0 {
		raw["languages"] = languages
	}

	var feeds []string
	doc.Find("link[rel='alternate'][type='application/rss+xml'], link[rel='alternate'][type='application/atom+xml']").
		Each(func(_ int, s *goquery.Selection) {
			if href, ok := s.Attr("href"); ok {
				if feed := resolve(strings.TrimSpace(href)); feed != "" {
					feeds = append(feeds, feed)
				}
			}
		})
	if len(feeds) > 0 {
		raw["feeds"] = feeds
	}

	raw["type"] = "link"
	if player := resolve(first("og:video:secure_url", "og:video:url", "og:video", "twitter:player")); player != "" {
		width := first("og:video:width", "twitter:player:width")
		height := first("og:video:height", "twitter:player:height")
		raw["type"] = "video"
		raw["code"] = playerIframe(player, width, height)
		putInt("width", width)
		putInt("height", height)
	} else if _, ok := raw["image"]; ok && strings.HasPrefix(first("og:type"), "image") {
		raw["type"] = "image"
	}

	return &pageMetadata{
		raw:       raw,
		discovery: linkHref("link[rel='alternate'][type='application/json+oembed']"),
	}, nil
}

// collectMeta indexes <meta> content by lower-cased property or name. The
// first occurrence wins.
func collectMeta(doc *goquery.Document) map[string]string {
	meta := make(map[string]string)
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		for _, attr := range []string{"property", "name", "itemprop"} {
			key, ok := s.Attr(attr)
			if !ok {
				continue
			}
			key = strings.ToLower(strings.TrimSpace(key))
			if _, seen := meta[key]; !seen && key != "" {
				meta[key] = content
			}
		}
	})
	return meta
}

func playerIframe(src, width, height string) string {
	var b strings.Builder
	b.WriteString(`<iframe src="`)
	b.WriteString(html.EscapeString(src))
	b.WriteString(`"`)
	if _, err := strconv.Atoi(width); err == nil {
		b.WriteString(` width="` + width + `"`)
	}
	if _, err := strconv.Atoi(height); err == nil {
		b.WriteString(` height="` + height + `"`)
	}
	b.WriteString(` frameborder="0" allowfullscreen></iframe>`)
	return b.String()
}
