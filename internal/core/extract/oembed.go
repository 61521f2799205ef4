package extract

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dyatlov/go-oembed/oembed"
	"github.com/k3a/html2text"
)

//go:embed providers.json
var defaultProviders []byte

// loadProviders parses an oembed.com style provider list.
func loadProviders(r io.Reader) (*oembed.Oembed, error) {
	o := oembed.NewOembed()
	if err := o.ParseProviders(r); err != nil {
		return nil, fmt.Errorf("failed to parse oEmbed providers: %w", err)
	}
	return o, nil
}

func defaultProviderList() (*oembed.Oembed, error) {
	return loadProviders(bytes.NewReader(defaultProviders))
}

// oembedData is the subset of an oEmbed response mapped onto a record
type oembedData struct {
	Type            string
	URL             string
	Title           string
	Description     string
	AuthorName      string
	AuthorURL       string
	ProviderName    string
	ProviderURL     string
	ThumbnailURL    string
	ThumbnailWidth  float64
	ThumbnailHeight float64
	HTML            string
	Width           float64
	Height          float64
}

func fromInfo(info *oembed.Info) oembedData {
	return oembedData{
		Type:            info.Type,
		URL:             info.URL,
		Title:           info.Title,
		Description:     info.Description,
		AuthorName:      info.AuthorName,
		AuthorURL:       info.AuthorURL,
		ProviderName:    info.ProviderName,
		ProviderURL:     info.ProviderURL,
		ThumbnailURL:    info.ThumbnailURL,
		ThumbnailWidth:  float64(info.ThumbnailWidth),
		ThumbnailHeight: float64(info.ThumbnailHeight),
		HTML:            info.HTML,
		Width:           float64(info.Width),
		Height:          float64(info.Height),
	}
}

// oembedWire decodes discovered oEmbed JSON. Providers disagree on whether
// dimensions are numbers or strings.
type oembedWire struct {
	Type            string      `json:"type"`
	URL             string      `json:"url"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	AuthorName      string      `json:"author_name"`
	AuthorURL       string      `json:"author_url"`
	ProviderName    string      `json:"provider_name"`
	ProviderURL     string      `json:"provider_url"`
	ThumbnailURL    string      `json:"thumbnail_url"`
	ThumbnailWidth  json.Number `json:"thumbnail_width"`
	ThumbnailHeight json.Number `json:"thumbnail_height"`
	HTML            string      `json:"html"`
	Width           json.Number `json:"width"`
	Height          json.Number `json:"height"`
}

func decodeOEmbed(r io.Reader) (oembedData, error) {
	var w oembedWire
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return oembedData{}, fmt.Errorf("failed to parse oEmbed response: %w", err)
	}

	num := func(n json.Number) float64 {
		f, _ := n.Float64()
		return f
	}

	return oembedData{
		Type:            w.Type,
		URL:             w.URL,
		Title:           w.Title,
		Description:     w.Description,
		AuthorName:      w.AuthorName,
		AuthorURL:       w.AuthorURL,
		ProviderName:    w.ProviderName,
		ProviderURL:     w.ProviderURL,
		ThumbnailURL:    w.ThumbnailURL,
		ThumbnailWidth:  num(w.ThumbnailWidth),
		ThumbnailHeight: num(w.ThumbnailHeight),
		HTML:            w.HTML,
		Width:           num(w.Width),
		Height:          num(w.Height),
	}, nil
}

// raw maps the response onto record keys. pageURL stays the record URL; for
// photos the oEmbed url is the image itself.
func (d oembedData) raw(pageURL string) map[string]interface{} {
	out := map[string]interface{}{"url": pageURL}
	put := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			out[key] = value
		}
	}
	putNum := func(key string, value float64) {
		if value > 0 {
			out[key] = int(value)
		}
	}

	put("title", d.Title)
	put("description", d.Description)
	put("authorName", d.AuthorName)
	put("authorUrl", d.AuthorURL)
	put("providerName", d.ProviderName)
	put("providerUrl", d.ProviderURL)
	put("image", d.ThumbnailURL)
	putNum("imageWidth", d.ThumbnailWidth)
	putNum("imageHeight", d.ThumbnailHeight)
	putNum("width", d.Width)
	putNum("height", d.Height)
	put("code", d.HTML)

	switch d.Type {
	case "video":
		out["type"] = "video"
	case "photo":
		out["type"] = "image"
		if d.URL != "" {
			out["image"] = d.URL
			putNum("imageWidth", d.Width)
			putNum("imageHeight", d.Height)
		}
	case "rich":
		out["type"] = "rich"
		if d.Description == "" && d.HTML != "" {
			put("description", html2text.HTML2Text(d.HTML))
		}
	default:
		out["type"] = "link"
	}

	if d.Width > 0 && d.Height > 0 {
		out["aspectRatio"] = d.Height / d.Width * 100
	}

	return out
}

// fetchOEmbed runs the blocking library call and honours ctx cancellation.
func fetchOEmbed(ctx context.Context, item *oembed.Item, pageURL, acceptLanguage string) (oembedData, error) {
	type result struct {
		info *oembed.Info
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		info, err := item.FetchOembed(oembed.Options{
			URL:            pageURL,
			AcceptLanguage: acceptLanguage,
		})
		ch <- result{info: info, err: err}
	}()

	select {
	case <-ctx.Done():
		return oembedData{}, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return oembedData{}, fmt.Errorf("%w: %v", ErrFetchFailed, r.err)
		}
		if r.info == nil || (r.info.Title == "" && r.info.HTML == "" && r.info.Type == "") {
			return oembedData{}, fmt.Errorf("%w: empty oEmbed response for %s", ErrFetchFailed, pageURL)
		}
		return fromInfo(r.info), nil
	}
}
