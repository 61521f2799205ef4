// Package extract fetches remote metadata for a URL and maps it onto the key
// names of an embedded asset record.
//
// Known oEmbed providers are queried directly. Every other page is fetched
// and read for OpenGraph, Twitter card and <meta> tags; an oEmbed discovery
// link on the page is followed and its response layered on top.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dyatlov/go-oembed/oembed"
)

const maxDocumentSize = 10 * 1024 * 1024

// Extractor implements embeds.Extractor.
type Extractor struct {
	providers      *oembed.Oembed
	client         *http.Client
	cache          Cache
	circuitBreaker *circuitBreaker
	userAgent      string
	acceptLanguage string
	timeout        time.Duration
	cacheTTL       time.Duration
}

// Option configures the extractor
type Option func(*Extractor) error

// WithCache enables result caching.
func WithCache(cache Cache) Option {
	return func(e *Extractor) error {
		e.cache = cache
		return nil
	}
}

// WithCacheTTL sets how long cached results are served.
func WithCacheTTL(ttl time.Duration) Option {
	return func(e *Extractor) error {
		e.cacheTTL = ttl
		return nil
	}
}

// WithTimeout sets the HTTP timeout for page and oEmbed requests
func WithTimeout(timeout time.Duration) Option {
	return func(e *Extractor) error {
		e.timeout = timeout
		return nil
	}
}

// WithUserAgent sets the User-Agent header for page requests
func WithUserAgent(userAgent string) Option {
	return func(e *Extractor) error {
		e.userAgent = userAgent
		return nil
	}
}

// WithAcceptLanguage sets the Accept-Language header sent to providers.
func WithAcceptLanguage(lang string) Option {
	return func(e *Extractor) error {
		e.acceptLanguage = lang
		return nil
	}
}

// WithHTTPClient replaces the client used for page and discovery requests.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Extractor) error {
		e.client = client
		return nil
	}
}

// WithProviders replaces the built-in oEmbed provider list.
func WithProviders(r io.Reader) Option {
	return func(e *Extractor) error {
		providers, err := loadProviders(r)
		if err != nil {
			return err
		}
		e.providers = providers
		return nil
	}
}

// New creates an extractor with the built-in provider list.
func New(opts ...Option) (*Extractor, error) {
	providers, err := defaultProviderList()
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		providers:      providers,
		circuitBreaker: newCircuitBreaker(),
		userAgent:      "EmbeddedAssetsBot/1.0",
		timeout:        10 * time.Second,
		cacheTTL:       24 * time.Hour,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.client == nil {
		e.client = &http.Client{Timeout: e.timeout}
	}
	return e, nil
}

// IsOEmbedProvider reports whether url matches a known oEmbed provider.
func (e *Extractor) IsOEmbedProvider(rawURL string) bool {
	return e.providers.FindItem(rawURL) != nil
}

// ProviderStats returns the circuit breaker state of every provider seen so far.
func (e *Extractor) ProviderStats() map[string]ProviderStats {
	return e.circuitBreaker.stats()
}

// Extract returns the raw metadata map for rawURL, serving from the cache
// when possible.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (map[string]interface{}, error) {
	pageURL, err := parseHTTPURL(rawURL)
	if err != nil {
		return nil, err
	}
	key := cacheKey(pageURL.String())

	if cached := e.cached(ctx, key); cached != nil {
		slog.Debug("[EXTRACT] cache hit", "url", pageURL.String())
		return cached, nil
	}

	var raw map[string]interface{}
	if item := e.providers.FindItem(pageURL.String()); item != nil {
		raw, err = e.extractOEmbed(ctx, item, pageURL)
	} else {
		raw, err = e.extractPage(ctx, pageURL)
	}
	if err != nil {
		return nil, err
	}

	e.store(ctx, key, raw)

	slog.Info("[EXTRACT] extracted metadata",
		"url", pageURL.String(),
		"type", raw["type"],
		"provider", raw["providerName"],
	)
	return raw, nil
}

func (e *Extractor) extractOEmbed(ctx context.Context, item *oembed.Item, pageURL *url.URL) (map[string]interface{}, error) {
	provider := providerKey(pageURL)
	if err := e.circuitBreaker.canAttempt(provider); err != nil {
		slog.Warn("[EXTRACT] skipping provider", "url", pageURL.String(), "error", err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	data, err := fetchOEmbed(ctx, item, pageURL.String(), e.acceptLanguage)
	if err != nil {
		e.circuitBreaker.recordFailure(provider, err)
		return nil, fmt.Errorf("failed to fetch oEmbed data: %w", err)
	}
	e.circuitBreaker.recordSuccess(provider)

	return data.raw(pageURL.String()), nil
}

func (e *Extractor) extractPage(ctx context.Context, pageURL *url.URL) (map[string]interface{}, error) {
	provider := providerKey(pageURL)
	if err := e.circuitBreaker.canAttempt(provider); err != nil {
		slog.Warn("[EXTRACT] skipping provider", "url", pageURL.String(), "error", err)
		return nil, err
	}

	body, finalURL, err := e.get(ctx, pageURL.String(), "text/html,application/xhtml+xml")
	if err != nil {
		e.circuitBreaker.recordFailure(provider, err)
		return nil, err
	}
	e.circuitBreaker.recordSuccess(provider)

	page, err := parsePage(bytes.NewReader(body), finalURL)
	if err != nil {
		return nil, err
	}
	raw := page.raw
	// The requested URL stays the record key; a redirect is kept alongside.
	if finalURL.String() != pageURL.String() {
		raw["redirect"] = finalURL.String()
	}
	raw["url"] = pageURL.String()

	if page.discovery != "" {
		if discovered, err := e.discover(ctx, page.discovery, pageURL.String()); err != nil {
			slog.Warn("[EXTRACT] oEmbed discovery failed, using page metadata",
				"url", pageURL.String(),
				"endpoint", page.discovery,
				"error", err,
			)
		} else {
			for k, v := range discovered {
				raw[k] = v
			}
		}
	}

	if _, ok := raw["title"]; !ok {
		if _, ok := raw["code"]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoMetadata, pageURL.String())
		}
	}
	return raw, nil
}

func (e *Extractor) discover(ctx context.Context, endpoint, pageURL string) (map[string]interface{}, error) {
	body, _, err := e.get(ctx, endpoint, "application/json")
	if err != nil {
		return nil, err
	}
	data, err := decodeOEmbed(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return data.raw(pageURL), nil
}

// get fetches target and returns the body and the URL after redirects.
func (e *Extractor) get(ctx context.Context, target, accept string) ([]byte, *url.URL, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", accept)
	if e.acceptLanguage != "" {
		req.Header.Set("Accept-Language", e.acceptLanguage)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%w: %s returned status %d", ErrFetchFailed, target, resp.StatusCode)
	}

	if strings.HasPrefix(accept, "text/html") {
		if ct := resp.Header.Get("Content-Type"); ct != "" {
			mediaType, _, _ := mime.ParseMediaType(ct)
			if mediaType != "text/html" && mediaType != "application/xhtml+xml" {
				return nil, nil, fmt.Errorf("%w: content type %q", ErrUnsupportedURL, mediaType)
			}
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading body: %v", ErrFetchFailed, err)
	}
	return body, resp.Request.URL, nil
}

func (e *Extractor) cached(ctx context.Context, key string) map[string]interface{} {
	if e.cache == nil {
		return nil
	}

	data, found, err := e.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("[EXTRACT] cache read error, falling back to fetch", "key", key, "error", err)
		return nil
	}
	if !found {
		return nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("[EXTRACT] discarding undecodable cache entry", "key", key, "error", err)
		return nil
	}
	return raw
}

func (e *Extractor) store(ctx context.Context, key string, raw map[string]interface{}) {
	if e.cache == nil || e.cacheTTL <= 0 {
		return
	}

	data, err := json.Marshal(raw)
	if err != nil {
		slog.Warn("[EXTRACT] failed to encode result for cache", "key", key, "error", err)
		return
	}
	if err := e.cache.Set(ctx, key, data, e.cacheTTL); err != nil {
		slog.Warn("[EXTRACT] failed to cache result", "key", key, "error", err)
	}
}

func parseHTTPURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, rawURL)
	}
	return u, nil
}

func providerKey(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func cacheKey(rawURL string) string {
	return "extract:" + rawURL
}
