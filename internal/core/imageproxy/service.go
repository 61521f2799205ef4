// Package imageproxy resolves remote images to stored variants sized for
// display.
//
// The package is split the way an image pipeline usually is:
//   - Resolver: orchestrates memo lookups, fetching, processing and storage
//   - Fetcher: retrieves the source bytes over http(s)
//   - Processor: scales and re-encodes images
//
// Stored variants are named after a digest of the source URL and the target
// size, so the same request always maps to the same object.
package imageproxy

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	gocache "github.com/patrickmn/go-cache"

	"EmbeddedAssets/internal/core/embeds"
	"EmbeddedAssets/internal/storage"
)

// storeErrors tracks variant uploads that failed outright.
var storeErrors atomic.Int64

// StoreErrorCount returns the total number of failed variant uploads.
func StoreErrorCount() int64 {
	return storeErrors.Load()
}

// Resolver implements embeds.ImageResolver.
type Resolver struct {
	store     storage.Storage
	processor Processor
	fetcher   Fetcher
	memo      *gocache.Cache
	config    Config
}

var _ embeds.ImageResolver = (*Resolver)(nil)

// NewService creates a Resolver with the provided dependencies.
// Returns an error if any required dependency is nil or the config is invalid.
func NewService(store storage.Storage, processor Processor, fetcher Fetcher, config Config) (*Resolver, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: storage", ErrNilDependency)
	}
	if processor == nil {
		return nil, fmt.Errorf("%w: processor", ErrNilDependency)
	}
	if fetcher == nil {
		return nil, fmt.Errorf("%w: fetcher", ErrNilDependency)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ttl := config.MemoTTL
	if ttl == 0 {
		ttl = gocache.NoExpiration
	}

	return &Resolver{
		store:     store,
		processor: processor,
		fetcher:   fetcher,
		memo:      gocache.New(ttl, 2*config.MemoTTL),
		config:    config,
	}, nil
}

// ResolveImage returns a variant of sourceURL no larger than size on either side.
// The flow is:
//  1. Check the memo for (url, size)
//  2. Fetch the source image
//  3. Scale and re-encode it
//  4. Store it; an existing object under the same name is reused
//  5. Remember the result
func (r *Resolver) ResolveImage(ctx context.Context, sourceURL string, size int) (*embeds.ImageSize, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	name := r.variantName(sourceURL, size)
	if cached, ok := r.memo.Get(name); ok {
		out := cached.(embeds.ImageSize)
		slog.Debug("[IMAGE-PROXY] memo hit", "url", sourceURL, "size", size)
		return &out, nil
	}

	raw, err := r.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	res, err := r.processor.Process(raw, size, r.config.Quality)
	if err != nil {
		return nil, err
	}

	publicURL, err := r.store.Save(ctx, name, bytes.NewReader(res.Data))
	if err != nil {
		if !errors.Is(err, storage.ErrExists) {
			storeErrors.Add(1)
			slog.Error("[IMAGE-PROXY] failed to store variant",
				"url", sourceURL,
				"name", name,
				"error", err,
				"total_store_errors", storeErrors.Load(),
			)
			return nil, err
		}
		publicURL = r.store.URL(name)
	}

	out := embeds.ImageSize{URL: publicURL, Width: res.Width, Height: res.Height}
	r.memo.SetDefault(name, out)

	slog.Debug("[IMAGE-PROXY] stored variant",
		"url", sourceURL,
		"size", size,
		"size_bytes", len(res.Data),
	)
	return &out, nil
}

// variantName derives the storage name for (sourceURL, size).
func (r *Resolver) variantName(sourceURL string, size int) string {
	sum := sha256.Sum256([]byte(sourceURL))
	name := hex.EncodeToString(sum[:16]) + "_" + strconv.Itoa(size) + ".jpg"
	if r.config.Prefix == "" {
		return name
	}
	return r.config.Prefix + "/" + name
}
