package extract

import (
	"context"
	"time"
)

// Cache stores serialized extraction results keyed by URL.
type Cache interface {
	// Get returns found=false on a miss; err is reserved for backend failures.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value for ttl, replacing any existing entry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
