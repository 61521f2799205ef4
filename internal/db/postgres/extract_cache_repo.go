package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"EmbeddedAssets/internal/core/extract"
)

// ExtractCache stores extraction results in the extract_cache table.
// Values must be JSON documents.
type ExtractCache struct {
	db *sql.DB
}

var _ extract.Cache = (*ExtractCache)(nil)

// NewExtractCache creates a new PostgreSQL extraction cache
func NewExtractCache(db *sql.DB) *ExtractCache {
	return &ExtractCache{db: db}
}

// Get returns found=false when the entry is missing or expired.
func (c *ExtractCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := `
		SELECT payload
		FROM extract_cache
		WHERE key = $1 AND expires_at > NOW()
	`

	var payload []byte
	err := c.db.QueryRowContext(ctx, query, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get extract cache entry: %w", err)
	}
	return payload, true, nil
}

// Set stores value until NOW() + ttl, replacing any existing entry.
func (c *ExtractCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `
		INSERT INTO extract_cache (key, payload, expires_at)
		VALUES ($1, $2, NOW() + $3::interval)
		ON CONFLICT (key) DO UPDATE
		SET payload = EXCLUDED.payload,
		    expires_at = EXCLUDED.expires_at,
		    fetched_at = NOW()
	`

	if _, err := c.db.ExecContext(ctx, query, key, value, formatInterval(ttl)); err != nil {
		return fmt.Errorf("failed to insert/update extract cache entry: %w", err)
	}
	return nil
}

// DeleteExpired removes entries past their expiry and returns how many were removed.
func (c *ExtractCache) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM extract_cache WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired extract cache entries: %w", err)
	}
	return res.RowsAffected()
}

// formatInterval converts a Go duration to a PostgreSQL interval string
// such as "1 hour", "24 hours" or "7 days". Units are truncated.
func formatInterval(d time.Duration) string {
	seconds := int64(d.Seconds())

	switch {
	case seconds >= 86400:
		return fmt.Sprintf("%d days", seconds/86400)
	case seconds >= 3600:
		return fmt.Sprintf("%d hours", seconds/3600)
	case seconds >= 60:
		return fmt.Sprintf("%d minutes", seconds/60)
	default:
		return fmt.Sprintf("%d seconds", seconds)
	}
}
