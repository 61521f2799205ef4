package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"EmbeddedAssets/internal/core/embeds"
)

// checkViolation is the Postgres SQLSTATE for a failed CHECK constraint.
const checkViolation = "23514"

type postgresEmbedRepo struct {
	db *sql.DB
}

// NewEmbedRepository creates a new PostgreSQL embedded asset repository
func NewEmbedRepository(db *sql.DB) embeds.Repository {
	return &postgresEmbedRepo{db: db}
}

// Upsert stores the asset keyed by URL. An existing row keeps its ID and
// created_at; everything else is replaced.
func (r *postgresEmbedRepo) Upsert(ctx context.Context, asset *embeds.EmbeddedAsset, thumbnailURL string) (*embeds.StoredEmbed, error) {
	if asset == nil {
		return nil, fmt.Errorf("asset cannot be nil")
	}

	payload, err := asset.MarshalStored()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedded asset: %w", err)
	}

	assetType := asset.Type
	if assetType == "" {
		assetType = embeds.TypeLink
	}

	query := `
		INSERT INTO embedded_assets (id, url, title, type, payload, thumbnail_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (url) DO UPDATE
		SET title = EXCLUDED.title,
		    type = EXCLUDED.type,
		    payload = EXCLUDED.payload,
		    thumbnail_url = EXCLUDED.thumbnail_url,
		    updated_at = NOW()
		RETURNING id, payload, thumbnail_url, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), asset.URL, asset.Title, assetType, payload, nullString(thumbnailURL))

	stored, err := scanStoredEmbed(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == checkViolation && pqErr.Constraint == "embedded_assets_type_check" {
			return nil, &embeds.ValidationError{Fields: []embeds.FieldError{{Field: "type", Message: "unknown type " + assetType}}}
		}
		return nil, fmt.Errorf("failed to upsert embedded asset: %w", err)
	}
	return stored, nil
}

// GetByID retrieves a stored embed by its ID
func (r *postgresEmbedRepo) GetByID(ctx context.Context, id string) (*embeds.StoredEmbed, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, embeds.ErrNotFound
	}

	query := `SELECT id, payload, thumbnail_url, created_at, updated_at FROM embedded_assets WHERE id = $1`

	stored, err := scanStoredEmbed(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, embeds.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get embedded asset by ID: %w", err)
	}
	return stored, nil
}

// GetByURL retrieves a stored embed by its source URL
func (r *postgresEmbedRepo) GetByURL(ctx context.Context, url string) (*embeds.StoredEmbed, error) {
	query := `SELECT id, payload, thumbnail_url, created_at, updated_at FROM embedded_assets WHERE url = $1`

	stored, err := scanStoredEmbed(r.db.QueryRowContext(ctx, query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, embeds.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get embedded asset by URL: %w", err)
	}
	return stored, nil
}

func scanStoredEmbed(row *sql.Row) (*embeds.StoredEmbed, error) {
	var (
		stored    embeds.StoredEmbed
		payload   []byte
		thumbnail sql.NullString
	)
	if err := row.Scan(&stored.ID, &payload, &thumbnail, &stored.CreatedAt, &stored.UpdatedAt); err != nil {
		return nil, err
	}

	asset, err := embeds.FromStored(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stored payload: %w", err)
	}
	stored.Asset = asset
	stored.ThumbnailURL = thumbnail.String
	return &stored, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
