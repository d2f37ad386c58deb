package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/mapseed/internal/storage"
	"github.com/cory-johannsen/mapseed/internal/tactical"
)

// ErrSchemaMissing is returned when the map_artifacts or campaigns table does not exist.
var ErrSchemaMissing = errors.New("database schema missing; run cmd/migrate")

// ArtifactRepository persists map artifacts in the map_artifacts table.
type ArtifactRepository struct {
	db *pgxpool.Pool
}

// NewArtifactRepository creates an ArtifactRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewArtifactRepository(db *pgxpool.Pool) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// GetArtifact loads the artifact document stored under id.
//
// Postcondition: Returns storage.ErrNotFound (wrapped) if no row exists.
func (r *ArtifactRepository) GetArtifact(ctx context.Context, id string) (tactical.MapArtifact, error) {
	var doc []byte
	err := r.db.QueryRow(ctx,
		`SELECT document FROM map_artifacts WHERE id = $1`,
		id,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tactical.MapArtifact{}, fmt.Errorf("artifact %s: %w", id, storage.ErrNotFound)
		}
		if isUndefinedTable(err) {
			return tactical.MapArtifact{}, ErrSchemaMissing
		}
		return tactical.MapArtifact{}, fmt.Errorf("querying artifact %s: %w", id, err)
	}
	a, err := storage.DecodeArtifact(doc)
	if err != nil {
		return tactical.MapArtifact{}, fmt.Errorf("artifact %s: %w", id, err)
	}
	return a, nil
}

// PutArtifact upserts a. The row is left untouched when its stored
// fingerprint already matches.
//
// Postcondition: Returns written=true only if a row was inserted or updated.
func (r *ArtifactRepository) PutArtifact(ctx context.Context, a tactical.MapArtifact) (bool, error) {
	doc, fp, err := storage.EncodeArtifact(a)
	if err != nil {
		return false, err
	}
	tag, err := r.db.Exec(ctx,
		`INSERT INTO map_artifacts (id, campaign_id, map_spec_id, map_type, document, fingerprint, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 ON CONFLICT (id) DO UPDATE
		   SET map_type = EXCLUDED.map_type,
		       document = EXCLUDED.document,
		       fingerprint = EXCLUDED.fingerprint,
		       updated_at = NOW()
		 WHERE map_artifacts.fingerprint IS DISTINCT FROM EXCLUDED.fingerprint`,
		a.ID(), a.CampaignID, a.MapSpecID, string(a.MapType), doc, fp[:],
	)
	if err != nil {
		if isUndefinedTable(err) {
			return false, ErrSchemaMissing
		}
		return false, fmt.Errorf("upserting artifact %s: %w", a.ID(), err)
	}
	return tag.RowsAffected() > 0, nil
}
