package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/mapseed/internal/mapspec"
	"github.com/cory-johannsen/mapseed/internal/storage"
)

// CampaignRepository reads campaign documents from the campaigns table.
type CampaignRepository struct {
	db *pgxpool.Pool
}

// NewCampaignRepository creates a CampaignRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCampaignRepository(db *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// GetCampaignMaps loads the campaign document and extracts its map specs.
//
// Postcondition: Returns storage.ErrNotFound (wrapped) if the campaign does not exist.
func (r *CampaignRepository) GetCampaignMaps(ctx context.Context, campaignID string) (mapspec.CampaignMaps, error) {
	var doc []byte
	err := r.db.QueryRow(ctx,
		`SELECT document FROM campaigns WHERE id = $1`,
		campaignID,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mapspec.CampaignMaps{}, fmt.Errorf("campaign %s: %w", campaignID, storage.ErrNotFound)
		}
		if isUndefinedTable(err) {
			return mapspec.CampaignMaps{}, ErrSchemaMissing
		}
		return mapspec.CampaignMaps{}, fmt.Errorf("querying campaign %s: %w", campaignID, err)
	}
	maps, err := mapspec.ParseDocument(doc)
	if err != nil {
		return mapspec.CampaignMaps{}, fmt.Errorf("campaign %s: %w", campaignID, err)
	}
	return maps, nil
}

// PutCampaignDocument upserts a raw JSON campaign document.
//
// Precondition: doc must be a JSON object.
func (r *CampaignRepository) PutCampaignDocument(ctx context.Context, campaignID string, doc []byte) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO campaigns (id, document, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()`,
		campaignID, doc,
	)
	if err != nil {
		return fmt.Errorf("upserting campaign %s: %w", campaignID, err)
	}
	return nil
}
