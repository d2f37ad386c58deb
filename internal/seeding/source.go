package seeding

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/mapseed/internal/mapspec"
	"github.com/cory-johannsen/mapseed/internal/storage"
)

// Source loads the map specs of a campaign.
//
// Postcondition: returns normalized, validated CampaignMaps, or a non-nil error.
type Source interface {
	Load(ctx context.Context, campaignID string) (mapspec.CampaignMaps, error)
}

// StoreSource reads map specs from the campaign document in a document store.
type StoreSource struct {
	Campaigns storage.CampaignStore
}

// Load implements Source.
func (s StoreSource) Load(ctx context.Context, campaignID string) (mapspec.CampaignMaps, error) {
	maps, err := s.Campaigns.GetCampaignMaps(ctx, campaignID)
	if err != nil {
		return mapspec.CampaignMaps{}, fmt.Errorf("loading campaign %s: %w", campaignID, err)
	}
	return maps, nil
}

// FileSource reads map specs from a YAML or JSON file, ignoring the campaign
// document. The campaign id still scopes artifact ids and image paths.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(_ context.Context, _ string) (mapspec.CampaignMaps, error) {
	return mapspec.LoadFile(s.Path)
}
