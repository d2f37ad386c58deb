// Package storage defines the document store that holds campaign documents
// and generated map artifacts.
package storage

import (
	"context"
	"errors"

	"github.com/cory-johannsen/mapseed/internal/mapspec"
	"github.com/cory-johannsen/mapseed/internal/tactical"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// ArtifactStore reads and writes map artifacts keyed by tactical.ArtifactID.
type ArtifactStore interface {
	// GetArtifact returns the artifact stored under id.
	//
	// Postcondition: Returns ErrNotFound (possibly wrapped) when no artifact exists.
	GetArtifact(ctx context.Context, id string) (tactical.MapArtifact, error)
	// PutArtifact replaces the artifact stored under a.ID().
	//
	// Postcondition: Returns written=false when the stored document already has
	// the same fingerprint and nothing was written.
	PutArtifact(ctx context.Context, a tactical.MapArtifact) (written bool, err error)
}

// CampaignStore reads campaign documents.
type CampaignStore interface {
	// GetCampaignMaps returns the map specs declared by a campaign document.
	//
	// Postcondition: Returns ErrNotFound (possibly wrapped) when the campaign does not exist.
	GetCampaignMaps(ctx context.Context, campaignID string) (mapspec.CampaignMaps, error)
}

// Store is a complete document store driver.
type Store interface {
	ArtifactStore
	CampaignStore
	Close() error
}
