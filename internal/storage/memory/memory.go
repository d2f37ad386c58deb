// Package memory provides an in-process document store for tests and dry
// runs against fixture campaigns.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/cory-johannsen/mapseed/internal/mapspec"
	"github.com/cory-johannsen/mapseed/internal/storage"
	"github.com/cory-johannsen/mapseed/internal/tactical"
)

type record struct {
	doc         []byte
	fingerprint storage.Fingerprint
}

// Store implements storage.Store in memory. Artifacts are held in their
// encoded form so reads never alias caller-owned slices.
type Store struct {
	mu        sync.Mutex
	artifacts map[string]record
	campaigns map[string]mapspec.CampaignMaps
	writes    int
	reads     int
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		artifacts: make(map[string]record),
		campaigns: make(map[string]mapspec.CampaignMaps),
	}
}

// GetArtifact returns the artifact stored under id.
func (s *Store) GetArtifact(ctx context.Context, id string) (tactical.MapArtifact, error) {
	if err := ctx.Err(); err != nil {
		return tactical.MapArtifact{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	rec, ok := s.artifacts[id]
	if !ok {
		return tactical.MapArtifact{}, fmt.Errorf("artifact %s: %w", id, storage.ErrNotFound)
	}
	return storage.DecodeArtifact(rec.doc)
}

// PutArtifact stores a unless an identical document is already present.
func (s *Store) PutArtifact(ctx context.Context, a tactical.MapArtifact) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	doc, fp, err := storage.EncodeArtifact(a)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.artifacts[a.ID()]; ok && rec.fingerprint == fp {
		return false, nil
	}
	s.artifacts[a.ID()] = record{doc: doc, fingerprint: fp}
	s.writes++
	return true, nil
}

// GetCampaignMaps returns the map specs registered for campaignID.
func (s *Store) GetCampaignMaps(ctx context.Context, campaignID string) (mapspec.CampaignMaps, error) {
	if err := ctx.Err(); err != nil {
		return mapspec.CampaignMaps{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	maps, ok := s.campaigns[campaignID]
	if !ok {
		return mapspec.CampaignMaps{}, fmt.Errorf("campaign %s: %w", campaignID, storage.ErrNotFound)
	}
	return maps, nil
}

// PutCampaignMaps registers map specs for campaignID.
func (s *Store) PutCampaignMaps(campaignID string, maps mapspec.CampaignMaps) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[campaignID] = maps
}

// PutCampaignDocument parses a JSON campaign document and registers its map specs.
func (s *Store) PutCampaignDocument(campaignID string, doc []byte) error {
	maps, err := mapspec.ParseDocument(doc)
	if err != nil {
		return fmt.Errorf("campaign %s: %w", campaignID, err)
	}
	s.PutCampaignMaps(campaignID, maps)
	return nil
}

// Document returns the raw stored document for id.
func (s *Store) Document(id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.artifacts[id]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), rec.doc...), true
}

// Writes returns the number of artifact writes performed.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Reads returns the number of artifact reads performed.
func (s *Store) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
