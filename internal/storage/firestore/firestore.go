// Package firestore provides the Cloud Firestore document store. Artifacts
// live in the maps collection keyed by artifact id; campaign documents live
// in the campaigns collection keyed by campaign id.
package firestore

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cory-johannsen/mapseed/internal/config"
	"github.com/cory-johannsen/mapseed/internal/mapspec"
	"github.com/cory-johannsen/mapseed/internal/storage"
	"github.com/cory-johannsen/mapseed/internal/tactical"
)

// fingerprintField holds the hex content fingerprint beside the artifact fields.
const fingerprintField = "_fingerprint"

// Store implements storage.Store on Firestore.
type Store struct {
	client    *firestore.Client
	maps      string
	campaigns string
}

// New connects to the Firestore project named in cfg.
//
// Precondition: cfg.ProjectID and both collection names must be non-empty.
// Postcondition: Returns a connected Store or a non-nil error.
func New(ctx context.Context, cfg config.FirestoreConfig) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Store{client: client, maps: cfg.MapsCollection, campaigns: cfg.CampaignsCollection}, nil
}

// GetArtifact reads maps/{id}.
func (s *Store) GetArtifact(ctx context.Context, id string) (tactical.MapArtifact, error) {
	data, err := s.get(ctx, s.maps, id)
	if err != nil {
		return tactical.MapArtifact{}, err
	}
	delete(data, fingerprintField)
	doc, err := json.Marshal(data)
	if err != nil {
		return tactical.MapArtifact{}, fmt.Errorf("re-encoding artifact %s: %w", id, err)
	}
	a, err := storage.DecodeArtifact(doc)
	if err != nil {
		return tactical.MapArtifact{}, fmt.Errorf("artifact %s: %w", id, err)
	}
	return a, nil
}

// PutArtifact replaces maps/{id} unless the stored fingerprint matches.
func (s *Store) PutArtifact(ctx context.Context, a tactical.MapArtifact) (bool, error) {
	doc, fp, err := storage.EncodeArtifact(a)
	if err != nil {
		return false, err
	}
	fpHex := hex.EncodeToString(fp[:])

	ref := s.client.Collection(s.maps).Doc(a.ID())
	snap, err := ref.Get(ctx)
	switch {
	case err == nil:
		if stored, ferr := snap.DataAt(fingerprintField); ferr == nil && stored == fpHex {
			return false, nil
		}
	case status.Code(err) != codes.NotFound:
		return false, fmt.Errorf("reading artifact %s: %w", a.ID(), err)
	}

	var fields map[string]any
	if err := json.Unmarshal(doc, &fields); err != nil {
		return false, fmt.Errorf("decoding artifact %s fields: %w", a.ID(), err)
	}
	fields[fingerprintField] = fpHex
	if _, err := ref.Set(ctx, fields); err != nil {
		return false, fmt.Errorf("writing artifact %s: %w", a.ID(), err)
	}
	return true, nil
}

// GetCampaignMaps reads campaigns/{campaignID} and extracts its map specs.
func (s *Store) GetCampaignMaps(ctx context.Context, campaignID string) (mapspec.CampaignMaps, error) {
	data, err := s.get(ctx, s.campaigns, campaignID)
	if err != nil {
		return mapspec.CampaignMaps{}, err
	}
	doc, err := json.Marshal(data)
	if err != nil {
		return mapspec.CampaignMaps{}, fmt.Errorf("re-encoding campaign %s: %w", campaignID, err)
	}
	maps, err := mapspec.ParseDocument(doc)
	if err != nil {
		return mapspec.CampaignMaps{}, fmt.Errorf("campaign %s: %w", campaignID, err)
	}
	return maps, nil
}

// Close releases the Firestore client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) get(ctx context.Context, collection, id string) (map[string]any, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", collection, id, err)
	}
	return snap.Data(), nil
}
