package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/mapseed/internal/storage"
	"github.com/cory-johannsen/mapseed/internal/storage/memory"
	"github.com/cory-johannsen/mapseed/internal/tactical"
)

func artifact() tactical.MapArtifact {
	tiles := make([]tactical.Tile, tactical.CellCount)
	return tactical.MapArtifact{
		CampaignID:    "saltmarsh",
		MapSpecID:     "tavern",
		Name:          "Tavern",
		MapType:       tactical.MapCombat,
		FeetPerSquare: 5,
		Encoding:      tactical.EncodingExtended,
		TileData:      tiles,
		Regions:       []tactical.Region{{ID: "bar", Name: "Bar", Type: tactical.RegionTavern, Cells: []int{0, 1}}},
		Confidence:    tactical.ConfidenceHigh,
		GeneratedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestGetArtifact_NotFound(t *testing.T) {
	s := memory.New()
	_, err := s.GetArtifact(context.Background(), "saltmarsh_tavern")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPutGet_RoundTrip(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	a := artifact()

	written, err := s.PutArtifact(ctx, a)
	require.NoError(t, err)
	assert.True(t, written)

	got, err := s.GetArtifact(ctx, "saltmarsh_tavern")
	require.NoError(t, err)
	assert.Equal(t, a.Regions, got.Regions)
	assert.Equal(t, a.TileData, got.TileData)
	assert.True(t, a.GeneratedAt.Equal(got.GeneratedAt))
	assert.Equal(t, 1, s.Reads())
}

func TestPutArtifact_SkipsUnchangedContent(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	a := artifact()
	_, err := s.PutArtifact(ctx, a)
	require.NoError(t, err)
	before, _ := s.Document(a.ID())

	a.GeneratedAt = a.GeneratedAt.Add(time.Hour)
	written, err := s.PutArtifact(ctx, a)
	require.NoError(t, err)
	assert.False(t, written)
	assert.Equal(t, 1, s.Writes())

	after, _ := s.Document(a.ID())
	assert.Equal(t, before, after)

	a.BackgroundImageURL = "https://storage.googleapis.com/b/maps/saltmarsh/tavern.png"
	written, err = s.PutArtifact(ctx, a)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, 2, s.Writes())
}

func TestPutCampaignDocument(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.PutCampaignDocument("saltmarsh", []byte(`{"maps": {"combat": [{"id": "tavern"}]}}`)))

	maps, err := s.GetCampaignMaps(context.Background(), "saltmarsh")
	require.NoError(t, err)
	require.Len(t, maps.Combat, 1)

	_, err = s.GetCampaignMaps(context.Background(), "other")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCancelledContext(t *testing.T) {
	s := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.PutArtifact(ctx, artifact())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.Writes())
}
