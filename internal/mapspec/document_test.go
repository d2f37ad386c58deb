package mapspec_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/mapseed/internal/mapspec"
	"github.com/cory-johannsen/mapseed/internal/tactical"
)

const splitYAML = `
maps:
  exploration:
    - id: saltmarsh
      name: Saltmarsh Overview
      description: A fishing town on a foggy coast.
      pointsOfInterest:
        - id: poi_inn
          number: 1
          name: The Empty Net
          combatMapId: tavern_brawl
        - id: poi_smugglers
          number: 2
          name: Smugglers' Cave
          hidden: true
          combatMapId: sea_cave
  combat:
    - id: tavern_brawl
      name: The Empty Net
      feetPerSquare: 5
      terrain: wooden floor
      lighting: dim lanterns
      layoutDescription: A long common room with a bar along the north wall.
      requiredRegions:
        - id: bar
          name: Bar
          type: Tavern
          size: small
          position: north
        - id: stage
          name: Stage
          type: performance
`

func TestLoadFromBytes_SplitShape(t *testing.T) {
	maps, err := mapspec.LoadFromBytes([]byte(splitYAML))
	require.NoError(t, err)

	require.Len(t, maps.Exploration, 1)
	require.Len(t, maps.Combat, 1)

	overview := maps.Exploration[0]
	assert.Equal(t, tactical.MapExploration, overview.Type)
	assert.Equal(t, mapspec.DefaultFeetPerSquare, overview.FeetPerSquare)
	require.Len(t, overview.PointsOfInterest, 2)
	assert.True(t, overview.PointsOfInterest[1].Hidden)
	assert.Equal(t, "sea_cave", overview.PointsOfInterest[1].CombatMapID)

	brawl := maps.Combat[0]
	assert.Equal(t, tactical.MapCombat, brawl.Type)
	assert.Equal(t, []string{"bar", "stage"}, brawl.RequiredRegionIDs())
	assert.Equal(t, tactical.RegionTavern, brawl.RequiredRegions[0].Type)
	assert.Equal(t, tactical.RegionCustom, brawl.RequiredRegions[1].Type)

	assert.Equal(t, []string{"saltmarsh/poi_smugglers -> sea_cave"}, maps.DanglingLinks())
}

func TestParseDocument_LegacyShape(t *testing.T) {
	doc := `{
		"title": "Ignored narrative payload",
		"mapSpecs": [
			{"id": "ruins", "name": "Ruins", "pointsOfInterest": [{"id": "p1", "number": 1, "name": "Gate"}]},
			{"id": "crypt", "name": "Crypt", "layoutDescription": "Narrow halls.", "regions": [{"id": "sarcophagus", "name": "Sarcophagus", "type": "dungeon"}]},
			{"id": "camp", "type": "exploration"}
		]
	}`
	maps, err := mapspec.ParseDocument([]byte(doc))
	require.NoError(t, err)

	require.Len(t, maps.Exploration, 2)
	assert.Equal(t, "ruins", maps.Exploration[0].ID)
	assert.Equal(t, "camp", maps.Exploration[1].ID)
	assert.Equal(t, "camp", maps.Exploration[1].Name)

	require.Len(t, maps.Combat, 1)
	assert.Equal(t, []string{"sarcophagus"}, maps.Combat[0].RequiredRegionIDs())
}

func TestParseDocument_PrefersSplitShape(t *testing.T) {
	doc := `{"maps": {"combat": [{"id": "a"}]}, "mapSpecs": [{"id": "b"}]}`
	maps, err := mapspec.ParseDocument([]byte(doc))
	require.NoError(t, err)
	require.Len(t, maps.Combat, 1)
	assert.Equal(t, "a", maps.Combat[0].ID)
}

func TestParseDocument_NoMaps(t *testing.T) {
	_, err := mapspec.ParseDocument([]byte(`{"title": "x"}`))
	assert.ErrorIs(t, err, mapspec.ErrNoMaps)
}

func TestParseDocument_DuplicateIDs(t *testing.T) {
	doc := `{"maps": {"exploration": [{"id": "a"}], "combat": [{"id": "a"}]}}`
	_, err := mapspec.ParseDocument([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `map id "a" declared more than once`)
}

func TestParseDocument_DuplicateRequiredRegion(t *testing.T) {
	doc := `{"maps": {"combat": [{"id": "a", "requiredRegions": [{"id": "r"}, {"id": "r"}]}]}}`
	_, err := mapspec.ParseDocument([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required region "r" declared more than once`)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(splitYAML), 0644))

	maps, err := mapspec.LoadFile(path)
	require.NoError(t, err)
	spec, ok := maps.Find("tavern_brawl")
	require.True(t, ok)
	assert.Equal(t, "dim lanterns", spec.Lighting)

	_, ok = maps.Find("nowhere")
	assert.False(t, ok)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := mapspec.LoadFile("/nonexistent/maps.yaml")
	assert.Error(t, err)
}

func TestLoadFromBytes_Empty(t *testing.T) {
	_, err := mapspec.LoadFromBytes([]byte("  \n"))
	assert.ErrorIs(t, err, mapspec.ErrNoMaps)
}
