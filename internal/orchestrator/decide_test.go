package orchestrator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mapseed/internal/mapspec"
	"github.com/cory-johannsen/mapseed/internal/orchestrator"
	"github.com/cory-johannsen/mapseed/internal/tactical"
)

func TestDecide_CombatTable(t *testing.T) {
	cases := []struct {
		prior    orchestrator.Prior
		enabled  orchestrator.Action
		disabled orchestrator.Action
	}{
		{orchestrator.PriorNone, orchestrator.ActionImageThenVision, orchestrator.ActionText},
		{orchestrator.PriorImageOnly, orchestrator.ActionVisionOnExisting, orchestrator.ActionText},
		{orchestrator.PriorImageAndGrid, orchestrator.ActionReuse, orchestrator.ActionReuse},
		{orchestrator.PriorGridOnly, orchestrator.ActionBackfillImage, orchestrator.ActionReuse},
	}
	for _, tc := range cases {
		t.Run(tc.prior.String(), func(t *testing.T) {
			on := orchestrator.Decide(orchestrator.State{MapType: tactical.MapCombat, Prior: tc.prior, ImagePath: true})
			off := orchestrator.Decide(orchestrator.State{MapType: tactical.MapCombat, Prior: tc.prior, ImagePath: false})
			assert.Equal(t, tc.enabled, on, "image path enabled")
			assert.Equal(t, tc.disabled, off, "image path disabled")
		})
	}
}

func TestDecide_ExplorationTable(t *testing.T) {
	exp := func(p orchestrator.Prior, on bool) orchestrator.Action {
		return orchestrator.Decide(orchestrator.State{MapType: tactical.MapExploration, Prior: p, ImagePath: on})
	}
	assert.Equal(t, orchestrator.ActionGenerateImage, exp(orchestrator.PriorNone, true))
	assert.Equal(t, orchestrator.ActionSkip, exp(orchestrator.PriorNone, false))
	assert.Equal(t, orchestrator.ActionReuse, exp(orchestrator.PriorImageOnly, true))
	assert.Equal(t, orchestrator.ActionReuse, exp(orchestrator.PriorImageOnly, false))
}

func TestDecide_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := orchestrator.State{
			MapType:   rapid.SampledFrom([]tactical.MapType{tactical.MapCombat, tactical.MapExploration}).Draw(t, "type"),
			Prior:     orchestrator.Prior(rapid.IntRange(0, 3).Draw(t, "prior")),
			ImagePath: rapid.Bool().Draw(t, "image"),
		}
		a := orchestrator.Decide(s)

		// An existing image is never re-requested.
		if s.Prior.HasImage() {
			assert.NotEqual(t, orchestrator.ActionImageThenVision, a)
			assert.NotEqual(t, orchestrator.ActionBackfillImage, a)
			assert.NotEqual(t, orchestrator.ActionGenerateImage, a)
		}
		// With the image path off nothing asks for an image or vision.
		if !s.ImagePath {
			assert.Contains(t, []orchestrator.Action{orchestrator.ActionReuse, orchestrator.ActionText, orchestrator.ActionSkip}, a)
		}
		if s.MapType == tactical.MapExploration {
			assert.Contains(t, []orchestrator.Action{orchestrator.ActionReuse, orchestrator.ActionGenerateImage, orchestrator.ActionSkip}, a)
		} else {
			assert.NotEqual(t, orchestrator.ActionSkip, a)
		}
		assert.Equal(t, a, orchestrator.Decide(s))
	})
}

func TestAction_Fallback(t *testing.T) {
	for _, a := range []orchestrator.Action{orchestrator.ActionImageThenVision, orchestrator.ActionVisionOnExisting} {
		fb, ok := a.Fallback()
		assert.True(t, ok)
		assert.Equal(t, orchestrator.ActionText, fb)
	}
	_, ok := orchestrator.ActionText.Fallback()
	assert.False(t, ok)
	assert.False(t, orchestrator.ActionReuse.CallsServices())
	assert.True(t, orchestrator.ActionBackfillImage.CallsServices())
	assert.Equal(t, "vision_on_existing", orchestrator.ActionVisionOnExisting.String())
}

func TestClassify(t *testing.T) {
	spec := mapspec.MapSpec{ID: "m", Type: tactical.MapCombat, RequiredRegions: []mapspec.RequiredRegion{{ID: "bar"}}}
	full := make([]tactical.Tile, tactical.CellCount)
	withBar := []tactical.Region{{ID: "bar", Cells: []int{0}}}

	assert.Equal(t, orchestrator.PriorNone, orchestrator.Classify(nil, spec))
	assert.Equal(t, orchestrator.PriorNone, orchestrator.Classify(&tactical.MapArtifact{TileData: full[:10]}, spec))
	assert.Equal(t, orchestrator.PriorGridOnly, orchestrator.Classify(&tactical.MapArtifact{TileData: full, Regions: withBar}, spec))
	assert.Equal(t, orchestrator.PriorNone, orchestrator.Classify(&tactical.MapArtifact{TileData: full}, spec), "grid without required region is unusable")
	assert.Equal(t, orchestrator.PriorImageOnly, orchestrator.Classify(&tactical.MapArtifact{BackgroundImageURL: "u", TileData: full}, spec))
	assert.Equal(t, orchestrator.PriorImageAndGrid, orchestrator.Classify(&tactical.MapArtifact{BackgroundImageURL: "u", TileData: full, Regions: withBar}, spec))

	noRegions := mapspec.MapSpec{ID: "m", Type: tactical.MapCombat}
	assert.Equal(t, orchestrator.PriorGridOnly, orchestrator.Classify(&tactical.MapArtifact{TileData: full}, noRegions))
}
