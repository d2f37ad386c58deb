package tactical_test

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mapseed/internal/tactical"
)

func TestParseRegionType_KnownValues(t *testing.T) {
	cases := []struct {
		input string
		want  tactical.RegionType
	}{
		{"tavern", tactical.RegionTavern},
		{"  Shop ", tactical.RegionShop},
		{"GUARD_POST", tactical.RegionGuardPost},
		{"guard post", tactical.RegionGuardPost},
		{"safe", tactical.RegionSafe},
		{"throne room", tactical.RegionCustom},
		{"", tactical.RegionCustom},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, tactical.ParseRegionType(tc.input))
		})
	}
}

func TestParseRegionType_AlwaysInClosedSet(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		got := tactical.ParseRegionType(rapid.String().Draw(t, "type"))
		assert.Contains(t, tactical.RegionTypes, got)
	})
}

func TestBounds_ClampedCellsStayInGrid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := tactical.Bounds{
			MinRow: rapid.IntRange(-10, 9).Draw(t, "minRow"),
			MaxRow: rapid.IntRange(10, 40).Draw(t, "maxRow"),
			MinCol: rapid.IntRange(-10, 9).Draw(t, "minCol"),
			MaxCol: rapid.IntRange(10, 40).Draw(t, "maxCol"),
		}
		clamped := b.Clamp()
		assert.False(t, clamped.Inverted())
		for _, c := range clamped.Cells() {
			assert.GreaterOrEqual(t, c, 0)
			assert.Less(t, c, tactical.CellCount)
		}
	})
}

func TestMissingRegionIDs_PreservesOrder(t *testing.T) {
	regions := []tactical.Region{{ID: "b"}, {ID: "d"}}
	assert.Equal(t, []string{"a", "c"}, tactical.MissingRegionIDs(regions, []string{"a", "b", "c", "d"}))
	assert.Empty(t, tactical.MissingRegionIDs(regions, []string{"d", "b"}))
}

func TestNameToID_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringOf(rapid.RuneFrom(nil, unicode.Letter, unicode.Digit, unicode.Space)).Draw(t, "name")
		id := tactical.NameToID(name)
		assert.Equal(t, id, tactical.NameToID(id))
		assert.NotContains(t, id, " ")
	})
}

func TestNameToID_KnownValues(t *testing.T) {
	assert.Equal(t, "the_rusty_oasis", tactical.NameToID("The Rusty Oasis"))
	assert.Equal(t, "grinders_row", tactical.NameToID("Grinder's Row"))
}

func TestEncoding_Clamp(t *testing.T) {
	assert.Equal(t, tactical.TileDoor, tactical.EncodingLegacy.Clamp(2))
	assert.Equal(t, tactical.TileFloor, tactical.EncodingLegacy.Clamp(3))
	assert.Equal(t, tactical.TileWater, tactical.EncodingExtended.Clamp(3))
	assert.Equal(t, tactical.TileFloor, tactical.EncodingExtended.Clamp(5))
	assert.Equal(t, tactical.TileFloor, tactical.EncodingExtended.Clamp(-1))
}

func TestParseEncoding(t *testing.T) {
	enc, err := tactical.ParseEncoding("")
	assert.NoError(t, err)
	assert.Equal(t, tactical.EncodingExtended, enc)

	enc, err = tactical.ParseEncoding("legacy")
	assert.NoError(t, err)
	assert.Equal(t, tactical.EncodingLegacy, enc)

	_, err = tactical.ParseEncoding("hex")
	assert.Error(t, err)
}
