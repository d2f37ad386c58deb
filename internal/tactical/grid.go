// Package tactical defines the tactical map artifact (tile grid, regions,
// confidence) and the single validation boundary that turns untrusted
// generator output into a conformant artifact.
package tactical

import "fmt"

const (
	// GridSize is the number of rows and columns in every tactical grid.
	GridSize = 20
	// CellCount is the number of cells in a flattened grid.
	CellCount = GridSize * GridSize
	// MinWalkableFraction is the minimum share of non-wall tiles an accepted grid must have.
	MinWalkableFraction = 0.30
)

// Tile is a single terrain code in a TileGrid.
type Tile int

// Tile codes. The legacy encoding uses 0-2; the extended encoding uses 0-4,
// where 0 reads as outdoor floor.
const (
	TileFloor       Tile = 0
	TileWall        Tile = 1
	TileDoor        Tile = 2
	TileWater       Tile = 3
	TileIndoorFloor Tile = 4
)

// Encoding identifies which tile code set a grid uses.
type Encoding string

// Supported encodings.
const (
	EncodingLegacy   Encoding = "legacy"
	EncodingExtended Encoding = "extended"
)

// ParseEncoding resolves s to an Encoding.
//
// Postcondition: Returns a valid Encoding or a non-nil error.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case EncodingLegacy:
		return EncodingLegacy, nil
	case EncodingExtended, "":
		return EncodingExtended, nil
	default:
		return "", fmt.Errorf("unknown tile encoding %q (supported: legacy, extended)", s)
	}
}

// MaxTile returns the highest valid tile code for the encoding.
func (e Encoding) MaxTile() Tile {
	if e == EncodingLegacy {
		return TileDoor
	}
	return TileIndoorFloor
}

// Valid reports whether t is a valid tile code under e.
func (e Encoding) Valid(t Tile) bool {
	return t >= TileFloor && t <= e.MaxTile()
}

// Clamp maps v into the encoding's code set. Out-of-range values become
// floor, never wall.
func (e Encoding) Clamp(v int) Tile {
	t := Tile(v)
	if !e.Valid(t) {
		return TileFloor
	}
	return t
}

// TileGrid is a 20x20 row-major grid tagged with its encoding.
type TileGrid struct {
	Encoding Encoding
	Cells    []Tile
}

// CellIndex returns the flat index for row and col.
func CellIndex(row, col int) int {
	return row*GridSize + col
}

// Complete reports whether the grid holds exactly CellCount cells.
func (g TileGrid) Complete() bool {
	return len(g.Cells) == CellCount
}

// WalkableFraction returns the share of non-wall cells. An empty grid has
// a walkable fraction of zero.
func (g TileGrid) WalkableFraction() float64 {
	if len(g.Cells) == 0 {
		return 0
	}
	open := 0
	for _, t := range g.Cells {
		if t != TileWall {
			open++
		}
	}
	return float64(open) / float64(len(g.Cells))
}
