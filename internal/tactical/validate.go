package tactical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Output is the untrusted structure a generation backend returns. Numeric
// fields are decoded loosely so that the validator, not the JSON decoder,
// decides how to coerce them.
type Output struct {
	Rows       [][]any     `json:"rows"`
	TileData   []any       `json:"tileData"`
	Regions    []RawRegion `json:"regions"`
	Confidence string      `json:"confidence"`
}

// RawRegion is an unvalidated region from generator output.
type RawRegion struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Type   string         `json:"type"`
	Bounds map[string]any `json:"bounds"`
	Cells  []any          `json:"cells"`
	DMNote string         `json:"dmNote"`
}

// Result is a validated grid, its regions, and confidence.
type Result struct {
	Grid       TileGrid
	Regions    []Region
	Confidence Confidence
}

// Validator checks generator output against the artifact invariants for one
// tile encoding.
type Validator struct {
	Encoding Encoding
}

// NewValidator returns a Validator for enc.
func NewValidator(enc Encoding) Validator {
	return Validator{Encoding: enc}
}

// Validate decodes raw JSON and validates it.
//
// Precondition: raw is the JSON object produced by a backend, code fences removed.
// Postcondition: Returns a conformant Result or an error wrapping ErrInvalidOutput.
func (v Validator) Validate(raw []byte, required []string) (Result, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out Output
	if err := dec.Decode(&out); err != nil {
		return Result{}, &ShapeError{Detail: "decoding generator JSON", Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return Result{}, &ShapeError{Detail: "trailing data after JSON object"}
	}
	return v.ValidateOutput(out, required)
}

// ValidateOutput validates a decoded Output against the required region ids.
//
// Postcondition: On success the grid has exactly CellCount valid tiles, at
// least MinWalkableFraction of them non-wall, and the regions include every
// id in required.
func (v Validator) ValidateOutput(out Output, required []string) (Result, error) {
	enc := v.Encoding
	if enc == "" {
		enc = EncodingExtended
	}

	values, err := extractGrid(out)
	if err != nil {
		return Result{}, err
	}

	grid := TileGrid{Encoding: enc, Cells: make([]Tile, CellCount)}
	for i, raw := range values {
		grid.Cells[i] = clampTile(enc, raw)
	}

	if frac := grid.WalkableFraction(); frac < MinWalkableFraction {
		return Result{}, &WalkabilityError{Percent: math.Round(frac*1000) / 10}
	}

	regions, err := normalizeRegions(out.Regions)
	if err != nil {
		return Result{}, err
	}

	if missing := MissingRegionIDs(regions, required); len(missing) > 0 {
		return Result{}, &MissingRegionsError{Missing: missing}
	}

	return Result{
		Grid:       grid,
		Regions:    regions,
		Confidence: ParseConfidence(out.Confidence),
	}, nil
}

// extractGrid flattens nested rows or returns the flat tile list. Shapes that
// do not match exactly are rejected.
func extractGrid(out Output) ([]any, error) {
	if out.Rows != nil {
		if len(out.Rows) != GridSize {
			return nil, &ShapeError{Detail: fmt.Sprintf("rows must contain exactly %d rows, got %d", GridSize, len(out.Rows))}
		}
		flat := make([]any, 0, CellCount)
		for r, row := range out.Rows {
			if len(row) != GridSize {
				return nil, &ShapeError{Detail: fmt.Sprintf("row %d must contain exactly %d columns, got %d", r, GridSize, len(row))}
			}
			flat = append(flat, row...)
		}
		return flat, nil
	}
	if out.TileData != nil {
		if len(out.TileData) != CellCount {
			return nil, &ShapeError{Detail: fmt.Sprintf("tileData must contain exactly %d elements, got %d", CellCount, len(out.TileData))}
		}
		return out.TileData, nil
	}
	return nil, &ShapeError{Detail: "output has neither rows nor tileData"}
}

func clampTile(enc Encoding, raw any) Tile {
	f, ok := toNumber(raw)
	if !ok || f != math.Trunc(f) || f < 0 || f > float64(enc.MaxTile()) {
		return TileFloor
	}
	return enc.Clamp(int(f))
}

func normalizeRegions(raws []RawRegion) ([]Region, error) {
	regions := make([]Region, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	for i, rr := range raws {
		if rr.Bounds == nil && len(rr.Cells) == 0 {
			continue
		}
		id := strings.TrimSpace(rr.ID)
		if id == "" {
			id = NameToID(rr.Name)
		}
		if id == "" {
			continue
		}

		var cells []int
		if rr.Bounds != nil {
			b, inverted, err := parseBounds(rr.Bounds)
			if err != nil {
				return nil, &ShapeError{Detail: fmt.Sprintf("region %q (index %d) bounds", id, i), Err: err}
			}
			if inverted {
				return nil, &BoundsError{RegionID: id, Bounds: b}
			}
			cells = b.Clamp().Cells()
		} else {
			cells = normalizeCells(rr.Cells)
		}
		// A region with no usable cells has no area.
		if len(cells) == 0 {
			continue
		}
		if seen[id] {
			return nil, &ShapeError{Detail: fmt.Sprintf("region id %q appears more than once", id)}
		}
		seen[id] = true

		name := strings.TrimSpace(rr.Name)
		if name == "" {
			name = id
		}
		regions = append(regions, Region{
			ID:     id,
			Name:   name,
			Type:   ParseRegionType(rr.Type),
			Cells:  cells,
			DMNote: strings.TrimSpace(rr.DMNote),
		})
	}
	return regions, nil
}

// maxCoord bounds converted coordinates so that values beyond the int range
// keep their sign after conversion.
const maxCoord = 1 << 30

// parseBounds reads the four bound fields. Inversion is decided on the
// rounded float values, before any conversion can lose their order.
func parseBounds(m map[string]any) (Bounds, bool, error) {
	var raw [4]float64
	names := [4][2]string{
		{"minRow", "min_row"},
		{"maxRow", "max_row"},
		{"minCol", "min_col"},
		{"maxCol", "max_col"},
	}
	for i, name := range names {
		v, ok := m[name[0]]
		if !ok {
			v, ok = m[name[1]]
		}
		if !ok {
			return Bounds{}, false, fmt.Errorf("missing %s", name[0])
		}
		n, ok := toNumber(v)
		if !ok {
			return Bounds{}, false, fmt.Errorf("%s is not a number: %v", name[0], v)
		}
		raw[i] = math.Round(n)
	}
	b := Bounds{
		MinRow: saturate(raw[0]),
		MaxRow: saturate(raw[1]),
		MinCol: saturate(raw[2]),
		MaxCol: saturate(raw[3]),
	}
	return b, raw[0] > raw[1] || raw[2] > raw[3], nil
}

func saturate(f float64) int {
	return int(math.Max(-maxCoord, math.Min(maxCoord, f)))
}

// normalizeCells clamps cell indices into the grid and removes duplicates,
// keeping first occurrences. Non-numeric entries are ignored.
func normalizeCells(raws []any) []int {
	cells := make([]int, 0, len(raws))
	seen := make(map[int]bool, len(raws))
	for _, raw := range raws {
		f, ok := toNumber(raw)
		if !ok {
			continue
		}
		c := int(math.Max(0, math.Min(CellCount-1, math.Round(f))))
		if seen[c] {
			continue
		}
		seen[c] = true
		cells = append(cells, c)
	}
	return cells
}

func toNumber(v any) (float64, bool) {
	f, ok := rawNumber(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func rawNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case Tile:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
