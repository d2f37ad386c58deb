package tactical

import "strings"

// RegionType classifies a Region. The set is closed; unknown values are
// coerced to RegionCustom.
type RegionType string

// Region types.
const (
	RegionTavern      RegionType = "tavern"
	RegionShop        RegionType = "shop"
	RegionTemple      RegionType = "temple"
	RegionDungeon     RegionType = "dungeon"
	RegionWilderness  RegionType = "wilderness"
	RegionResidential RegionType = "residential"
	RegionStreet      RegionType = "street"
	RegionGuardPost   RegionType = "guard_post"
	RegionDanger      RegionType = "danger"
	RegionSafe        RegionType = "safe"
	RegionCustom      RegionType = "custom"
)

// RegionTypes lists every member of the closed region type set.
var RegionTypes = []RegionType{
	RegionTavern, RegionShop, RegionTemple, RegionDungeon, RegionWilderness,
	RegionResidential, RegionStreet, RegionGuardPost, RegionDanger, RegionSafe,
	RegionCustom,
}

// ParseRegionType resolves s against the closed set, case-insensitively.
//
// Postcondition: always returns a member of RegionTypes.
func ParseRegionType(s string) RegionType {
	norm := RegionType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_"))
	for _, rt := range RegionTypes {
		if norm == rt {
			return rt
		}
	}
	return RegionCustom
}

// Bounds is an inclusive rectangular area in grid coordinates.
type Bounds struct {
	MinRow int `json:"minRow"`
	MaxRow int `json:"maxRow"`
	MinCol int `json:"minCol"`
	MaxCol int `json:"maxCol"`
}

// Clamp returns b with every coordinate clamped into [0, GridSize-1].
func (b Bounds) Clamp() Bounds {
	return Bounds{
		MinRow: clampInt(b.MinRow, 0, GridSize-1),
		MaxRow: clampInt(b.MaxRow, 0, GridSize-1),
		MinCol: clampInt(b.MinCol, 0, GridSize-1),
		MaxCol: clampInt(b.MaxCol, 0, GridSize-1),
	}
}

// Inverted reports whether the min coordinate exceeds the max on either axis.
func (b Bounds) Inverted() bool {
	return b.MinRow > b.MaxRow || b.MinCol > b.MaxCol
}

// Cells expands b into flat cell indices in row-major order.
//
// Precondition: b is clamped and not inverted.
func (b Bounds) Cells() []int {
	cells := make([]int, 0, (b.MaxRow-b.MinRow+1)*(b.MaxCol-b.MinCol+1))
	for r := b.MinRow; r <= b.MaxRow; r++ {
		for c := b.MinCol; c <= b.MaxCol; c++ {
			cells = append(cells, CellIndex(r, c))
		}
	}
	return cells
}

// Region is a named, typed sub-area of a grid expressed as a cell list.
type Region struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Type   RegionType `json:"type"`
	Cells  []int      `json:"cells"`
	DMNote string     `json:"dmNote,omitempty"`
}

// RegionIDs returns the ids of regions in order.
func RegionIDs(regions []Region) []string {
	ids := make([]string, len(regions))
	for i, r := range regions {
		ids[i] = r.ID
	}
	return ids
}

// MissingRegionIDs returns the entries of required that no region carries.
// The result preserves the order of required.
func MissingRegionIDs(regions []Region, required []string) []string {
	have := make(map[string]bool, len(regions))
	for _, r := range regions {
		have[r.ID] = true
	}
	var missing []string
	for _, id := range required {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

// NameToID converts a display name to a stable snake_case identifier.
//
// Postcondition: result is lowercase, contains only [a-z0-9_], and is
// idempotent (NameToID(NameToID(s)) == NameToID(s)).
func NameToID(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "_")
	var b strings.Builder
	for _, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
