// Package mapspec models the author-declared map specifications of a
// campaign and loads them from campaign documents or spec files.
package mapspec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/mapseed/internal/tactical"
)

// DefaultFeetPerSquare is applied when a spec omits its grid scale.
const DefaultFeetPerSquare = 5

// RequiredRegion declares a region the generated artifact must contain.
type RequiredRegion struct {
	ID       string              `json:"id" yaml:"id"`
	Name     string              `json:"name" yaml:"name"`
	Type     tactical.RegionType `json:"type" yaml:"type"`
	Size     string              `json:"size,omitempty" yaml:"size"`
	Position string              `json:"position,omitempty" yaml:"position"`
	DMNote   string              `json:"dmNote,omitempty" yaml:"dmNote"`
}

// MapSpec describes one map to generate. Combat specs carry layout prose and
// required regions; exploration specs carry points of interest.
type MapSpec struct {
	ID            string           `json:"id" yaml:"id"`
	Name          string           `json:"name" yaml:"name"`
	Type          tactical.MapType `json:"type,omitempty" yaml:"type"`
	FeetPerSquare int              `json:"feetPerSquare,omitempty" yaml:"feetPerSquare"`
	Description   string           `json:"description,omitempty" yaml:"description"`

	Terrain           string           `json:"terrain,omitempty" yaml:"terrain"`
	Lighting          string           `json:"lighting,omitempty" yaml:"lighting"`
	LayoutDescription string           `json:"layoutDescription,omitempty" yaml:"layoutDescription"`
	AtmosphereNotes   string           `json:"atmosphereNotes,omitempty" yaml:"atmosphereNotes"`
	RequiredRegions   []RequiredRegion `json:"requiredRegions,omitempty" yaml:"requiredRegions"`

	PointsOfInterest []tactical.PointOfInterest `json:"pointsOfInterest,omitempty" yaml:"pointsOfInterest"`
}

// IsCombat reports whether s is a combat map.
func (s MapSpec) IsCombat() bool {
	return s.Type == tactical.MapCombat
}

// RequiredRegionIDs returns the ids of s's required regions in declaration order.
func (s MapSpec) RequiredRegionIDs() []string {
	ids := make([]string, 0, len(s.RequiredRegions))
	for _, r := range s.RequiredRegions {
		ids = append(ids, r.ID)
	}
	return ids
}

// Validate checks the spec's structural invariants.
//
// Postcondition: Returns nil if s is usable, or an error naming every violation.
func (s MapSpec) Validate() error {
	var errs []string
	if strings.TrimSpace(s.ID) == "" {
		errs = append(errs, "id must not be empty")
	}
	if s.Type != tactical.MapCombat && s.Type != tactical.MapExploration {
		errs = append(errs, fmt.Sprintf("type must be combat or exploration, got %q", s.Type))
	}
	if s.FeetPerSquare < 0 {
		errs = append(errs, fmt.Sprintf("feetPerSquare must be positive, got %d", s.FeetPerSquare))
	}
	seen := make(map[string]bool, len(s.RequiredRegions))
	for i, r := range s.RequiredRegions {
		if strings.TrimSpace(r.ID) == "" {
			errs = append(errs, fmt.Sprintf("requiredRegions[%d].id must not be empty", i))
			continue
		}
		if seen[r.ID] {
			errs = append(errs, fmt.Sprintf("required region %q declared more than once", r.ID))
		}
		seen[r.ID] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("map spec %q: %s", s.ID, strings.Join(errs, "; "))
	}
	return nil
}

// CampaignMaps holds a campaign's map specs split by phase.
type CampaignMaps struct {
	Exploration []MapSpec `json:"exploration" yaml:"exploration"`
	Combat      []MapSpec `json:"combat" yaml:"combat"`
}

// Normalize stamps each spec with its phase's map type, applies the default
// grid scale, and coerces required region types into the closed set.
func (c *CampaignMaps) Normalize() {
	for i := range c.Exploration {
		normalizeSpec(&c.Exploration[i], tactical.MapExploration)
	}
	for i := range c.Combat {
		normalizeSpec(&c.Combat[i], tactical.MapCombat)
	}
}

func normalizeSpec(s *MapSpec, mt tactical.MapType) {
	s.Type = mt
	if s.FeetPerSquare == 0 {
		s.FeetPerSquare = DefaultFeetPerSquare
	}
	if strings.TrimSpace(s.Name) == "" {
		s.Name = s.ID
	}
	for j := range s.RequiredRegions {
		s.RequiredRegions[j].Type = tactical.ParseRegionType(string(s.RequiredRegions[j].Type))
	}
}

// Validate checks every spec and that map ids are unique across phases.
//
// Postcondition: Returns nil or an error describing all violations.
func (c CampaignMaps) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for _, s := range c.All() {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("map id %q declared more than once", s.ID))
		}
		seen[s.ID] = true
	}
	return errors.Join(errs...)
}

// All returns exploration specs followed by combat specs.
func (c CampaignMaps) All() []MapSpec {
	all := make([]MapSpec, 0, len(c.Exploration)+len(c.Combat))
	all = append(all, c.Exploration...)
	return append(all, c.Combat...)
}

// Find returns the spec with the given id.
func (c CampaignMaps) Find(id string) (MapSpec, bool) {
	for _, s := range c.All() {
		if s.ID == id {
			return s, true
		}
	}
	return MapSpec{}, false
}

// DanglingLinks returns point-of-interest combat map ids that name no
// declared combat map, formatted as "mapID/poiID -> combatMapID".
func (c CampaignMaps) DanglingLinks() []string {
	combat := make(map[string]bool, len(c.Combat))
	for _, s := range c.Combat {
		combat[s.ID] = true
	}
	var out []string
	for _, s := range c.Exploration {
		for _, poi := range s.PointsOfInterest {
			if poi.CombatMapID != "" && !combat[poi.CombatMapID] {
				out = append(out, fmt.Sprintf("%s/%s -> %s", s.ID, poi.ID, poi.CombatMapID))
			}
		}
	}
	return out
}
