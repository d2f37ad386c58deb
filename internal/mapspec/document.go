package mapspec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/mapseed/internal/tactical"
)

// ErrNoMaps is returned when a campaign document declares no map specs in
// either the split or the legacy shape.
var ErrNoMaps = errors.New("campaign declares no map specs")

// LegacySpec is the flat map spec shape used by older campaign documents,
// where exploration and combat maps share one list.
type LegacySpec struct {
	MapSpec `yaml:",inline"`
	// Regions is the legacy name for RequiredRegions.
	Regions []RequiredRegion `json:"regions,omitempty" yaml:"regions"`
}

// CampaignDocument is the subset of a campaign document that carries map specs.
type CampaignDocument struct {
	Maps     *CampaignMaps `json:"maps,omitempty" yaml:"maps"`
	MapSpecs []LegacySpec  `json:"mapSpecs,omitempty" yaml:"mapSpecs"`
}

// CampaignMaps returns the document's map specs, preferring the split shape
// and adapting the legacy shape otherwise.
//
// Postcondition: Returns normalized, validated CampaignMaps or a non-nil error.
func (d CampaignDocument) CampaignMaps() (CampaignMaps, error) {
	var maps CampaignMaps
	switch {
	case d.Maps != nil && len(d.Maps.Exploration)+len(d.Maps.Combat) > 0:
		maps = *d.Maps
	case len(d.MapSpecs) > 0:
		maps = FromLegacy(d.MapSpecs)
	default:
		return CampaignMaps{}, ErrNoMaps
	}
	maps.Normalize()
	if err := maps.Validate(); err != nil {
		return CampaignMaps{}, fmt.Errorf("validating map specs: %w", err)
	}
	return maps, nil
}

// FromLegacy splits a flat legacy spec list into exploration and combat
// phases. A legacy spec is an exploration map when its type says so or when
// it declares points of interest and no layout; otherwise it is a combat map.
func FromLegacy(specs []LegacySpec) CampaignMaps {
	var maps CampaignMaps
	for _, ls := range specs {
		s := ls.MapSpec
		if len(s.RequiredRegions) == 0 && len(ls.Regions) > 0 {
			s.RequiredRegions = ls.Regions
		}
		exploration := s.Type == tactical.MapExploration ||
			(s.Type == "" && len(s.PointsOfInterest) > 0 && s.LayoutDescription == "")
		if exploration {
			maps.Exploration = append(maps.Exploration, s)
		} else {
			maps.Combat = append(maps.Combat, s)
		}
	}
	return maps
}

// ParseDocument decodes a JSON campaign document.
//
// Postcondition: Returns normalized CampaignMaps or a non-nil error.
func ParseDocument(data []byte) (CampaignMaps, error) {
	var doc CampaignDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return CampaignMaps{}, fmt.Errorf("parsing campaign document: %w", err)
	}
	return doc.CampaignMaps()
}

// LoadFromBytes parses a YAML or JSON spec file.
//
// Precondition: data is YAML (JSON is accepted as a YAML subset).
// Postcondition: Returns normalized CampaignMaps or a non-nil error.
func LoadFromBytes(data []byte) (CampaignMaps, error) {
	var doc CampaignDocument
	if len(bytes.TrimSpace(data)) == 0 {
		return CampaignMaps{}, ErrNoMaps
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return CampaignMaps{}, fmt.Errorf("parsing map spec YAML: %w", err)
	}
	return doc.CampaignMaps()
}

// LoadFile reads and parses a spec file.
//
// Precondition: path must point to a YAML or JSON spec file.
// Postcondition: Returns normalized CampaignMaps or a non-nil error.
func LoadFile(path string) (CampaignMaps, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CampaignMaps{}, fmt.Errorf("reading map spec file %s: %w", path, err)
	}
	maps, err := LoadFromBytes(data)
	if err != nil {
		return CampaignMaps{}, fmt.Errorf("loading %s: %w", path, err)
	}
	return maps, nil
}
