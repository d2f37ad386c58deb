package tactical

import (
	"strings"
	"time"
)

// MapType distinguishes tactical combat maps from exploration overviews.
type MapType string

// Map types.
const (
	MapCombat      MapType = "combat"
	MapExploration MapType = "exploration"
)

// Confidence is a coarse self-reported reliability rating.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence normalizes s. Empty or unrecognized values yield
// ConfidenceMedium.
func ParseConfidence(s string) Confidence {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(s))); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c
	default:
		return ConfidenceMedium
	}
}

// GenerationPath records which pipeline produced an artifact's content.
type GenerationPath string

// Generation paths.
const (
	PathImageVision GenerationPath = "image+vision"
	PathVision      GenerationPath = "vision"
	PathText        GenerationPath = "text"
	PathImage       GenerationPath = "image"
)

// PointOfInterest is a numbered location on an exploration map.
type PointOfInterest struct {
	ID          string `json:"id" yaml:"id"`
	Number      int    `json:"number" yaml:"number"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
	Hidden      bool   `json:"hidden,omitempty" yaml:"hidden"`
	CombatMapID string `json:"combatMapId,omitempty" yaml:"combatMapId"`
}

// MapArtifact is the persisted result of generating one map.
type MapArtifact struct {
	CampaignID         string            `json:"campaignId"`
	MapSpecID          string            `json:"mapSpecId"`
	Name               string            `json:"name"`
	MapType            MapType           `json:"mapType"`
	FeetPerSquare      int               `json:"feetPerSquare"`
	Encoding           Encoding          `json:"encoding,omitempty"`
	TileData           []Tile            `json:"tileData,omitempty"`
	Regions            []Region          `json:"regions,omitempty"`
	BackgroundImageURL string            `json:"backgroundImageUrl,omitempty"`
	Confidence         Confidence        `json:"confidence,omitempty"`
	PointsOfInterest   []PointOfInterest `json:"pointsOfInterest,omitempty"`
	GenerationPath     GenerationPath    `json:"generationPath,omitempty"`
	GeneratedAt        time.Time         `json:"generatedAt"`
}

// ArtifactID returns the document key for a campaign's map.
func ArtifactID(campaignID, mapSpecID string) string {
	return campaignID + "_" + mapSpecID
}

// ID returns the artifact's document key.
func (a *MapArtifact) ID() string {
	return ArtifactID(a.CampaignID, a.MapSpecID)
}

// HasImage reports whether the artifact references a background image.
func (a *MapArtifact) HasImage() bool {
	return a != nil && a.BackgroundImageURL != ""
}

// HasGrid reports whether the artifact holds a complete tile grid.
func (a *MapArtifact) HasGrid() bool {
	return a != nil && len(a.TileData) == CellCount
}

// HasRegions reports whether the artifact's regions include every required
// id. With no required ids this holds vacuously.
func (a *MapArtifact) HasRegions(required []string) bool {
	if a == nil {
		return false
	}
	return len(MissingRegionIDs(a.Regions, required)) == 0
}

// Grid returns the artifact's tiles as a TileGrid.
func (a *MapArtifact) Grid() TileGrid {
	return TileGrid{Encoding: a.Encoding, Cells: a.TileData}
}
