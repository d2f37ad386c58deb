package orchestrator

import (
	"github.com/cory-johannsen/mapseed/internal/mapspec"
	"github.com/cory-johannsen/mapseed/internal/tactical"
)

// Prior classifies what a persisted artifact already provides.
type Prior int

const (
	// PriorNone means no artifact exists, or it holds neither an image nor a usable grid.
	PriorNone Prior = iota
	// PriorGridOnly means a complete grid satisfying the region contract but no image.
	PriorGridOnly
	// PriorImageOnly means an image but no complete grid satisfying the region contract.
	PriorImageOnly
	// PriorImageAndGrid means both an image and a complete, contract-satisfying grid.
	PriorImageAndGrid
)

func (p Prior) String() string {
	switch p {
	case PriorNone:
		return "none"
	case PriorGridOnly:
		return "grid_only"
	case PriorImageOnly:
		return "image_only"
	case PriorImageAndGrid:
		return "image_and_grid"
	default:
		return "unknown"
	}
}

// HasImage reports whether the prior state includes an image.
func (p Prior) HasImage() bool {
	return p == PriorImageOnly || p == PriorImageAndGrid
}

// Action is the work the orchestrator performs for one map.
type Action int

const (
	// ActionReuse keeps the persisted artifact as-is: no generation, no write.
	ActionReuse Action = iota
	// ActionText generates the grid from layout prose.
	ActionText
	// ActionImageThenVision renders an image, uploads it, and traces the grid from it.
	ActionImageThenVision
	// ActionVisionOnExisting traces the grid from the already persisted image.
	ActionVisionOnExisting
	// ActionBackfillImage renders and uploads an image for an artifact whose grid is kept.
	ActionBackfillImage
	// ActionGenerateImage renders and uploads an exploration map image.
	ActionGenerateImage
	// ActionSkip does nothing because the required path is disabled.
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionReuse:
		return "reuse"
	case ActionText:
		return "text"
	case ActionImageThenVision:
		return "image_then_vision"
	case ActionVisionOnExisting:
		return "vision_on_existing"
	case ActionBackfillImage:
		return "backfill_image"
	case ActionGenerateImage:
		return "generate_image"
	case ActionSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Fallback returns the action to run when a's own path fails.
func (a Action) Fallback() (Action, bool) {
	switch a {
	case ActionImageThenVision, ActionVisionOnExisting:
		return ActionText, true
	default:
		return 0, false
	}
}

// CallsServices reports whether a may call an external generation service.
func (a Action) CallsServices() bool {
	return a != ActionReuse && a != ActionSkip
}

// State is the input to Decide.
type State struct {
	MapType   tactical.MapType
	Prior     Prior
	ImagePath bool
}

// Decide returns the action for s. It is a pure function of its input.
//
// Combat maps:
//
//	prior            image path on       image path off
//	none             image_then_vision   text
//	image_only       vision_on_existing  text
//	image_and_grid   reuse               reuse
//	grid_only        backfill_image      reuse
//
// Exploration maps reuse an existing image, otherwise generate one, or skip
// when the image path is off.
func Decide(s State) Action {
	if s.MapType == tactical.MapExploration {
		switch {
		case s.Prior.HasImage():
			return ActionReuse
		case s.ImagePath:
			return ActionGenerateImage
		default:
			return ActionSkip
		}
	}

	switch s.Prior {
	case PriorImageAndGrid:
		return ActionReuse
	case PriorGridOnly:
		if s.ImagePath {
			return ActionBackfillImage
		}
		return ActionReuse
	case PriorImageOnly:
		if s.ImagePath {
			return ActionVisionOnExisting
		}
		return ActionText
	default:
		if s.ImagePath {
			return ActionImageThenVision
		}
		return ActionText
	}
}

// Classify derives the Prior of existing against spec. existing may be nil.
func Classify(existing *tactical.MapArtifact, spec mapspec.MapSpec) Prior {
	if existing == nil {
		return PriorNone
	}
	image := existing.HasImage()
	grid := existing.HasGrid() && existing.HasRegions(spec.RequiredRegionIDs())
	switch {
	case image && grid:
		return PriorImageAndGrid
	case image:
		return PriorImageOnly
	case grid:
		return PriorGridOnly
	default:
		return PriorNone
	}
}
