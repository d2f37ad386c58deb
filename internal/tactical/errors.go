package tactical

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOutput is wrapped by every validation failure.
var ErrInvalidOutput = errors.New("invalid generator output")

// ShapeError reports a malformed grid or region structure.
type ShapeError struct {
	Detail string
	Err    error
}

func (e *ShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed output: %s: %v", e.Detail, e.Err)
	}
	return "malformed output: " + e.Detail
}

func (e *ShapeError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidOutput, e.Err}
	}
	return []error{ErrInvalidOutput}
}

// WalkabilityError reports a grid below the walkability floor.
type WalkabilityError struct {
	// Percent is the computed walkable share, 0-100.
	Percent float64
}

func (e *WalkabilityError) Error() string {
	return fmt.Sprintf("only %.1f%% of tiles are walkable, at least %.0f%% required",
		e.Percent, MinWalkableFraction*100)
}

func (e *WalkabilityError) Unwrap() error { return ErrInvalidOutput }

// BoundsError reports a region whose min coordinate exceeds its max.
type BoundsError struct {
	RegionID string
	Bounds   Bounds
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("region %q has invalid bounds: rows %d-%d, cols %d-%d",
		e.RegionID, e.Bounds.MinRow, e.Bounds.MaxRow, e.Bounds.MinCol, e.Bounds.MaxCol)
}

func (e *BoundsError) Unwrap() error { return ErrInvalidOutput }

// MissingRegionsError reports required region ids absent from the output.
type MissingRegionsError struct {
	Missing []string
}

func (e *MissingRegionsError) Error() string {
	return "missing required regions: " + strings.Join(e.Missing, ", ")
}

func (e *MissingRegionsError) Unwrap() error { return ErrInvalidOutput }
