package generate

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/mapseed/internal/mapspec"
	"github.com/cory-johannsen/mapseed/internal/tactical"
)

const legacyTileLegend = `- 0: floor (walkable)
- 1: wall (impassable)
- 2: door (walkable)`

const extendedTileLegend = `- 0: outdoor floor, ground, grass, street (walkable)
- 1: wall, cliff, building exterior, impassable obstacle
- 2: door, gate, opening (walkable)
- 3: water, rubble, difficult terrain (walkable at half speed)
- 4: indoor floor (walkable)`

const systemPromptTemplate = `You are a tactical battle map designer for a tabletop role-playing game. You convert map descriptions and map images into a 20x20 tactical grid where each cell is one square.

## Tile values
%s

## Rules
1. The grid is exactly 20 rows of exactly 20 integers. Row 0 is the top (north) edge, column 0 is the left (west) edge.
2. At least 30%% of all cells must be walkable (anything other than 1).
3. Every required region listed by the user MUST appear in "regions" with exactly the given id.
4. A region's area is given as inclusive "bounds" {"minRow","maxRow","minCol","maxCol"} with values 0-19, or as "cells", a list of flat indexes row*20+col.
5. Region types are one of: %s.
6. Confidence is "high", "medium" or "low" and reflects how well the grid matches the description.

Respond with ONLY valid JSON in this exact format (no markdown, no explanation):
{
  "rows": [[0, 1, ...20 values], ...20 rows],
  "regions": [
    {"id": "region_id", "name": "Region Name", "type": "tavern", "bounds": {"minRow": 0, "maxRow": 3, "minCol": 0, "maxCol": 3}, "dmNote": "optional note"}
  ],
  "confidence": "medium"
}`

// SystemPrompt returns the system prompt describing enc and the output contract.
func SystemPrompt(enc tactical.Encoding) string {
	legend := extendedTileLegend
	if enc == tactical.EncodingLegacy {
		legend = legacyTileLegend
	}
	types := make([]string, len(tactical.RegionTypes))
	for i, t := range tactical.RegionTypes {
		types[i] = string(t)
	}
	return fmt.Sprintf(systemPromptTemplate, legend, strings.Join(types, ", "))
}

// LayoutPrompt returns the text-to-grid user prompt for a combat spec.
func LayoutPrompt(spec mapspec.MapSpec) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Design the tactical grid for the combat map %q.\n", spec.Name)
	fmt.Fprintf(&sb, "Each square is %d feet.\n\n", spec.FeetPerSquare)
	writeField(&sb, "Description", spec.Description)
	writeField(&sb, "Terrain", spec.Terrain)
	writeField(&sb, "Lighting", spec.Lighting)
	writeField(&sb, "Layout", spec.LayoutDescription)
	writeField(&sb, "Atmosphere", spec.AtmosphereNotes)
	writeRequiredRegions(&sb, spec.RequiredRegions)
	return sb.String()
}

// VisionPrompt returns the image-to-grid user prompt. The required regions
// are given as placement hints; the reply is validated regardless.
func VisionPrompt(spec mapspec.MapSpec) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The attached image is a top-down battle map of %q. ", spec.Name)
	sb.WriteString("Trace it into the 20x20 tactical grid: walls and obstacles as they appear, doors where openings are visible, the rest walkable.\n")
	fmt.Fprintf(&sb, "Each square is %d feet.\n\n", spec.FeetPerSquare)
	writeField(&sb, "Layout notes", spec.LayoutDescription)
	writeRequiredRegions(&sb, spec.RequiredRegions)
	sb.WriteString("\nLocate each required region on the image; if one is not clearly visible, place it where its position hint suggests.\n")
	return sb.String()
}

// CombatImagePrompt returns the image prompt for a combat map.
func CombatImagePrompt(spec mapspec.MapSpec) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Top-down orthographic tabletop RPG battle map of %s. ", spec.Name)
	sb.WriteString("Square format, 20 by 20 squares, no grid lines, no text, no labels, no characters. ")
	if spec.Terrain != "" {
		fmt.Fprintf(&sb, "Terrain: %s. ", spec.Terrain)
	}
	if spec.Lighting != "" {
		fmt.Fprintf(&sb, "Lighting: %s. ", spec.Lighting)
	}
	if spec.LayoutDescription != "" {
		fmt.Fprintf(&sb, "Layout: %s ", strings.TrimSpace(spec.LayoutDescription))
	}
	if len(spec.RequiredRegions) > 0 {
		parts := make([]string, 0, len(spec.RequiredRegions))
		for _, r := range spec.RequiredRegions {
			p := r.Name
			if r.Position != "" {
				p += " (" + r.Position + ")"
			}
			parts = append(parts, p)
		}
		fmt.Fprintf(&sb, "Clearly distinguishable areas: %s. ", strings.Join(parts, ", "))
	}
	if spec.AtmosphereNotes != "" {
		fmt.Fprintf(&sb, "Mood: %s.", spec.AtmosphereNotes)
	}
	return strings.TrimSpace(sb.String())
}

// ExplorationImagePrompt returns the image prompt for an exploration overview
// map. Hidden points of interest are left out.
func ExplorationImagePrompt(spec mapspec.MapSpec) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Illustrated fantasy overview map of %s, seen from above. ", spec.Name)
	if spec.Description != "" {
		fmt.Fprintf(&sb, "%s ", strings.TrimSpace(spec.Description))
	}
	var visible []string
	for _, p := range spec.PointsOfInterest {
		if p.Hidden {
			continue
		}
		visible = append(visible, fmt.Sprintf("%d. %s", p.Number, p.Name))
	}
	if len(visible) > 0 {
		fmt.Fprintf(&sb, "Mark these numbered locations with small numbered markers: %s. ", strings.Join(visible, "; "))
	}
	sb.WriteString("Parchment style, no other text.")
	return sb.String()
}

func writeField(sb *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "%s: %s\n", label, value)
}

func writeRequiredRegions(sb *strings.Builder, regions []mapspec.RequiredRegion) {
	if len(regions) == 0 {
		return
	}
	sb.WriteString("\nRequired regions (use these exact ids):\n")
	for _, r := range regions {
		fmt.Fprintf(sb, "- id %q: %s, type %s", r.ID, r.Name, r.Type)
		if r.Size != "" {
			fmt.Fprintf(sb, ", size %s", r.Size)
		}
		if r.Position != "" {
			fmt.Fprintf(sb, ", position %s", r.Position)
		}
		if r.DMNote != "" {
			fmt.Fprintf(sb, " (DM note: %s)", r.DMNote)
		}
		sb.WriteString("\n")
	}
}

// StripCodeFences removes a surrounding markdown code fence, with or without
// a language tag, from s.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	firstNewline := strings.Index(trimmed, "\n")
	if firstNewline == -1 {
		return strings.TrimSpace(strings.Trim(trimmed, "`"))
	}
	lastFence := strings.LastIndex(trimmed, "```")
	if lastFence <= firstNewline {
		return strings.TrimSpace(trimmed[firstNewline+1:])
	}
	return strings.TrimSpace(trimmed[firstNewline+1 : lastFence])
}
