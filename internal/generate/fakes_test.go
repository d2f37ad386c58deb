package generate_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cory-johannsen/mapseed/internal/imagegen"
	"github.com/cory-johannsen/mapseed/internal/llm"
	"github.com/cory-johannsen/mapseed/internal/mapspec"
	"github.com/cory-johannsen/mapseed/internal/tactical"
)

type reply struct {
	resp llm.Response
	err  error
}

// scriptedCompleter replays replies in order and repeats the last one.
type scriptedCompleter struct {
	mu       sync.Mutex
	replies  []reply
	requests []llm.Request
}

func (c *scriptedCompleter) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	i := len(c.requests) - 1
	if i >= len(c.replies) {
		i = len(c.replies) - 1
	}
	return c.replies[i].resp, c.replies[i].err
}

func (c *scriptedCompleter) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func ok(text string, cost float64) reply {
	return reply{resp: llm.Response{Text: text, Cost: cost}}
}

func fail(err error) reply {
	return reply{err: err}
}

// gridJSON returns a valid all-floor grid declaring regions at the top-left corner.
func gridJSON(regionIDs ...string) string {
	tiles := make([]int, tactical.CellCount)
	regions := make([]map[string]any, 0, len(regionIDs))
	for _, id := range regionIDs {
		regions = append(regions, map[string]any{
			"id":     id,
			"name":   strings.ToUpper(id),
			"type":   "tavern",
			"bounds": map[string]int{"minRow": 0, "maxRow": 1, "minCol": 0, "maxCol": 1},
		})
	}
	b, err := json.Marshal(map[string]any{"tileData": tiles, "regions": regions, "confidence": "high"})
	if err != nil {
		panic(fmt.Sprintf("marshal grid: %v", err))
	}
	return string(b)
}

type fakeGenerator struct {
	images []imagegen.Image
	errs   []error
	calls  int
	prompt string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (imagegen.Image, error) {
	i := g.calls
	g.calls++
	g.prompt = prompt
	if i < len(g.errs) && g.errs[i] != nil {
		return imagegen.Image{}, g.errs[i]
	}
	if i < len(g.images) {
		return g.images[i], nil
	}
	return imagegen.Image{}, errors.New("no scripted image")
}

type suffixHook struct{ suffix string }

func (h suffixHook) ImagePrompt(_ mapspec.MapSpec, def string) string  { return def + h.suffix }
func (h suffixHook) LayoutPrompt(_ mapspec.MapSpec, def string) string { return def + h.suffix }

func combatSpec(regionIDs ...string) mapspec.MapSpec {
	spec := mapspec.MapSpec{
		ID:                "tavern",
		Name:              "The Empty Net",
		Type:              tactical.MapCombat,
		FeetPerSquare:     5,
		Terrain:           "wooden floor",
		Lighting:          "dim lanterns",
		LayoutDescription: "A long common room with a bar along the north wall.",
	}
	for _, id := range regionIDs {
		spec.RequiredRegions = append(spec.RequiredRegions, mapspec.RequiredRegion{
			ID: id, Name: strings.ToUpper(id), Type: tactical.RegionTavern, Position: "north",
		})
	}
	return spec
}
