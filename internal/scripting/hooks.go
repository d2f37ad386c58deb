package scripting

import (
	"fmt"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mapseed/internal/mapspec"
)

// Hook names looked up as Lua globals.
const (
	HookImagePrompt  = "image_prompt"
	HookLayoutPrompt = "layout_prompt"
)

// PromptHooks runs a Lua script that may rewrite generation prompts. Each
// hook receives a table describing the map and the default prompt, and
// returns the prompt to use.
//
// A missing hook, a Lua runtime error, an exhausted instruction budget, or a
// non-string or empty return value all fall back to the default prompt.
type PromptHooks struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	path   string
	logger *zap.Logger
}

// LoadPromptHooks executes the script at path in a sandboxed VM.
//
// Precondition: path must name a readable Lua file; logger must be non-nil.
// Postcondition: Returns hooks ready for calls, or an error if the script fails to load.
func LoadPromptHooks(path string, instLimit int, logger *zap.Logger) (*PromptHooks, error) {
	limit := effectiveLimit(instLimit)
	L := NewSandboxedState(limit)
	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("scripting: loading %q: %w", path, err)
	}
	return &PromptHooks{L: L, limit: limit, path: path, logger: logger}, nil
}

// ImagePrompt returns the image prompt for spec.
func (h *PromptHooks) ImagePrompt(spec mapspec.MapSpec, def string) string {
	return h.call(HookImagePrompt, spec, def)
}

// LayoutPrompt returns the text-to-grid user prompt for spec.
func (h *PromptHooks) LayoutPrompt(spec mapspec.MapSpec, def string) string {
	return h.call(HookLayoutPrompt, spec, def)
}

// Close releases the VM.
func (h *PromptHooks) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.L.Close()
}

func (h *PromptHooks) call(hook string, spec mapspec.MapSpec, def string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	fn := h.L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return def
	}

	cancel := arm(h.L, h.limit)
	defer cancel()

	if err := h.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, mapTable(h.L, spec), lua.LString(def)); err != nil {
		h.logger.Warn("scripting: Lua runtime error",
			zap.String("script", h.path),
			zap.String("hook", hook),
			zap.String("map_spec_id", spec.ID),
			zap.Error(err),
		)
		return def
	}

	ret := h.L.Get(-1)
	h.L.Pop(1)
	s, ok := ret.(lua.LString)
	if !ok || strings.TrimSpace(string(s)) == "" {
		h.logger.Debug("scripting: hook returned no prompt, using default",
			zap.String("hook", hook),
			zap.String("map_spec_id", spec.ID),
		)
		return def
	}
	return string(s)
}

// mapTable converts spec to the Lua table passed to hooks.
func mapTable(L *lua.LState, spec mapspec.MapSpec) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(spec.ID))
	t.RawSetString("name", lua.LString(spec.Name))
	t.RawSetString("type", lua.LString(spec.Type))
	t.RawSetString("feet_per_square", lua.LNumber(spec.FeetPerSquare))
	t.RawSetString("description", lua.LString(spec.Description))
	t.RawSetString("terrain", lua.LString(spec.Terrain))
	t.RawSetString("lighting", lua.LString(spec.Lighting))
	t.RawSetString("layout", lua.LString(spec.LayoutDescription))
	t.RawSetString("atmosphere", lua.LString(spec.AtmosphereNotes))

	regions := L.NewTable()
	for _, r := range spec.RequiredRegions {
		rt := L.NewTable()
		rt.RawSetString("id", lua.LString(r.ID))
		rt.RawSetString("name", lua.LString(r.Name))
		rt.RawSetString("type", lua.LString(r.Type))
		rt.RawSetString("size", lua.LString(r.Size))
		rt.RawSetString("position", lua.LString(r.Position))
		regions.Append(rt)
	}
	t.RawSetString("regions", regions)

	pois := L.NewTable()
	for _, p := range spec.PointsOfInterest {
		pt := L.NewTable()
		pt.RawSetString("id", lua.LString(p.ID))
		pt.RawSetString("number", lua.LNumber(p.Number))
		pt.RawSetString("name", lua.LString(p.Name))
		pt.RawSetString("hidden", lua.LBool(p.Hidden))
		pois.Append(pt)
	}
	t.RawSetString("points_of_interest", pois)
	return t
}
