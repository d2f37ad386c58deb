// Package generate turns map specs into validated tactical grids and map
// images by prompting external generation services, retrying on transport
// and validation failures.
package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mapseed/internal/imagegen"
	"github.com/cory-johannsen/mapseed/internal/llm"
	"github.com/cory-johannsen/mapseed/internal/mapspec"
	"github.com/cory-johannsen/mapseed/internal/tactical"
)

// PromptHook may rewrite prompts before they are sent.
type PromptHook interface {
	ImagePrompt(spec mapspec.MapSpec, def string) string
	LayoutPrompt(spec mapspec.MapSpec, def string) string
}

type noHook struct{}

func (noHook) ImagePrompt(_ mapspec.MapSpec, def string) string  { return def }
func (noHook) LayoutPrompt(_ mapspec.MapSpec, def string) string { return def }

// Generation is the outcome of a grid backend call. Cost and Attempts are
// populated on failure as well.
type Generation struct {
	Result   tactical.Result
	Cost     float64
	Attempts int
}

// gridBackend holds the request and validation loop shared by the text and vision backends.
type gridBackend struct {
	completer llm.Completer
	validator tactical.Validator
	opts      Options
	name      string
	logger    *zap.Logger
}

// complete runs the request/validate loop shared by the text and vision backends.
func (b *gridBackend) complete(ctx context.Context, spec mapspec.MapSpec, req llm.Request) (Generation, error) {
	var gen Generation
	required := spec.RequiredRegionIDs()
	notify := func(err error, next time.Duration) {
		b.logger.Warn("grid attempt failed, retrying",
			zap.String("backend", b.name),
			zap.String("map_spec_id", spec.ID),
			zap.Int("attempt", gen.Attempts),
			zap.Duration("backoff", next),
			zap.Error(err),
		)
	}
	result, err := retry(ctx, b.opts, notify, func() (tactical.Result, error) {
		gen.Attempts++
		resp, err := b.completer.Complete(ctx, req)
		gen.Cost += resp.Cost
		if err != nil {
			return tactical.Result{}, classifyCompletionError(b.name, err)
		}
		return b.validator.Validate([]byte(StripCodeFences(resp.Text)), required)
	})
	if err != nil {
		return gen, fmt.Errorf("%s backend: map %s failed after %d attempts: %w", b.name, spec.ID, gen.Attempts, err)
	}
	gen.Result = result
	return gen, nil
}

func classifyCompletionError(service string, err error) error {
	te := &TransportError{Service: service, Err: err}
	if errors.Is(err, llm.ErrEmptyResponse) || llm.IsRetryable(err) {
		return te
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return permanent(te)
}

// TextBackend generates grids from a spec's layout prose.
type TextBackend struct {
	gridBackend
	hook PromptHook
}

// NewTextBackend creates a TextBackend. hook may be nil.
//
// Precondition: completer and logger must be non-nil.
func NewTextBackend(completer llm.Completer, enc tactical.Encoding, opts Options, hook PromptHook, logger *zap.Logger) *TextBackend {
	if hook == nil {
		hook = noHook{}
	}
	return &TextBackend{
		gridBackend: gridBackend{
			completer: completer,
			validator: tactical.NewValidator(enc),
			opts:      opts,
			name:      "text",
			logger:    logger,
		},
		hook: hook,
	}
}

// Generate produces a grid for spec from its layout description.
//
// Postcondition: On success the result satisfies every invariant checked by
// tactical.Validate, including spec's required regions.
func (b *TextBackend) Generate(ctx context.Context, spec mapspec.MapSpec) (Generation, error) {
	req := llm.Request{
		System: SystemPrompt(b.validator.Encoding),
		Prompt: b.hook.LayoutPrompt(spec, LayoutPrompt(spec)),
	}
	return b.complete(ctx, spec, req)
}

// VisionBackend traces grids from rendered map images.
type VisionBackend struct {
	gridBackend
}

// NewVisionBackend creates a VisionBackend.
//
// Precondition: completer and logger must be non-nil.
func NewVisionBackend(completer llm.Completer, enc tactical.Encoding, opts Options, logger *zap.Logger) *VisionBackend {
	return &VisionBackend{gridBackend: gridBackend{
		completer: completer,
		validator: tactical.NewValidator(enc),
		opts:      opts,
		name:      "vision",
		logger:    logger,
	}}
}

// Analyze produces a grid for spec by tracing img, using the spec's required
// regions as placement hints.
//
// Precondition: img.Data must be non-empty.
func (b *VisionBackend) Analyze(ctx context.Context, spec mapspec.MapSpec, img imagegen.Image) (Generation, error) {
	if len(img.Data) == 0 {
		return Generation{}, fmt.Errorf("vision backend: map %s: %w", spec.ID, imagegen.ErrNoImage)
	}
	req := llm.Request{
		System:        SystemPrompt(b.validator.Encoding),
		Prompt:        VisionPrompt(spec),
		Image:         img.Data,
		ImageMIMEType: img.MIMEType,
	}
	return b.complete(ctx, spec, req)
}

// ImageGeneration is the outcome of an image backend call.
type ImageGeneration struct {
	Image    imagegen.Image
	Cost     float64
	Attempts int
}

// ImageBackend renders map images.
type ImageBackend struct {
	generator imagegen.Generator
	opts      Options
	hook      PromptHook
	logger    *zap.Logger
}

// NewImageBackend creates an ImageBackend. hook may be nil.
//
// Precondition: generator and logger must be non-nil.
func NewImageBackend(generator imagegen.Generator, opts Options, hook PromptHook, logger *zap.Logger) *ImageBackend {
	if hook == nil {
		hook = noHook{}
	}
	return &ImageBackend{generator: generator, opts: opts, hook: hook, logger: logger}
}

// Prompt returns the image prompt that Render would send for spec.
func (b *ImageBackend) Prompt(spec mapspec.MapSpec) string {
	def := CombatImagePrompt(spec)
	if spec.Type == tactical.MapExploration {
		def = ExplorationImagePrompt(spec)
	}
	return b.hook.ImagePrompt(spec, def)
}

// Render generates a background image for spec.
func (b *ImageBackend) Render(ctx context.Context, spec mapspec.MapSpec) (ImageGeneration, error) {
	var gen ImageGeneration
	prompt := b.Prompt(spec)
	notify := func(err error, next time.Duration) {
		b.logger.Warn("image attempt failed, retrying",
			zap.String("map_spec_id", spec.ID),
			zap.Int("attempt", gen.Attempts),
			zap.Duration("backoff", next),
			zap.Error(err),
		)
	}
	img, err := retry(ctx, b.opts, notify, func() (imagegen.Image, error) {
		gen.Attempts++
		img, err := b.generator.Generate(ctx, prompt)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return imagegen.Image{}, err
			}
			return imagegen.Image{}, &TransportError{Service: "image", Err: err}
		}
		gen.Cost += img.Cost
		return img, nil
	})
	if err != nil {
		return gen, fmt.Errorf("image backend: map %s failed after %d attempts: %w", spec.ID, gen.Attempts, err)
	}
	gen.Image = img
	return gen, nil
}
