// Package orchestrator regenerates map artifacts idempotently. For each map it
// reads the persisted artifact, decides which generation path to run, falls
// back from the image path to the text path on failure, merges fresh output
// with what is already persisted, and writes only after the whole pipeline
// for the map has completed.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mapseed/internal/blob"
	"github.com/cory-johannsen/mapseed/internal/generate"
	"github.com/cory-johannsen/mapseed/internal/imagegen"
	"github.com/cory-johannsen/mapseed/internal/mapspec"
	"github.com/cory-johannsen/mapseed/internal/storage"
	"github.com/cory-johannsen/mapseed/internal/tactical"
)

// ErrImagePathDisabled explains a skipped exploration map.
var ErrImagePathDisabled = errors.New("image generation is disabled")

// ErrPlanOnly is returned by Generate on an Orchestrator built by NewPlanner.
var ErrPlanOnly = errors.New("orchestrator can only plan")

// GridGenerator produces a grid from a spec's layout prose.
type GridGenerator interface {
	Generate(ctx context.Context, spec mapspec.MapSpec) (generate.Generation, error)
}

// ImageAnalyzer traces a grid from a map image.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, spec mapspec.MapSpec, img imagegen.Image) (generate.Generation, error)
}

// ImageRenderer renders a map image.
type ImageRenderer interface {
	Render(ctx context.Context, spec mapspec.MapSpec) (generate.ImageGeneration, error)
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Store  storage.ArtifactStore
	Text   GridGenerator
	Vision ImageAnalyzer
	Images ImageRenderer
	Blobs  blob.Store
	Logger *zap.Logger
	// Clock stamps generated artifacts; nil uses time.Now.
	Clock func() time.Time
}

// Orchestrator runs the per-map regeneration pipeline.
type Orchestrator struct {
	deps      Deps
	imagePath bool
	planOnly  bool
}

// New creates an Orchestrator.
//
// Precondition: d.Store, d.Text and d.Logger must be non-nil; when imagePath
// is true d.Vision, d.Images and d.Blobs must be non-nil too.
// Postcondition: Returns a ready Orchestrator or a non-nil error naming the missing dependency.
func New(d Deps, imagePath bool) (*Orchestrator, error) {
	var missing []string
	if d.Store == nil {
		missing = append(missing, "store")
	}
	if d.Text == nil {
		missing = append(missing, "text backend")
	}
	if d.Logger == nil {
		missing = append(missing, "logger")
	}
	if imagePath {
		if d.Vision == nil {
			missing = append(missing, "vision backend")
		}
		if d.Images == nil {
			missing = append(missing, "image backend")
		}
		if d.Blobs == nil {
			missing = append(missing, "blob store")
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("orchestrator: missing dependencies: %v", missing)
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return &Orchestrator{deps: d, imagePath: imagePath}, nil
}

// NewPlanner returns an Orchestrator that supports Plan but not Generate.
// It needs no collaborators, so dry runs work without credentials.
func NewPlanner(imagePath bool) *Orchestrator {
	return &Orchestrator{imagePath: imagePath, planOnly: true}
}

// ImagePath reports whether the image-generation path is enabled.
func (o *Orchestrator) ImagePath() bool {
	return o.imagePath
}

// Plan returns the action a run would take for spec if nothing were persisted.
// It performs no I/O.
func (o *Orchestrator) Plan(spec mapspec.MapSpec) Action {
	return Decide(State{MapType: spec.Type, Prior: PriorNone, ImagePath: o.imagePath})
}

// Outcome describes what Generate did for one map.
type Outcome struct {
	MapID  string
	Prior  Prior
	Action Action
	// Path records which generation path succeeded in this run. It can differ
	// from the persisted GenerationPath when a complete grid was kept.
	Path tactical.GenerationPath
	// Cost is the USD spent on this map, including failed attempts.
	Cost float64
	// Written is true when the store accepted a changed document.
	Written bool
	// Reused is true when the persisted artifact was kept untouched.
	Reused bool
	// Skipped is true when no path was available; SkipReason says why.
	Skipped    bool
	SkipReason error
	// FellBack is true when the image path failed and the text path produced the grid.
	FellBack bool
	Warnings []string
	Artifact *tactical.MapArtifact
}

func (out *Outcome) warn(logger *zap.Logger, msg string, err error) {
	out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %v", msg, err))
	logger.Warn(msg, zap.Error(err))
}

// Generate runs the pipeline for spec within campaignID.
//
// Postcondition: On error nothing was written and the persisted artifact is
// unchanged; Outcome.Cost still reports what was spent.
func (o *Orchestrator) Generate(ctx context.Context, campaignID string, spec mapspec.MapSpec) (Outcome, error) {
	if o.planOnly {
		return Outcome{MapID: spec.ID}, ErrPlanOnly
	}
	id := tactical.ArtifactID(campaignID, spec.ID)
	logger := o.deps.Logger.With(zap.String("artifact_id", id))
	out := Outcome{MapID: spec.ID}

	existing, err := o.deps.Store.GetArtifact(ctx, id)
	var prior *tactical.MapArtifact
	switch {
	case err == nil:
		prior = &existing
	case errors.Is(err, storage.ErrNotFound):
	default:
		return out, fmt.Errorf("reading artifact %s: %w", id, err)
	}

	out.Prior = Classify(prior, spec)
	out.Action = Decide(State{MapType: spec.Type, Prior: out.Prior, ImagePath: o.imagePath})
	logger.Debug("decided action",
		zap.Stringer("prior", out.Prior),
		zap.Stringer("action", out.Action),
	)

	switch out.Action {
	case ActionReuse:
		out.Reused = true
		out.Path = prior.GenerationPath
		out.Artifact = prior
		return out, nil
	case ActionSkip:
		out.Skipped = true
		out.SkipReason = ErrImagePathDisabled
		return out, nil
	case ActionGenerateImage:
		return o.exploration(ctx, campaignID, spec, prior, out, logger)
	case ActionBackfillImage:
		return o.backfill(ctx, campaignID, spec, prior, out, logger)
	default:
		return o.combat(ctx, campaignID, spec, prior, out, logger)
	}
}

// combat runs ImageThenVision, VisionOnExisting or Text, falling back to Text
// when an image step fails.
func (o *Orchestrator) combat(ctx context.Context, campaignID string, spec mapspec.MapSpec, prior *tactical.MapArtifact, out Outcome, logger *zap.Logger) (Outcome, error) {
	var imageURL string
	if prior.HasImage() {
		imageURL = prior.BackgroundImageURL
	}

	var (
		result tactical.Result
		path   tactical.GenerationPath
		done   bool
	)
	switch out.Action {
	case ActionImageThenVision:
		result, imageURL, done = o.imageThenVision(ctx, campaignID, spec, &out, logger)
		path = tactical.PathImageVision
	case ActionVisionOnExisting:
		result, done = o.visionOnExisting(ctx, spec, imageURL, &out, logger)
		path = tactical.PathVision
	}

	if !done {
		if _, ok := out.Action.Fallback(); ok {
			out.FellBack = true
			logger.Info("falling back to text backend", zap.Stringer("action", out.Action))
		}
		gen, err := o.deps.Text.Generate(ctx, spec)
		out.Cost += gen.Cost
		if err != nil {
			return out, fmt.Errorf("generating %s: %w", spec.ID, err)
		}
		result, path = gen.Result, tactical.PathText
	}

	a := merge(prior, spec, result, path)
	a.CampaignID = campaignID
	a.BackgroundImageURL = imageURL
	out.Path = path
	return o.persist(ctx, a, out, logger)
}

// imageThenVision renders, uploads and traces a new image. done is false when
// the grid must come from the text fallback; url is set whenever the upload succeeded.
func (o *Orchestrator) imageThenVision(ctx context.Context, campaignID string, spec mapspec.MapSpec, out *Outcome, logger *zap.Logger) (tactical.Result, string, bool) {
	img, err := o.deps.Images.Render(ctx, spec)
	out.Cost += img.Cost
	if err != nil {
		out.warn(logger, "image generation failed", err)
		return tactical.Result{}, "", false
	}

	url, err := o.deps.Blobs.Upload(ctx, blob.MapImagePath(campaignID, spec.ID), img.Image.Data, img.Image.MIMEType)
	if err != nil {
		out.warn(logger, "image upload failed; artifact will omit its background image", err)
		url = ""
	}

	gen, err := o.deps.Vision.Analyze(ctx, spec, img.Image)
	out.Cost += gen.Cost
	if err != nil {
		out.warn(logger, "vision analysis failed", err)
		return tactical.Result{}, url, false
	}
	return gen.Result, url, true
}

// visionOnExisting traces the persisted image without requesting a new one.
func (o *Orchestrator) visionOnExisting(ctx context.Context, spec mapspec.MapSpec, url string, out *Outcome, logger *zap.Logger) (tactical.Result, bool) {
	path, ok := o.deps.Blobs.PathFromURL(url)
	if !ok {
		out.warn(logger, "existing image is not in the blob store", fmt.Errorf("unrecognized url %q", url))
		return tactical.Result{}, false
	}
	data, err := o.deps.Blobs.Download(ctx, path)
	if err != nil {
		out.warn(logger, "downloading existing image failed", err)
		return tactical.Result{}, false
	}
	gen, err := o.deps.Vision.Analyze(ctx, spec, imagegen.Image{Data: data, MIMEType: "image/png"})
	out.Cost += gen.Cost
	if err != nil {
		out.warn(logger, "vision analysis failed", err)
		return tactical.Result{}, false
	}
	return gen.Result, true
}

// backfill adds an image to an artifact whose grid is kept. Failures leave
// the artifact untouched and are reported as warnings.
func (o *Orchestrator) backfill(ctx context.Context, campaignID string, spec mapspec.MapSpec, prior *tactical.MapArtifact, out Outcome, logger *zap.Logger) (Outcome, error) {
	out.Artifact = prior

	img, err := o.deps.Images.Render(ctx, spec)
	out.Cost += img.Cost
	if err != nil {
		out.warn(logger, "image backfill failed; keeping grid-only artifact", err)
		return out, nil
	}
	url, err := o.deps.Blobs.Upload(ctx, blob.MapImagePath(campaignID, spec.ID), img.Image.Data, img.Image.MIMEType)
	if err != nil {
		out.warn(logger, "image backfill upload failed; keeping grid-only artifact", err)
		return out, nil
	}

	a := *prior
	a.BackgroundImageURL = url
	a.GeneratedAt = o.deps.Clock().UTC()
	out.Path = tactical.PathImage
	return o.persist(ctx, a, out, logger)
}

// exploration renders and uploads an overview image. Any failure fails the map.
func (o *Orchestrator) exploration(ctx context.Context, campaignID string, spec mapspec.MapSpec, prior *tactical.MapArtifact, out Outcome, logger *zap.Logger) (Outcome, error) {
	img, err := o.deps.Images.Render(ctx, spec)
	out.Cost += img.Cost
	if err != nil {
		return out, fmt.Errorf("generating image for %s: %w", spec.ID, err)
	}
	url, err := o.deps.Blobs.Upload(ctx, blob.MapImagePath(campaignID, spec.ID), img.Image.Data, img.Image.MIMEType)
	if err != nil {
		return out, fmt.Errorf("uploading image for %s: %w", spec.ID, err)
	}

	a := tactical.MapArtifact{
		CampaignID:         campaignID,
		MapSpecID:          spec.ID,
		Name:               spec.Name,
		MapType:            tactical.MapExploration,
		FeetPerSquare:      spec.FeetPerSquare,
		BackgroundImageURL: url,
		PointsOfInterest:   spec.PointsOfInterest,
		GenerationPath:     tactical.PathImage,
	}
	if prior != nil {
		a.Confidence = prior.Confidence
	}
	return o.persist(ctx, a, out, logger)
}

// persist stamps and writes a, the single write point of the pipeline.
func (o *Orchestrator) persist(ctx context.Context, a tactical.MapArtifact, out Outcome, logger *zap.Logger) (Outcome, error) {
	if a.GeneratedAt.IsZero() {
		a.GeneratedAt = o.deps.Clock().UTC()
	}
	written, err := o.deps.Store.PutArtifact(ctx, a)
	if err != nil {
		return out, fmt.Errorf("writing artifact %s: %w", a.ID(), err)
	}
	out.Written = written
	if out.Path == "" {
		out.Path = a.GenerationPath
	}
	out.Artifact = &a
	logger.Info("artifact persisted",
		zap.Stringer("action", out.Action),
		zap.String("path", string(out.Path)),
		zap.String("grid_path", string(a.GenerationPath)),
		zap.Bool("written", written),
		zap.Bool("has_image", a.HasImage()),
		zap.Float64("cost_usd", out.Cost),
	)
	return out, nil
}

// merge combines a fresh result with the persisted artifact. A complete
// persisted grid is never replaced, and persisted regions that satisfy the
// contract are never replaced; confidence and provenance follow the grid.
func merge(prior *tactical.MapArtifact, spec mapspec.MapSpec, fresh tactical.Result, path tactical.GenerationPath) tactical.MapArtifact {
	a := tactical.MapArtifact{
		MapSpecID:      spec.ID,
		Name:           spec.Name,
		MapType:        spec.Type,
		FeetPerSquare:  spec.FeetPerSquare,
		Encoding:       fresh.Grid.Encoding,
		TileData:       fresh.Grid.Cells,
		Regions:        fresh.Regions,
		Confidence:     fresh.Confidence,
		GenerationPath: path,
	}
	if prior.HasGrid() {
		a.Encoding = prior.Encoding
		a.TileData = prior.TileData
		a.Confidence = prior.Confidence
		a.GenerationPath = prior.GenerationPath
	}
	if prior != nil && len(prior.Regions) > 0 && prior.HasRegions(spec.RequiredRegionIDs()) {
		a.Regions = prior.Regions
	}
	if a.Confidence == "" {
		a.Confidence = tactical.ConfidenceMedium
	}
	if a.GenerationPath == "" {
		a.GenerationPath = path
	}
	return a
}
