// Package seeding drives a campaign-wide map seeding run: exploration maps
// first, then combat maps, one at a time.
package seeding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mapseed/internal/mapspec"
	"github.com/cory-johannsen/mapseed/internal/observability"
	"github.com/cory-johannsen/mapseed/internal/orchestrator"
)

// ErrUnknownMap is returned when Options.OnlyMapID names no declared spec.
var ErrUnknownMap = errors.New("map spec not declared by campaign")

// Generator runs or plans the pipeline for a single map.
type Generator interface {
	Generate(ctx context.Context, campaignID string, spec mapspec.MapSpec) (orchestrator.Outcome, error)
	Plan(spec mapspec.MapSpec) orchestrator.Action
}

// Options select what a run does.
type Options struct {
	CampaignID string
	// OnlyMapID restricts the run to one map when non-empty.
	OnlyMapID string
	// DryRun reports the plan and its estimated cost without reading or
	// writing artifacts or calling any generation service.
	DryRun bool
}

// Driver runs seeding batches.
type Driver struct {
	source    Source
	gen       Generator
	estimator Estimator
	logger    *zap.Logger
	now       func() time.Time
}

// NewDriver creates a Driver.
//
// Precondition: source, gen and logger must be non-nil.
// Postcondition: Returns a non-nil Driver.
func NewDriver(source Source, gen Generator, estimator Estimator, logger *zap.Logger) *Driver {
	return &Driver{
		source:    source,
		gen:       gen,
		estimator: estimator,
		logger:    logger,
		now:       time.Now,
	}
}

// Run seeds every map of opts.CampaignID, or only opts.OnlyMapID.
//
// A failing map is recorded in the report and the run continues. Run returns
// an error only when the specs cannot be loaded, OnlyMapID is unknown, or ctx
// is cancelled; in the last case the report covers the maps already processed.
//
// Precondition: opts.CampaignID must be non-empty.
// Postcondition: Report.Failed() counts every map whose pipeline returned an error.
func (d *Driver) Run(ctx context.Context, opts Options) (Report, error) {
	start := d.now()
	report := Report{
		RunID:      uuid.New().String(),
		CampaignID: opts.CampaignID,
		DryRun:     opts.DryRun,
	}
	logger := observability.RunLogger(d.logger, report.RunID, opts.CampaignID)

	if opts.CampaignID == "" {
		return report, errors.New("campaign id must not be empty")
	}
	maps, err := d.source.Load(ctx, opts.CampaignID)
	if err != nil {
		return report, err
	}
	for _, link := range maps.DanglingLinks() {
		logger.Warn("point of interest links to an undeclared combat map", zap.String("link", link))
	}
	if opts.OnlyMapID != "" {
		spec, ok := maps.Find(opts.OnlyMapID)
		if !ok {
			return report, fmt.Errorf("%w: %s", ErrUnknownMap, opts.OnlyMapID)
		}
		maps = only(spec)
	}

	logger.Info("seeding run starting",
		zap.Int("exploration_maps", len(maps.Exploration)),
		zap.Int("combat_maps", len(maps.Combat)),
		zap.Bool("dry_run", opts.DryRun),
	)

	phases := []struct {
		name  string
		specs []mapspec.MapSpec
	}{
		{PhaseExploration, maps.Exploration},
		{PhaseCombat, maps.Combat},
	}
	for _, phase := range phases {
		for _, spec := range phase.specs {
			if err := ctx.Err(); err != nil {
				report.Elapsed = d.now().Sub(start)
				return report, fmt.Errorf("seeding run interrupted: %w", err)
			}
			mlog := observability.MapLogger(logger, spec.ID, phase.name)
			if opts.DryRun {
				report.record(d.plan(spec, phase.name, mlog))
				continue
			}
			report.record(d.seed(ctx, opts.CampaignID, spec, phase.name, mlog))
		}
	}

	report.Elapsed = d.now().Sub(start)
	logger.Info("seeding run complete",
		zap.Int("failed", report.Failed()),
		zap.Float64("cost_usd", report.CostUSD),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func only(spec mapspec.MapSpec) mapspec.CampaignMaps {
	if spec.IsCombat() {
		return mapspec.CampaignMaps{Combat: []mapspec.MapSpec{spec}}
	}
	return mapspec.CampaignMaps{Exploration: []mapspec.MapSpec{spec}}
}

func (d *Driver) plan(spec mapspec.MapSpec, phase string, logger *zap.Logger) MapResult {
	action := d.gen.Plan(spec)
	res := MapResult{
		MapID:  spec.ID,
		Phase:  phase,
		Status: StatusPlanned,
		Action: action,
		Cost:   d.estimator.Estimate(action),
	}
	switch {
	case action.CallsServices():
	case action == orchestrator.ActionReuse:
		res.Status = StatusReused
	default:
		res.Status = StatusSkipped
	}
	logger.Info("planned",
		zap.Stringer("action", action),
		zap.Bool("calls_services", action.CallsServices()),
		zap.Float64("estimated_cost_usd", res.Cost),
	)
	return res
}

func (d *Driver) seed(ctx context.Context, campaignID string, spec mapspec.MapSpec, phase string, logger *zap.Logger) MapResult {
	t0 := d.now()
	out, err := d.gen.Generate(ctx, campaignID, spec)
	res := MapResult{
		MapID:    spec.ID,
		Phase:    phase,
		Action:   out.Action,
		Path:     out.Path,
		Cost:     out.Cost,
		Written:  out.Written,
		FellBack: out.FellBack,
		Warnings: out.Warnings,
	}
	elapsed := d.now().Sub(t0)

	switch {
	case err != nil:
		res.Status = StatusFailed
		res.Err = err
		logger.Error("map failed", zap.Error(err), zap.Float64("cost_usd", out.Cost), zap.Duration("elapsed", elapsed))
		return res
	case out.Skipped:
		res.Status = StatusSkipped
		logger.Info("map skipped", zap.NamedError("reason", out.SkipReason))
	case out.Reused:
		res.Status = StatusReused
		logger.Info("map reused")
	default:
		res.Status = StatusSucceeded
		logger.Info("map seeded",
			zap.Stringer("action", out.Action),
			zap.String("path", string(out.Path)),
			zap.Bool("written", out.Written),
			zap.Float64("cost_usd", out.Cost),
			zap.Duration("elapsed", elapsed),
		)
	}
	return res
}
