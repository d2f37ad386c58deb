// Package main provides the seed-maps binary, which generates tactical map
// artifacts for every map declared by a campaign.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mapseed/internal/blob"
	"github.com/cory-johannsen/mapseed/internal/blob/filesystem"
	"github.com/cory-johannsen/mapseed/internal/blob/gcs"
	"github.com/cory-johannsen/mapseed/internal/config"
	"github.com/cory-johannsen/mapseed/internal/generate"
	"github.com/cory-johannsen/mapseed/internal/imagegen"
	"github.com/cory-johannsen/mapseed/internal/llm"
	"github.com/cory-johannsen/mapseed/internal/observability"
	"github.com/cory-johannsen/mapseed/internal/orchestrator"
	"github.com/cory-johannsen/mapseed/internal/scripting"
	"github.com/cory-johannsen/mapseed/internal/seeding"
	"github.com/cory-johannsen/mapseed/internal/server"
	"github.com/cory-johannsen/mapseed/internal/storage"
	"github.com/cory-johannsen/mapseed/internal/storage/firestore"
	"github.com/cory-johannsen/mapseed/internal/storage/memory"
	"github.com/cory-johannsen/mapseed/internal/storage/postgres"
	"github.com/cory-johannsen/mapseed/internal/tactical"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file; empty = defaults and environment only")
	campaignID := flag.String("campaign", "", "campaign id to seed (required)")
	mapID := flag.String("map", "", "seed only this map spec id")
	dryRun := flag.Bool("dry-run", false, "print the plan and estimated cost without generating or writing")
	textOnly := flag.Bool("text-only", false, "disable the image-generation path for this run")
	specPath := flag.String("spec", "", "load map specs from this YAML/JSON file instead of the campaign document")
	flag.Parse()

	if *campaignID == "" {
		fmt.Fprintln(os.Stderr, "usage: seed-maps -campaign <id> [-map <id>] [-dry-run] [-text-only] [-spec <file>] [-config <file>]")
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("loading config: %v", err)
		return exitError
	}
	if *textOnly {
		cfg.Image.Enabled = false
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Printf("initializing logger: %v", err)
		return exitError
	}
	defer logger.Sync()

	lc := server.NewLifecycle(logger)
	defer lc.Shutdown()
	ctx, stop := lc.SignalContext(context.Background())
	defer stop()

	logger.Info("starting seed-maps",
		zap.String("campaign_id", *campaignID),
		zap.String("store", cfg.Store.Driver),
		zap.Bool("image_path", cfg.Image.Enabled),
		zap.Bool("dry_run", *dryRun),
	)

	// A dry run with a spec file touches no store at all.
	var store storage.Store
	if !*dryRun || *specPath == "" {
		store, err = openStore(ctx, cfg)
		if err != nil {
			logger.Error("opening document store", zap.Error(err))
			return exitError
		}
		lc.Add("store", store)
	}

	var source seeding.Source = seeding.StoreSource{Campaigns: store}
	if *specPath != "" {
		source = seeding.FileSource{Path: *specPath}
	}

	orch := orchestrator.NewPlanner(cfg.Image.Enabled)
	if !*dryRun {
		built, err := buildOrchestrator(ctx, cfg, store, lc, logger)
		if err != nil {
			logger.Error("building orchestrator", zap.Error(err))
			return exitError
		}
		orch = built
	}
	logger.Info("generation paths",
		zap.Bool("image_path", orch.ImagePath()),
		zap.Bool("plan_only", *dryRun),
	)

	driver := seeding.NewDriver(source, orch, seeding.NewEstimator(cfg), logger)
	report, err := driver.Run(ctx, seeding.Options{
		CampaignID: *campaignID,
		OnlyMapID:  *mapID,
		DryRun:     *dryRun,
	})
	report.Print(os.Stdout)
	if err != nil {
		logger.Error("seeding run failed", zap.Error(err))
		return exitError
	}
	if n := report.Failed(); n > 0 {
		logger.Error("seeding run finished with failures", zap.Int("failed", n))
		return exitError
	}
	logger.Info("seeding run complete", zap.Duration("elapsed", time.Since(start)))
	return exitOK
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return postgres.NewStore(ctx, cfg.Database)
	case "firestore":
		return firestore.New(ctx, cfg.Firestore)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func openBlobs(ctx context.Context, cfg config.BlobConfig, lc *server.Lifecycle) (blob.Store, error) {
	switch cfg.Driver {
	case "gcs":
		s, err := gcs.New(ctx, cfg.Bucket, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		lc.Add("blobs", s)
		return s, nil
	case "filesystem":
		return filesystem.New(cfg.Dir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

func buildOrchestrator(ctx context.Context, cfg config.Config, store storage.ArtifactStore, lc *server.Lifecycle, logger *zap.Logger) (*orchestrator.Orchestrator, error) {
	enc, err := tactical.ParseEncoding(cfg.Generation.Encoding)
	if err != nil {
		return nil, err
	}

	var hook generate.PromptHook
	if cfg.Scripting.PromptScript != "" {
		hooks, err := scripting.LoadPromptHooks(cfg.Scripting.PromptScript, cfg.Scripting.InstructionLimit, logger)
		if err != nil {
			return nil, err
		}
		lc.Add("prompt hooks", server.CloseFunc(func() error {
			hooks.Close()
			return nil
		}))
		hook = hooks
	}

	completer, err := llm.NewAnthropicClient(cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("creating llm client: %w", err)
	}
	gridOpts := generate.Options{
		MaxAttempts:    cfg.Generation.MaxAttempts,
		InitialBackoff: cfg.Generation.InitialBackoff,
	}

	deps := orchestrator.Deps{
		Store:  store,
		Text:   generate.NewTextBackend(completer, enc, gridOpts, hook, logger),
		Logger: logger,
	}
	if cfg.Image.Enabled {
		generator, err := imagegen.NewGenAIGenerator(ctx, cfg.Image, logger)
		if err != nil {
			if errors.Is(err, imagegen.ErrNoAPIKey) {
				return nil, fmt.Errorf("image generation is enabled but no key is set (use -text-only to skip it): %w", err)
			}
			return nil, fmt.Errorf("creating image generator: %w", err)
		}
		blobs, err := openBlobs(ctx, cfg.Blob, lc)
		if err != nil {
			return nil, fmt.Errorf("opening blob store: %w", err)
		}
		imageOpts := generate.Options{
			MaxAttempts:    cfg.Image.MaxAttempts,
			InitialBackoff: cfg.Generation.InitialBackoff,
		}
		deps.Vision = generate.NewVisionBackend(completer, enc, gridOpts, logger)
		deps.Images = generate.NewImageBackend(generator, imageOpts, hook, logger)
		deps.Blobs = blobs
	}
	return orchestrator.New(deps, cfg.Image.Enabled)
}
