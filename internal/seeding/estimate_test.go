package seeding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cory-johannsen/mapseed/internal/config"
	"github.com/cory-johannsen/mapseed/internal/orchestrator"
	"github.com/cory-johannsen/mapseed/internal/seeding"
)

func TestEstimator_FromConfig(t *testing.T) {
	var cfg config.Config
	cfg.LLM.InputPricePerMTok = 3
	cfg.LLM.OutputPricePerMTok = 15
	cfg.Image.CostPerImage = 0.04
	est := seeding.NewEstimator(cfg)

	text := 1800.0/1e6*3 + 3000.0/1e6*15
	vision := 3400.0/1e6*3 + 3000.0/1e6*15

	assert.InDelta(t, text, est.Estimate(orchestrator.ActionText), 1e-12)
	assert.InDelta(t, 0.04+vision, est.Estimate(orchestrator.ActionImageThenVision), 1e-12)
	assert.InDelta(t, vision, est.Estimate(orchestrator.ActionVisionOnExisting), 1e-12)
	assert.InDelta(t, 0.04, est.Estimate(orchestrator.ActionBackfillImage), 1e-12)
	assert.InDelta(t, 0.04, est.Estimate(orchestrator.ActionGenerateImage), 1e-12)
	assert.Zero(t, est.Estimate(orchestrator.ActionReuse))
	assert.Zero(t, est.Estimate(orchestrator.ActionSkip))
}
