package seeding

import (
	"github.com/cory-johannsen/mapseed/internal/config"
	"github.com/cory-johannsen/mapseed/internal/llm"
	"github.com/cory-johannsen/mapseed/internal/orchestrator"
)

// Token assumptions for one grid completion. A 400-cell grid with a handful
// of regions lands near 3k output tokens; an attached image adds about 1.6k
// input tokens.
const (
	DefaultPromptTokens = 1800
	DefaultImageTokens  = 1600
	DefaultOutputTokens = 3000
)

// Estimator prices planned actions for dry runs.
type Estimator struct {
	Pricing      llm.Pricing
	ImageCost    float64
	PromptTokens int
	ImageTokens  int
	OutputTokens int
}

// NewEstimator returns an Estimator using the configured rates.
func NewEstimator(cfg config.Config) Estimator {
	return Estimator{
		Pricing: llm.Pricing{
			InputPerMTok:  cfg.LLM.InputPricePerMTok,
			OutputPerMTok: cfg.LLM.OutputPricePerMTok,
		},
		ImageCost:    cfg.Image.CostPerImage,
		PromptTokens: DefaultPromptTokens,
		ImageTokens:  DefaultImageTokens,
		OutputTokens: DefaultOutputTokens,
	}
}

func (e Estimator) textCall() float64 {
	return e.Pricing.Estimate(e.PromptTokens, e.OutputTokens)
}

func (e Estimator) visionCall() float64 {
	return e.Pricing.Estimate(e.PromptTokens+e.ImageTokens, e.OutputTokens)
}

// Estimate returns the expected USD cost of a single successful attempt of a.
func (e Estimator) Estimate(a orchestrator.Action) float64 {
	switch a {
	case orchestrator.ActionText:
		return e.textCall()
	case orchestrator.ActionImageThenVision:
		return e.ImageCost + e.visionCall()
	case orchestrator.ActionVisionOnExisting:
		return e.visionCall()
	case orchestrator.ActionBackfillImage, orchestrator.ActionGenerateImage:
		return e.ImageCost
	default:
		return 0
	}
}
