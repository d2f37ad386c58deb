// Package imagegen renders map background images from text prompts.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/cory-johannsen/mapseed/internal/config"
)

var (
	// ErrNoImage is returned when the service produced no usable image,
	// including when every candidate was withheld by a safety filter.
	ErrNoImage = errors.New("imagegen: no image returned")
	// ErrNoAPIKey is returned by NewGenAIGenerator when no API key is configured.
	ErrNoAPIKey = errors.New("imagegen: API key is required")
)

// Image is one rendered image held in memory.
type Image struct {
	Data     []byte
	MIMEType string
	// Cost is the USD price of the request that produced the image.
	Cost float64
}

// Generator renders one image per prompt.
type Generator interface {
	// Generate renders prompt.
	//
	// Postcondition: On success Image.Data is non-empty.
	Generate(ctx context.Context, prompt string) (Image, error)
}

// GenAIGenerator implements Generator with the Gemini API image models.
type GenAIGenerator struct {
	client       *genai.Client
	model        string
	aspectRatio  string
	costPerImage float64
	logger       *zap.Logger
}

// NewGenAIGenerator creates a Generator from cfg.
//
// Precondition: cfg.APIKey and cfg.Model must be non-empty; logger must be non-nil.
// Postcondition: Returns a ready generator or a non-nil error.
func NewGenAIGenerator(ctx context.Context, cfg config.ImageConfig, logger *zap.Logger) (*GenAIGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	aspect := cfg.AspectRatio
	if aspect == "" {
		aspect = "1:1"
	}
	return &GenAIGenerator{
		client:       client,
		model:        cfg.Model,
		aspectRatio:  aspect,
		costPerImage: cfg.CostPerImage,
		logger:       logger,
	}, nil
}

// Generate requests a single PNG image for prompt.
func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (Image, error) {
	start := time.Now()
	resp, err := g.client.Models.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    g.aspectRatio,
		OutputMIMEType: "image/png",
	})
	if err != nil {
		return Image{}, fmt.Errorf("generating image: %w", err)
	}
	img, err := firstImage(resp)
	if err != nil {
		return Image{}, err
	}
	img.Cost = g.costPerImage

	g.logger.Debug("image generated",
		zap.String("model", g.model),
		zap.Int("bytes", len(img.Data)),
		zap.Float64("cost_usd", img.Cost),
		zap.Duration("elapsed", time.Since(start)),
	)
	return img, nil
}

func firstImage(resp *genai.GenerateImagesResponse) (Image, error) {
	if resp == nil {
		return Image{}, ErrNoImage
	}
	var filtered []string
	for _, gi := range resp.GeneratedImages {
		if gi == nil {
			continue
		}
		if gi.Image != nil && len(gi.Image.ImageBytes) > 0 {
			mime := gi.Image.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return Image{Data: gi.Image.ImageBytes, MIMEType: mime}, nil
		}
		if gi.RAIFilteredReason != "" {
			filtered = append(filtered, gi.RAIFilteredReason)
		}
	}
	if len(filtered) > 0 {
		return Image{}, fmt.Errorf("%w: filtered: %s", ErrNoImage, strings.Join(filtered, "; "))
	}
	return Image{}, ErrNoImage
}
