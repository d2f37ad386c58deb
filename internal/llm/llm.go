// Package llm wraps the text and vision completion service used to turn map
// descriptions and rendered map images into tactical grid JSON.
package llm

import (
	"context"
	"errors"
)

// ErrNoAPIKey is returned by client constructors when no API key is configured.
var ErrNoAPIKey = errors.New("llm: API key is required")

// ErrEmptyResponse is returned when the service replies without any text content.
var ErrEmptyResponse = errors.New("llm: response contained no text")

// Request is a single-turn completion request.
type Request struct {
	// System is the system prompt.
	System string
	// Prompt is the user turn text.
	Prompt string
	// Image optionally attaches an image to the user turn.
	Image []byte
	// ImageMIMEType is the media type of Image, e.g. "image/png".
	ImageMIMEType string
}

// HasImage reports whether r carries an image attachment.
func (r Request) HasImage() bool {
	return len(r.Image) > 0
}

// Response is the text reply and its metered usage.
type Response struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
	// Cost is the USD price of the call.
	Cost float64
}

// Completer performs one completion call.
type Completer interface {
	// Complete sends req and returns the reply text.
	//
	// Postcondition: On success Response.Text is non-empty.
	Complete(ctx context.Context, req Request) (Response, error)
}

// Pricing holds USD rates per million tokens.
type Pricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost returns the USD price of a call with the given token counts.
func (p Pricing) Cost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/1e6*p.InputPerMTok + float64(outputTokens)/1e6*p.OutputPerMTok
}

// Estimate prices a call from expected token counts. Used for dry-run plans.
func (p Pricing) Estimate(inputTokens, outputTokens int) float64 {
	return p.Cost(int64(inputTokens), int64(outputTokens))
}
