package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mapseed/internal/config"
)

// AnthropicClient implements Completer against the Anthropic Messages API.
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	pricing   Pricing
	logger    *zap.Logger
}

// NewAnthropicClient creates a Messages API client from cfg.
//
// Precondition: cfg.APIKey must be non-empty; logger must be non-nil.
// Postcondition: Returns a ready client or ErrNoAPIKey.
func NewAnthropicClient(cfg config.LLMConfig, logger *zap.Logger) (*AnthropicClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	// Retries are owned by the generation backends so attempts stay bounded.
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	)
	return &AnthropicClient{
		client:    client,
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		timeout:   cfg.Timeout,
		pricing:   Pricing{InputPerMTok: cfg.InputPricePerMTok, OutputPerMTok: cfg.OutputPricePerMTok},
		logger:    logger,
	}, nil
}

// Complete sends req as a single user turn, attaching req.Image as a base64
// image block ahead of the prompt text when present.
//
// Postcondition: Returns the concatenated text blocks of the reply, or a non-nil error.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, 2)
	if req.HasImage() {
		mime := req.ImageMIMEType
		if mime == "" {
			mime = "image/png"
		}
		blocks = append(blocks, anthropic.NewImageBlockBase64(mime, base64.StdEncoding.EncodeToString(req.Image)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("calling messages API: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	resp := Response{
		Text:         sb.String(),
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}
	resp.Cost = c.pricing.Cost(resp.InputTokens, resp.OutputTokens)

	c.logger.Debug("completion finished",
		zap.String("model", c.model),
		zap.Bool("vision", req.HasImage()),
		zap.Int64("input_tokens", resp.InputTokens),
		zap.Int64("output_tokens", resp.OutputTokens),
		zap.Float64("cost_usd", resp.Cost),
		zap.Duration("elapsed", time.Since(start)),
	)

	if strings.TrimSpace(resp.Text) == "" {
		return resp, ErrEmptyResponse
	}
	return resp, nil
}

// IsRetryable reports whether err is worth another attempt. Rate limits,
// timeouts, conflicts and server errors are; other API errors and context
// cancellation are not. Errors that are not API errors, such as network
// failures, are treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return RetryableStatus(apiErr.StatusCode)
	}
	return true
}

// RetryableStatus reports whether an HTTP status code signals a transient failure.
func RetryableStatus(code int) bool {
	switch {
	case code == http.StatusTooManyRequests,
		code == http.StatusRequestTimeout,
		code == http.StatusConflict,
		code >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}
