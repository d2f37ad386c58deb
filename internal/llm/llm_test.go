package llm_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mapseed/internal/config"
	"github.com/cory-johannsen/mapseed/internal/llm"
)

func TestPricing_Cost(t *testing.T) {
	p := llm.Pricing{InputPerMTok: 3, OutputPerMTok: 15}
	assert.InDelta(t, 0.003+0.015, p.Cost(1000, 1000), 1e-9)
	assert.Zero(t, p.Cost(0, 0))
	assert.InDelta(t, p.Cost(2000, 500), p.Estimate(2000, 500), 1e-12)
}

func TestPricing_CostMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := llm.Pricing{
			InputPerMTok:  rapid.Float64Range(0, 100).Draw(t, "in_rate"),
			OutputPerMTok: rapid.Float64Range(0, 100).Draw(t, "out_rate"),
		}
		in := rapid.Int64Range(0, 1_000_000).Draw(t, "in")
		out := rapid.Int64Range(0, 1_000_000).Draw(t, "out")
		assert.GreaterOrEqual(t, p.Cost(in+1, out), p.Cost(in, out))
		assert.GreaterOrEqual(t, p.Cost(in, out+1), p.Cost(in, out))
	})
}

func TestRequest_HasImage(t *testing.T) {
	assert.False(t, llm.Request{Prompt: "x"}.HasImage())
	assert.True(t, llm.Request{Image: []byte{0x89}}.HasImage())
}

func TestNewAnthropicClient_RequiresKey(t *testing.T) {
	_, err := llm.NewAnthropicClient(config.LLMConfig{Model: "m", MaxTokens: 10}, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, llm.ErrNoAPIKey)

	c, err := llm.NewAnthropicClient(config.LLMConfig{APIKey: "k", Model: "m", MaxTokens: 10}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, llm.IsRetryable(nil))
	assert.False(t, llm.IsRetryable(context.Canceled))
	assert.False(t, llm.IsRetryable(fmt.Errorf("calling: %w", context.DeadlineExceeded)))
	assert.True(t, llm.IsRetryable(errors.New("connection reset by peer")))
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, http.StatusRequestTimeout, http.StatusConflict, 500, 529} {
		assert.True(t, llm.RetryableStatus(code), "status %d", code)
	}
	for _, code := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound} {
		assert.False(t, llm.RetryableStatus(code), "status %d", code)
	}
}
