package visionmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenParamName(t *testing.T) {
	assert.Equal(t, "max_completion_tokens", TokenParamName("o1-preview"))
	assert.Equal(t, "max_completion_tokens", TokenParamName("o3-mini"))
	assert.Equal(t, "max_tokens", TokenParamName("gpt-4o-mini"))
	assert.Equal(t, "max_tokens", TokenParamName("some-unknown-model"))
}

func TestSupportsSamplingParams(t *testing.T) {
	assert.False(t, SupportsSamplingParams("o1-preview"))
	assert.True(t, SupportsSamplingParams("gpt-4o"))
}

func TestBuildTokenLimitField(t *testing.T) {
	req := map[string]any{}
	BuildTokenLimitField(req, "o1-preview", 256)
	assert.Equal(t, 256, req["max_completion_tokens"])
	assert.NotContains(t, req, "max_tokens")
}

func TestBuildSamplingFieldsSkippedForOSeries(t *testing.T) {
	req := map[string]any{}
	BuildSamplingFields(req, "o1-preview", 0.5, 1.0)
	assert.Empty(t, req)

	BuildSamplingFields(req, "gpt-4o-mini", 0.5, 1.0)
	assert.Equal(t, float32(0.5), req["temperature"])
}
