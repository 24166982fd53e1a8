package pkgerrors

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(KindSourceUnavailable, "frames", "B6.mp4", cause)
	assert.Contains(t, err.Error(), "SourceUnavailable")
	assert.Contains(t, err.Error(), "frames")
	assert.Contains(t, err.Error(), "B6.mp4")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, cause, err.Unwrap())
}

func TestCauseTruncation(t *testing.T) {
	cause := errors.New(strings.Repeat("x", 1000))
	err := New(KindInternal, "classifier", "src", cause)
	assert.LessOrEqual(t, len(err.Error())-len("[Internal] stage=classifier source=src: "), maxCauseLen)
}

func TestIsMatchesByKind(t *testing.T) {
	err := StageTimeout("classifier", "B6.mp4", errors.New("deadline exceeded"))
	assert.True(t, errors.Is(err, &PipelineError{Kind: KindStageTimeout}))
	assert.False(t, errors.Is(err, &PipelineError{Kind: KindCancelled}))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(New(KindConfigInvalid, "config", "", nil)))
	assert.Equal(t, 2, ExitCode(New(KindSourceUnavailable, "frames", "", nil)))
	assert.Equal(t, 3, ExitCode(New(KindClassifierUnavailable, "classifier", "", nil)))
	assert.Equal(t, 4, ExitCode(New(KindStageTimeout, "classifier", "", nil)))
	assert.Equal(t, 5, ExitCode(New(KindCancelled, "pipeline", "", nil)))
	assert.Equal(t, 64, ExitCode(New(KindNarrativeUnavailable, "report", "", nil)))
	assert.Equal(t, 64, ExitCode(errors.New("boom")))
}
