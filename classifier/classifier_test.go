package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/afschowdhury/excavator-video-analyzer/domain"
	"github.com/afschowdhury/excavator-video-analyzer/events"
	"github.com/afschowdhury/excavator-video-analyzer/pkgerrors"
	"github.com/afschowdhury/excavator-video-analyzer/retry"
	"github.com/afschowdhury/excavator-video-analyzer/visionmodel"
)

func testFrames(n int) []domain.Frame {
	frames := make([]domain.Frame, n)
	for i := range frames {
		frames[i] = domain.Frame{Index: i, Image: []byte("fake"), Encoding: "image/jpeg"}
	}
	return frames
}

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 2, InitialBackoff: 1, BackoffFactor: 1}
}

func TestClassifyReturnsOrderedLabels(t *testing.T) {
	mock := visionmodel.NewMockClient([]visionmodel.Response{
		{Label: "digging", Confidence: 0.9},
		{Label: "swing_to_dump", Confidence: 0.8},
		{Label: "dumping", Confidence: 0.85},
	}, nil)
	c, err := New(mock, "classify the frame", "gpt-4o-mini", 256, 0, 4, 10, fastPolicy())
	if err != nil {
		t.Fatalf("unexpected error constructing classifier: %v", err)
	}

	results, err := c.Classify(context.Background(), testFrames(3), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 classifications, got %d", len(results))
	}
	want := []domain.ActivityLabel{domain.LabelDigging, domain.LabelSwingToDump, domain.LabelDumping}
	for i, r := range results {
		if r.Label != want[i] {
			t.Fatalf("frame %d: expected %s, got %s", i, want[i], r.Label)
		}
		if r.Frame.Index != i {
			t.Fatalf("frame %d: order not preserved, got index %d", i, r.Frame.Index)
		}
	}
}

func TestClassifyCoercesUnknownLabelToIdle(t *testing.T) {
	mock := visionmodel.NewMockClient([]visionmodel.Response{{Label: "flying", Confidence: 0.5}}, nil)
	c, err := New(mock, "prompt", "gpt-4o-mini", 256, 0, 1, 10, fastPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := c.Classify(context.Background(), testFrames(1), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Label != domain.LabelIdle {
		t.Fatalf("expected unknown label coerced to idle, got %s", results[0].Label)
	}
	if results[0].Note == "" {
		t.Fatal("expected a coercion note to be set")
	}
}

func TestClassifySoftFailsOnTerminalError(t *testing.T) {
	mock := visionmodel.NewMockClient(nil, []error{errors.New("401 unauthorized")})
	c, err := New(mock, "prompt", "gpt-4o-mini", 256, 0, 1, 10, fastPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := c.Classify(context.Background(), testFrames(1), nil)
	if err != nil {
		t.Fatalf("unexpected hard error for a single terminal failure: %v", err)
	}
	if !results[0].Failed {
		t.Fatal("expected Failed=true on the soft-failure classification")
	}
	if results[0].Label != domain.LabelIdle || results[0].Confidence != 0 {
		t.Fatalf("expected failure classification to default to idle/0, got %+v", results[0])
	}
}

func TestClassifyTripsCircuitBreakerAfterThreshold(t *testing.T) {
	mock := visionmodel.NewMockClient(nil, []error{&visionmodel.TransientError{Cause: errors.New("network blip")}})
	c, err := New(mock, "prompt", "gpt-4o-mini", 256, 0, 1, 3, fastPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = c.Classify(context.Background(), testFrames(5), nil)
	if err == nil {
		t.Fatal("expected circuit breaker to trip and abort the stage")
	}
	pe, ok := err.(*pkgerrors.PipelineError)
	if !ok {
		t.Fatalf("expected *pkgerrors.PipelineError, got %T", err)
	}
	if pe.Kind != pkgerrors.KindClassifierUnavailable {
		t.Fatalf("expected KindClassifierUnavailable, got %s", pe.Kind)
	}
}

func TestNewRejectsEmptySystemPrompt(t *testing.T) {
	mock := visionmodel.NewMockClient(nil, nil)
	_, err := New(mock, "", "gpt-4o-mini", 256, 0, 4, 10, fastPolicy())
	if err == nil {
		t.Fatal("expected error for empty system prompt")
	}
	pe, ok := err.(*pkgerrors.PipelineError)
	if !ok || pe.Kind != pkgerrors.KindPromptTemplateMissing {
		t.Fatalf("expected KindPromptTemplateMissing, got %v", err)
	}
}

func TestClassifyEmitsProgressAndCompletionEvents(t *testing.T) {
	mock := visionmodel.NewMockClient([]visionmodel.Response{{Label: "idle", Confidence: 1}}, nil)
	c, err := New(mock, "prompt", "gpt-4o-mini", 256, 0, 4, 10, fastPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bus := events.NewBus()
	var completed bool
	var progressed int
	bus.Subscribe(events.TypeStageProgress, func(events.Event) { progressed++ })
	bus.Subscribe(events.TypeStageCompleted, func(events.Event) { completed = true })

	_, err = c.Classify(context.Background(), testFrames(20), bus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if progressed != 1 {
		t.Fatalf("expected one progress event after 20 frames, got %d", progressed)
	}
	if !completed {
		t.Fatal("expected a stage-completed event")
	}
}
