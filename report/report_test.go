package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/afschowdhury/excavator-video-analyzer/domain"
	"github.com/afschowdhury/excavator-video-analyzer/pkgerrors"
	"github.com/afschowdhury/excavator-video-analyzer/retry"
	"github.com/afschowdhury/excavator-video-analyzer/textmodel"
	"github.com/afschowdhury/excavator-video-analyzer/visionmodel"
)

func sampleInput() Input {
	return Input{
		SourceID: "B6",
		Cycles: []domain.Cycle{
			{Number: 1, Start: 0, End: 10 * time.Second, Duration: 10 * time.Second, Completeness: domain.CycleComplete},
		},
		Statistics: domain.CycleStatistics{Count: 1, Mean: 10 * time.Second},
		Telemetry:  domain.TelemetryRecord{Found: true, FuelBurnedLitres: 5.5},
		Template:   "default_report",
	}
}

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 2, InitialBackoff: 1, BackoffFactor: 1}
}

func TestGenerateMarkdownIsDeterministic(t *testing.T) {
	g := New(false, nil, "", 0, 0, 10, fastPolicy())
	a1, err := g.Generate(context.Background(), sampleInput(), FormatMarkdown, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a2, err := g.Generate(context.Background(), sampleInput(), FormatMarkdown, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(a1.Bytes) != string(a2.Bytes) {
		t.Fatal("expected byte-identical markdown output for identical input")
	}
	if a1.MIMEType != "text/markdown" {
		t.Fatalf("expected text/markdown, got %s", a1.MIMEType)
	}
	if !strings.Contains(string(a1.Bytes), "B6") {
		t.Fatal("expected source ID in report body")
	}
	if !strings.Contains(string(a1.Bytes), "Fuel burned") {
		t.Fatal("expected telemetry section in report body")
	}
}

func TestGenerateHTMLContainsCycleTable(t *testing.T) {
	g := New(false, nil, "", 0, 0, 10, fastPolicy())
	artifact, err := g.Generate(context.Background(), sampleInput(), FormatHTML, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if artifact.MIMEType != "text/html" {
		t.Fatalf("expected text/html, got %s", artifact.MIMEType)
	}
	if !strings.Contains(string(artifact.Bytes), "<table>") {
		t.Fatal("expected an HTML table in the rendered report")
	}
}

func TestGenerateRejectsUnknownTemplate(t *testing.T) {
	g := New(false, nil, "", 0, 0, 10, fastPolicy())
	in := sampleInput()
	in.Template = "exotic_template"
	_, err := g.Generate(context.Background(), in, FormatMarkdown, nil)
	if err == nil {
		t.Fatal("expected an error for an unknown template identifier")
	}
}

func TestGenerateNarrativeModeUsesTextModel(t *testing.T) {
	mock := textmodel.NewMockClient([]textmodel.Response{{Text: "prose summary"}}, nil)
	g := New(true, mock, "gpt-4o-mini", 512, 0.4, 10, fastPolicy())
	artifact, err := g.Generate(context.Background(), sampleInput(), FormatMarkdown, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(artifact.Bytes) != "prose summary" {
		t.Fatalf("expected narrative text, got %q", string(artifact.Bytes))
	}
	if artifact.Note != "" {
		t.Fatalf("expected no fallback note on narrative success, got %q", artifact.Note)
	}
}

func TestGenerateNarrativeFallsBackOnFailure(t *testing.T) {
	mock := textmodel.NewMockClient(nil, []error{errors.New("401 unauthorized")})
	g := New(true, mock, "gpt-4o-mini", 512, 0.4, 10, fastPolicy())
	artifact, err := g.Generate(context.Background(), sampleInput(), FormatMarkdown, nil)
	if err != nil {
		t.Fatalf("unexpected hard error: %v", err)
	}
	if artifact.MIMEType != "text/markdown" {
		t.Fatalf("expected deterministic markdown fallback, got %s", artifact.MIMEType)
	}
	if artifact.Note == "" {
		t.Fatal("expected a fallback note when narrative mode fails")
	}
	if !strings.Contains(string(artifact.Bytes), "B6") {
		t.Fatal("expected the deterministic report body to still be rendered")
	}
}

func TestGenerateNarrativeWithoutClientConfiguredFallsBack(t *testing.T) {
	g := New(true, nil, "", 0, 0, 10, fastPolicy())
	artifact, err := g.Generate(context.Background(), sampleInput(), FormatMarkdown, nil)
	if err != nil {
		t.Fatalf("unexpected hard error: %v", err)
	}
	if artifact.Note == "" {
		t.Fatal("expected a fallback note when no text client is configured")
	}
}

func TestRenderNarrativeWithoutClientUsesNarrativeUnavailableKind(t *testing.T) {
	g := New(true, nil, "", 0, 0, 10, fastPolicy())
	_, err := g.renderNarrative(context.Background(), sampleInput())
	if err == nil {
		t.Fatal("expected an error when no text client is configured")
	}
	pe, ok := err.(*pkgerrors.PipelineError)
	if !ok {
		t.Fatalf("expected *pkgerrors.PipelineError, got %T", err)
	}
	if pe.Kind != pkgerrors.KindNarrativeUnavailable {
		t.Fatalf("expected KindNarrativeUnavailable, got %s", pe.Kind)
	}
}

func TestGenerateNarrativeRetriesTransientFailures(t *testing.T) {
	mock := textmodel.NewMockClient(
		[]textmodel.Response{{}, {Text: "succeeded on retry"}},
		[]error{&visionmodel.TransientError{Cause: errors.New("network blip")}, nil},
	)
	g := New(true, mock, "gpt-4o-mini", 512, 0.4, 10, fastPolicy())
	artifact, err := g.Generate(context.Background(), sampleInput(), FormatMarkdown, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(artifact.Bytes) != "succeeded on retry" {
		t.Fatalf("expected retry to recover, got %q", string(artifact.Bytes))
	}
}
