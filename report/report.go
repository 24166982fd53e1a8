// Package report implements ReportGenerator: rendering cycles, statistics,
// and telemetry into a human-readable markdown or HTML report artifact,
// optionally via an external text model for narrative prose.
package report

import (
	"context"
	"time"

	"github.com/afschowdhury/excavator-video-analyzer/domain"
	"github.com/afschowdhury/excavator-video-analyzer/events"
	"github.com/afschowdhury/excavator-video-analyzer/logger"
	"github.com/afschowdhury/excavator-video-analyzer/pkgerrors"
	"github.com/afschowdhury/excavator-video-analyzer/retry"
	"github.com/afschowdhury/excavator-video-analyzer/textmodel"
)

// Format selects the rendered artifact's MIME type.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Input is everything ReportGenerator needs, gathered from the earlier
// pipeline stages (spec.md §4.6).
type Input struct {
	SourceID   string
	Cycles     []domain.Cycle
	Statistics domain.CycleStatistics
	Telemetry  domain.TelemetryRecord
	GeneratedAt time.Time
	Template   string // template identifier; only "default_report" is known
}

// Generator implements ReportGenerator.
type Generator struct {
	narrativeMode bool
	textClient    textmodel.Client
	textModel     string
	tokenLimit    int
	temperature   float32
	policy        retry.Policy
	breaker       *retry.Breaker
}

// New creates a Generator. textClient/textModel are only consulted when
// narrativeMode is true; New accepts a nil textClient for deterministic-only
// configurations.
func New(narrativeMode bool, textClient textmodel.Client, textModel string, tokenLimit int, temperature float32, circuitBreakerThreshold int, policy retry.Policy) *Generator {
	return &Generator{
		narrativeMode: narrativeMode,
		textClient:    textClient,
		textModel:     textModel,
		tokenLimit:    tokenLimit,
		temperature:   temperature,
		policy:        policy,
		breaker:       retry.NewBreaker(circuitBreakerThreshold),
	}
}

// Generate renders in using the given format, after checking that
// in.Template is empty or "default_report", and falls back from narrative
// to deterministic mode on any model failure.
func (g *Generator) Generate(ctx context.Context, in Input, format Format, bus *events.Bus) (domain.ReportArtifact, error) {
	if in.Template != "" && in.Template != "default_report" {
		return domain.ReportArtifact{}, pkgerrors.New(pkgerrors.KindTemplateMissing, "report", in.Template, nil)
	}

	var artifact domain.ReportArtifact
	var err error
	switch format {
	case FormatHTML:
		artifact, err = g.renderHTML(in)
	default:
		artifact, err = g.renderMarkdown(in)
	}
	if err != nil {
		return domain.ReportArtifact{}, pkgerrors.New(pkgerrors.KindRenderFailed, "report", in.SourceID, err)
	}

	if g.narrativeMode {
		narrative, narrErr := g.renderNarrative(ctx, in)
		if narrErr != nil {
			logger.Warn("narrative report generation failed, falling back to deterministic", "error", narrErr)
			artifact.Note = "narrative mode failed: " + narrErr.Error() + "; deterministic report shown instead"
		} else {
			artifact = narrative
		}
	}

	if bus != nil {
		bus.Publish(events.Event{Type: events.TypeStageCompleted, Stage: "report", Detail: "report rendered"})
	}
	return artifact, nil
}
