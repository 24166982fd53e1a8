package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/afschowdhury/excavator-video-analyzer/domain"
	"github.com/afschowdhury/excavator-video-analyzer/logger"
	"github.com/afschowdhury/excavator-video-analyzer/metrics"
	"github.com/afschowdhury/excavator-video-analyzer/pkgerrors"
	"github.com/afschowdhury/excavator-video-analyzer/retry"
	"github.com/afschowdhury/excavator-video-analyzer/textmodel"
	"github.com/afschowdhury/excavator-video-analyzer/visionmodel"
)

// renderNarrative asks the external text model for prose analysis of the
// structured cycle data, subject to the same retry/circuit-breaker policy
// as FrameClassifier (spec.md §4.6).
func (g *Generator) renderNarrative(ctx context.Context, in Input) (domain.ReportArtifact, error) {
	if g.textClient == nil {
		return domain.ReportArtifact{}, pkgerrors.New(pkgerrors.KindNarrativeUnavailable, "report", in.SourceID, fmt.Errorf("narrative mode enabled but no text model client configured"))
	}
	if g.breaker.Open() {
		return domain.ReportArtifact{}, pkgerrors.New(pkgerrors.KindNarrativeUnavailable, "report", in.SourceID, fmt.Errorf("narrative circuit breaker open"))
	}

	structuredData, err := json.Marshal(structuredCycleSummary(in))
	if err != nil {
		return domain.ReportArtifact{}, pkgerrors.New(pkgerrors.KindInternal, "report", in.SourceID, err)
	}

	req := textmodel.Request{
		SystemPrompt:        "You are a heavy-equipment operations analyst. Write a concise prose summary of the excavator cycle data provided.",
		StructuredCycleData: structuredData,
		Model:               g.textModel,
		TokenLimit:          g.tokenLimit,
		Temperature:         g.temperature,
	}

	var resp textmodel.Response
	callErr := retry.Do(ctx, g.policy, visionmodel.IsTransient, func(n int, attemptErr error) {
		logger.ModelCallFailed("text", "narrative", n, attemptErr)
	}, func() error {
		var genErr error
		resp, genErr = g.textClient.Generate(ctx, req)
		return genErr
	})
	if callErr != nil {
		if tripped := g.breaker.RecordFailure(); tripped {
			metrics.RecordCircuitBreakerTrip("text")
		}
		return domain.ReportArtifact{}, callErr
	}
	g.breaker.RecordSuccess()

	return domain.ReportArtifact{Bytes: []byte(resp.Text), MIMEType: "text/markdown"}, nil
}

// cycleSummary is the JSON shape sent to the text model as
// structured_cycle_data_as_json (spec.md §6) — the same data the markdown
// renderer tabulates, without markdown syntax, since the model is asked to
// produce prose, not reformat a table.
type cycleSummary struct {
	Source       string             `json:"source"`
	CycleCount   int                `json:"cycle_count"`
	MeanSeconds  string             `json:"mean_duration_s"`
	IdlePerCycle string             `json:"idle_per_cycle_s"`
	Cycles       []cycleSummaryLine `json:"cycles"`
	FuelBurnedL  *float64           `json:"fuel_burned_l,omitempty"`
}

type cycleSummaryLine struct {
	Number       int    `json:"number"`
	Start        string `json:"start"`
	End          string `json:"end"`
	DurationSecs string `json:"duration_s"`
	Status       string `json:"status"`
}

func structuredCycleSummary(in Input) cycleSummary {
	summary := cycleSummary{
		Source:       in.SourceID,
		CycleCount:   in.Statistics.Count,
		MeanSeconds:  domain.FormatSecondsOneDecimal(in.Statistics.Mean),
		IdlePerCycle: domain.FormatSecondsOneDecimal(in.Statistics.IdlePerCycle),
	}
	for _, c := range in.Cycles {
		summary.Cycles = append(summary.Cycles, cycleSummaryLine{
			Number:       c.Number,
			Start:        domain.FormatMMSS(c.Start),
			End:          domain.FormatMMSS(c.End),
			DurationSecs: domain.FormatSecondsOneDecimal(c.Duration),
			Status:       string(c.Completeness),
		})
	}
	if in.Telemetry.Found {
		fuel := in.Telemetry.FuelBurnedLitres
		summary.FuelBurnedL = &fuel
	}
	return summary
}
