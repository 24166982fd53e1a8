package pipeline

import (
	"github.com/afschowdhury/excavator-video-analyzer/classifier"
	"github.com/afschowdhury/excavator-video-analyzer/config"
	"github.com/afschowdhury/excavator-video-analyzer/prompts"
	"github.com/afschowdhury/excavator-video-analyzer/report"
	"github.com/afschowdhury/excavator-video-analyzer/retry"
	"github.com/afschowdhury/excavator-video-analyzer/textmodel"
	"github.com/afschowdhury/excavator-video-analyzer/visionmodel"
)

// Build wires a Coordinator from a validated Config plus caller-supplied
// external clients, translating the config's retry/model/template surface
// into the stage collaborators' constructors. textClient may be nil when
// cfg.NarrativeMode is false.
func Build(cfg *config.Config, visionClient visionmodel.Client, textClient textmodel.Client) (*Coordinator, error) {
	initialBackoff, backoffFactor, maxAttempts := cfg.RetryBackoff()
	policy := retry.Policy{
		MaxAttempts:    maxAttempts,
		InitialBackoff: initialBackoff,
		BackoffFactor:  backoffFactor,
	}

	systemPrompt, err := prompts.Load(cfg.SystemPromptTemplate)
	if err != nil {
		return nil, err
	}

	cls, err := classifier.New(
		visionClient,
		systemPrompt,
		cfg.VisionModel.Name,
		cfg.VisionModel.TokenLimit,
		cfg.VisionModel.Temperature,
		cfg.Concurrency,
		cfg.CircuitBreakerThreshold,
		policy,
	)
	if err != nil {
		return nil, err
	}

	rep := report.New(
		cfg.NarrativeMode,
		textClient,
		cfg.TextModel.Name,
		cfg.TextModel.TokenLimit,
		cfg.TextModel.Temperature,
		cfg.CircuitBreakerThreshold,
		policy,
	)

	return New(cls, rep), nil
}

// RunContextFromConfig builds the per-run knobs the Coordinator evaluates on
// every Run call from a validated Config and the given source, leaving
// ProgressCallback for the caller to fill in per invocation.
func RunContextFromConfig(cfg *config.Config, source string) RunContext {
	return RunContext{
		Source:                  source,
		SamplingFPS:             cfg.SamplingRateFPS,
		MaxFrames:               cfg.MaxFrames,
		ReportTemplate:          cfg.ReportTemplate,
		ReportFormat:            report.FormatMarkdown,
		TelemetryDir:            cfg.TelemetryDir,
		CompleteCycleMinSeconds: cfg.CompleteCycleMinSeconds,
		PartialCycleMinSeconds:  cfg.PartialCycleMinSeconds,
		StageTimeout:            cfg.StageTimeout,
		TotalDeadline:           cfg.TotalDeadline(),
	}
}
