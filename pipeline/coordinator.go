// Package pipeline implements the Coordinator (spec.md §4.7): it sequences
// the six pipeline stages, carries the shared per-run context, enforces
// per-stage soft timeouts and a total-run deadline, normalizes stage
// progress onto a single 0-100% scale, and assembles the final
// domain.PipelineResult.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/afschowdhury/excavator-video-analyzer/classifier"
	"github.com/afschowdhury/excavator-video-analyzer/cycles"
	"github.com/afschowdhury/excavator-video-analyzer/detector"
	"github.com/afschowdhury/excavator-video-analyzer/domain"
	"github.com/afschowdhury/excavator-video-analyzer/events"
	"github.com/afschowdhury/excavator-video-analyzer/frames"
	"github.com/afschowdhury/excavator-video-analyzer/logger"
	"github.com/afschowdhury/excavator-video-analyzer/metrics"
	"github.com/afschowdhury/excavator-video-analyzer/pkgerrors"
	"github.com/afschowdhury/excavator-video-analyzer/report"
	"github.com/afschowdhury/excavator-video-analyzer/telemetry"
)

// stageWeights is each stage's fixed share of the pipeline-wide 0-100%
// progress scale, per spec.md §4.7 ("fixed weights 10/25/5/20/10/30").
var stageWeights = map[string]float64{
	"frames":     10,
	"classifier": 25,
	"detector":   5,
	"cycles":     20,
	"telemetry":  10,
	"report":     30,
}

var stageOrder = []string{"frames", "classifier", "detector", "cycles", "telemetry", "report"}

func init() {
	var total float64
	for _, w := range stageWeights {
		total += w
	}
	if total != 100 {
		panic(fmt.Sprintf("pipeline: stage weights must sum to 100, got %v", total))
	}
}

// RunContext is the immutable-per-run configuration the Coordinator carries
// through every stage (spec.md §4.7 "Context object"). Model identifiers,
// token limits, and temperatures are consulted once, at Build time, to
// construct the stage collaborators (classifier.Classifier, report.Generator)
// — RunContext only carries the knobs the Coordinator itself evaluates on
// every run: which source to process, how to sample it, where to find
// telemetry, which report shape to render, and the timeout/progress surface.
type RunContext struct {
	Source      string
	SamplingFPS int
	MaxFrames   *int

	ReportTemplate string
	ReportFormat   report.Format

	TelemetryDir string

	CompleteCycleMinSeconds float64
	PartialCycleMinSeconds  float64

	StageTimeout  func(stage string) time.Duration
	TotalDeadline time.Duration

	// ProgressCallback, if non-nil, receives every normalized progress event.
	ProgressCallback func(events.Event)
}

// Coordinator sequences the six pipeline stages for one run.
type Coordinator struct {
	extractor  *frames.Extractor
	classifier *classifier.Classifier
	reporter   *report.Generator
}

// New builds a Coordinator from its already-constructed stage collaborators,
// using the system ffmpeg/ffprobe binaries for frame extraction. Each
// collaborator owns its own external client and retry/breaker policy per
// spec.md §5's "Shared-resource policy" (clients are not shared across runs
// unless documented safe).
func New(cls *classifier.Classifier, rep *report.Generator) *Coordinator {
	return NewWithExtractor(frames.NewExtractor(), cls, rep)
}

// NewWithExtractor builds a Coordinator with a caller-supplied Extractor,
// letting tests substitute one constructed via frames.NewExtractorWithPaths.
func NewWithExtractor(extractor *frames.Extractor, cls *classifier.Classifier, rep *report.Generator) *Coordinator {
	return &Coordinator{
		extractor:  extractor,
		classifier: cls,
		reporter:   rep,
	}
}

// Run executes the full pipeline for one source, honoring rc's timeouts and
// cancellation, and returns the assembled PipelineResult. No partial result
// is ever returned alongside a non-nil error (spec.md §7).
func (c *Coordinator) Run(ctx context.Context, rc RunContext) (*domain.PipelineResult, error) {
	runID := uuid.NewString()
	sourceID := telemetry.SourceID(rc.Source)

	bus := events.NewBus()
	if rc.ProgressCallback != nil {
		bus.SubscribeAll(func(e events.Event) {
			e.Percent = normalizedPercent(e.Stage)
			safeCallback(rc.ProgressCallback, e)
		})
	}

	if rc.TotalDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.TotalDeadline)
		defer cancel()
	}

	metrics.RecordRunStart()
	runStart := time.Now()

	result, err := c.run(ctx, runID, sourceID, rc, bus)

	elapsed := time.Since(runStart).Seconds()
	switch {
	case err == nil:
		metrics.RecordRunEnd("success", elapsed)
	case isCancelled(err):
		metrics.RecordRunEnd("cancelled", elapsed)
	default:
		metrics.RecordRunEnd("error", elapsed)
	}
	if err != nil {
		logger.StageFailed("pipeline", sourceID, err, "run_id", runID)
		return nil, err
	}
	logger.StageDone("pipeline", sourceID, time.Since(runStart), "run_id", runID)
	return result, nil
}

func (c *Coordinator) run(ctx context.Context, runID, sourceID string, rc RunContext, bus *events.Bus) (*domain.PipelineResult, error) {
	stageDurations := make(map[string]time.Duration)

	// Stage 1: FrameExtractor.
	framesOut, err := runStage(ctx, "frames", rc, sourceID, stageDurations, func(stageCtx context.Context) ([]domain.Frame, error) {
		return c.extractor.Extract(stageCtx, rc.Source, rc.SamplingFPS, rc.MaxFrames, bus)
	})
	if err != nil {
		return nil, err
	}

	// Stage 2: FrameClassifier.
	classifications, err := runStage(ctx, "classifier", rc, sourceID, stageDurations, func(stageCtx context.Context) ([]domain.Classification, error) {
		return c.classifier.Classify(stageCtx, framesOut, bus)
	})
	if err != nil {
		return nil, err
	}

	// Stage 3: ActionDetector — pure computation, no suspension (spec.md §5).
	detectorStart := time.Now()
	eventsOut := detector.Detect(classifications)
	stageDurations["detector"] = time.Since(detectorStart)
	emitSyntheticProgress(bus, "detector", fmt.Sprintf("%d events detected", len(eventsOut)))

	// Stage 4: CycleAssembler — pure computation.
	cyclesStart := time.Now()
	thresholds := cycles.Thresholds{
		CompleteMinSeconds: rc.CompleteCycleMinSeconds,
		PartialMinSeconds:  rc.PartialCycleMinSeconds,
	}
	if thresholds.CompleteMinSeconds == 0 {
		thresholds = cycles.DefaultThresholds()
	}
	cyclesOut := cycles.Assemble(eventsOut, thresholds)
	stats := cycles.Statistics(cyclesOut)
	stageDurations["cycles"] = time.Since(cyclesStart)
	emitSyntheticProgress(bus, "cycles", fmt.Sprintf("%d cycles assembled", len(cyclesOut)))
	for _, cyc := range cyclesOut {
		metrics.RecordCycleDetected(string(cyc.Completeness))
	}

	if err := ctx.Err(); err != nil {
		return nil, cancelledError(sourceID, err)
	}

	// Stage 5: TelemetryEnricher. EnrichAll is a local file read, not an
	// external call, and reports no progress of its own; the coordinator
	// emits the stage's required completion event on its behalf.
	telemetryOut, err := runStage(ctx, "telemetry", rc, sourceID, stageDurations, func(stageCtx context.Context) (domain.TelemetryRecord, error) {
		return telemetry.EnrichAll(rc.TelemetryDir, sourceID), nil
	})
	if err != nil {
		return nil, err
	}
	emitSyntheticProgress(bus, "telemetry", fmt.Sprintf("found=%v", telemetryOut.Found))

	// Stage 6: ReportGenerator. Its preparation (assembling Input) may
	// overlap with telemetry per spec.md §4.7, but telemetry's result must
	// land before rendering — both already happened sequentially above, so
	// the ordering constraint holds trivially here.
	reportIn := report.Input{
		SourceID:    sourceID,
		Cycles:      cyclesOut,
		Statistics:  stats,
		Telemetry:   telemetryOut,
		GeneratedAt: time.Now(),
		Template:    rc.ReportTemplate,
	}
	reportOut, err := runStage(ctx, "report", rc, sourceID, stageDurations, func(stageCtx context.Context) (domain.ReportArtifact, error) {
		return c.reporter.Generate(stageCtx, reportIn, rc.ReportFormat, bus)
	})
	if err != nil {
		return nil, err
	}

	return &domain.PipelineResult{
		SourceID:       sourceID,
		TotalFrames:    len(framesOut),
		MaxFrames:      rc.MaxFrames,
		EventsCount:    len(eventsOut),
		Cycles:         cyclesOut,
		Statistics:     stats,
		Telemetry:      telemetryOut,
		Report:         reportOut,
		StageDurations: stageDurations,
	}, nil
}

// runStage wraps one suspending stage's execution with its soft timeout,
// duration bookkeeping, and StageTimeout error translation. It is a
// standalone generic function (Go methods cannot carry their own type
// parameters) shared by every suspending stage invocation in run.
func runStage[T any](ctx context.Context, stage string, rc RunContext, sourceID string, durations map[string]time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	stageCtx := ctx
	var cancel context.CancelFunc
	if rc.StageTimeout != nil {
		if d := rc.StageTimeout(stage); d > 0 {
			stageCtx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
	}

	logger.StageStart(stage, sourceID)
	start := time.Now()
	result, err := fn(stageCtx)
	elapsed := time.Since(start)
	durations[stage] = elapsed
	metrics.RecordStageDuration(stage, elapsed.Seconds())

	if err != nil {
		if stageCtx.Err() == context.DeadlineExceeded {
			return zero, pkgerrors.StageTimeout(stage, sourceID, err)
		}
		if ctx.Err() == context.Canceled {
			return zero, cancelledError(sourceID, err)
		}
		return zero, err
	}
	logger.StageDone(stage, sourceID, elapsed)
	return result, nil
}

func cancelledError(sourceID string, cause error) error {
	return pkgerrors.New(pkgerrors.KindCancelled, "pipeline", sourceID, cause)
}

func isCancelled(err error) bool {
	pe, ok := err.(*pkgerrors.PipelineError)
	return ok && pe.Kind == pkgerrors.KindCancelled
}

// emitSyntheticProgress publishes a stage-completed event for the stages
// whose collaborators never touch the bus themselves (detector, cycles,
// telemetry).
func emitSyntheticProgress(bus *events.Bus, stage, detail string) {
	if bus == nil {
		return
	}
	bus.Publish(events.Event{Type: events.TypeStageCompleted, Stage: stage, Detail: detail})
}

// normalizedPercent maps a stage name onto the pipeline-wide 0-100% scale
// using stageWeights. Since individual stages do not compute their own
// fractional progress (they only mark started/progress/completed
// milestones), every event from a stage is reported as that stage's
// cumulative weight; this coordinator does not attempt sub-stage
// interpolation beyond what each stage already reports via Detail.
func normalizedPercent(stage string) float64 {
	var cumulative float64
	for _, s := range stageOrder {
		cumulative += stageWeights[s]
		if s == stage {
			return cumulative
		}
	}
	return cumulative
}

func safeCallback(cb func(events.Event), e events.Event) {
	defer func() { _ = recover() }()
	cb(e)
}
