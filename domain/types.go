// Package domain defines the data contracts shared by every pipeline stage.
//
// The source system leans on untyped mappings passed between stages; here
// each record is an explicit, total-constructor Go type so that a stage's
// output type is statically its successor's input type.
package domain

import (
	"fmt"
	"time"
)

// ActivityLabel is one of the five permitted excavator activity states.
type ActivityLabel string

const (
	LabelDigging      ActivityLabel = "digging"
	LabelSwingToDump   ActivityLabel = "swing_to_dump"
	LabelDumping       ActivityLabel = "dumping"
	LabelSwingToDig    ActivityLabel = "swing_to_dig"
	LabelIdle          ActivityLabel = "idle"
	// LabelUnknown is never stored on a Classification; NormalizeLabel coerces
	// anything outside the fixed set to LabelIdle before it reaches a Classification.
	LabelUnknown ActivityLabel = "unknown"
)

// knownLabels is the fixed finite set a classifier response must match.
var knownLabels = map[ActivityLabel]bool{
	LabelDigging:     true,
	LabelSwingToDump: true,
	LabelDumping:     true,
	LabelSwingToDig:  true,
	LabelIdle:        true,
}

// NormalizeLabel coerces any label outside the fixed five-member set to
// LabelIdle, reporting whether coercion occurred.
func NormalizeLabel(raw string) (label ActivityLabel, coerced bool) {
	candidate := ActivityLabel(raw)
	if knownLabels[candidate] {
		return candidate, false
	}
	return LabelIdle, true
}

// Frame is an immutable decoded still image drawn from the source video.
type Frame struct {
	Index     int           // monotonically increasing, starting at 0
	Timestamp time.Duration // offset from start of video
	Image     []byte        // encoded still-image bytes
	Encoding  string        // e.g. "image/jpeg"
}

// TimestampSeconds returns the frame timestamp as fractional seconds.
func (f Frame) TimestampSeconds() float64 {
	return f.Timestamp.Seconds()
}

// Classification pairs a Frame with the activity label an external vision
// model (or failure handling) assigned to it.
type Classification struct {
	Frame      Frame
	Label      ActivityLabel
	Confidence float64
	Note       string
	Failed     bool // true if the model call itself failed (label forced to idle, confidence 0)
}

// EventKind enumerates the state-transition events ActionDetector emits.
type EventKind string

const (
	EventDigStart    EventKind = "dig_start"
	EventDigEnd      EventKind = "dig_end"
	EventDumpStart   EventKind = "dump_start"
	EventDumpEnd     EventKind = "dump_end"
	EventReturnToDig EventKind = "return_to_dig"
)

// Event is a state transition between two consecutive Classifications.
type Event struct {
	Kind       EventKind
	Timestamp  time.Duration
	FrameIndex int // frame index of the *new* classification, used for tie-breaking
	PrevLabel  ActivityLabel
	NewLabel   ActivityLabel
}

// Completeness classifies how much of a cycle's lifecycle was observed.
type Completeness string

const (
	CycleComplete Completeness = "complete"
	CyclePartial  Completeness = "partial"
)

// Cycle is one grouped dig->swing->dump->return work unit.
type Cycle struct {
	Number       int // 1-based, monotonically assigned
	Start        time.Duration
	End          time.Duration
	Duration     time.Duration
	PhaseDig        time.Duration
	PhaseSwingOut   time.Duration
	PhaseDump       time.Duration
	PhaseSwingBack  time.Duration
	Completeness Completeness
	Note         string
}

// CycleStatistics is derived from a sequence of Cycles.
type CycleStatistics struct {
	Count              int
	Mean               time.Duration
	Min                time.Duration
	Max                time.Duration
	StdDev             time.Duration
	SpecificAverage    time.Duration // sum(duration)/count: pure work time
	ApproximateAverage time.Duration // (last.End - first.Start)/count: includes gaps
	IdlePerCycle       time.Duration // ApproximateAverage - SpecificAverage
}

// TelemetryRecord is optional enrichment data keyed by source identifier.
type TelemetryRecord struct {
	Found             bool
	FuelBurnedLitres  float64
	TimeSwingingLeft  time.Duration
	TimeSwingingRight time.Duration
}

// ReportArtifact is the rendered output of ReportGenerator.
type ReportArtifact struct {
	Bytes    []byte
	MIMEType string
	Note     string // non-empty when narrative mode fell back to deterministic rendering
}

// PipelineResult aggregates every stage's output plus run metadata; it is
// the single return value of the Coordinator.
type PipelineResult struct {
	SourceID      string
	TotalFrames   int
	MaxFrames     *int
	EventsCount   int
	Cycles        []Cycle
	Statistics    CycleStatistics
	Telemetry     TelemetryRecord
	Report        ReportArtifact
	StageDurations map[string]time.Duration
}

// FormatMMSS renders a duration as "MM:SS", seconds rounded to the nearest integer.
func FormatMMSS(d time.Duration) string {
	total := int64(d.Round(time.Second) / time.Second)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatSecondsOneDecimal renders a duration in seconds with one decimal place.
func FormatSecondsOneDecimal(d time.Duration) string {
	return fmt.Sprintf("%.1f", d.Seconds())
}
