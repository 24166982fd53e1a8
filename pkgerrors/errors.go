// Package pkgerrors provides the pipeline's structured error taxonomy.
//
// PipelineError is the base error type that captures the taxonomy kind, the
// producing stage, the source identifier, and the underlying cause. It
// implements the error and Unwrap interfaces for seamless integration with
// Go's errors package.
//
// Usage:
//
//	err := pkgerrors.New(pkgerrors.KindSourceUnavailable, "frames", "B6.mp4", openErr)
package pkgerrors

import (
	"fmt"
)

// Kind is the fixed taxonomy named in the error handling design.
type Kind string

const (
	KindConfigInvalid          Kind = "ConfigInvalid"
	KindSourceUnavailable      Kind = "SourceUnavailable"
	KindDecodeFailed           Kind = "DecodeFailed"
	KindNoFramesExtracted      Kind = "NoFramesExtracted"
	KindPromptTemplateMissing  Kind = "PromptTemplateMissing"
	KindClassifierUnavailable  Kind = "ClassifierUnavailable"
	KindStageTimeout           Kind = "StageTimeout"
	KindTemplateMissing        Kind = "TemplateMissing"
	KindRenderFailed           Kind = "RenderFailed"
	KindNarrativeUnavailable   Kind = "NarrativeUnavailable"
	KindCancelled              Kind = "Cancelled"
	KindInternal               Kind = "Internal"
)

// maxCauseLen bounds the underlying cause message surfaced to callers.
const maxCauseLen = 500

// PipelineError is a structured error providing consistent context about
// where and why a hard failure occurred.
type PipelineError struct {
	Kind   Kind
	Stage  string
	Source string
	Cause  error
}

// New creates a PipelineError with the given kind, stage, source, and cause.
func New(kind Kind, stage, source string, cause error) *PipelineError {
	return &PipelineError{Kind: kind, Stage: stage, Source: source, Cause: cause}
}

// StageTimeout builds the parameterized StageTimeout(stage_name) error.
func StageTimeout(stage, source string, cause error) *PipelineError {
	return New(KindStageTimeout, stage, source, cause)
}

// Error returns a human-readable representation, truncating the cause to
// maxCauseLen characters per the error handling design.
func (e *PipelineError) Error() string {
	base := fmt.Sprintf("[%s] stage=%s source=%s", e.Kind, e.Stage, e.Source)
	if e.Cause != nil {
		base += ": " + truncate(e.Cause.Error(), maxCauseLen)
	}
	return base
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, &PipelineError{Kind: KindX}) to match on Kind alone.
func (e *PipelineError) Is(target error) bool {
	other, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ExitCode maps a PipelineError's Kind to the documented CLI exit code.
// Non-PipelineError values map to 64 (unexpected internal error).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	pe, ok := err.(*PipelineError)
	if !ok {
		return 64
	}
	switch pe.Kind {
	case KindConfigInvalid:
		return 1
	case KindSourceUnavailable, KindDecodeFailed, KindNoFramesExtracted:
		return 2
	case KindClassifierUnavailable:
		return 3
	case KindStageTimeout:
		return 4
	case KindCancelled:
		return 5
	default:
		return 64
	}
}
