// Package logger provides structured logging for the pipeline and its stages.
//
// It wraps Go's standard log/slog with:
//   - A package-level default logger configurable via the LOG_LEVEL env var
//   - A ModuleConfig table of per-stage levels with dotted-name fallback
//     (the logging functions below log at DefaultLogger's level and do not
//     consult it)
//   - Convenience functions for stage lifecycle and external-model call logging
//
// All exported functions use the global DefaultLogger, which is safe for
// concurrent use.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"
)

// DefaultLogger is the global structured logger instance.
var DefaultLogger *slog.Logger

func init() {
	level := slog.LevelInfo
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		switch strings.ToLower(envLevel) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn", "warning":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	DefaultLogger = slog.New(handler)
}

// SetLevel replaces the global logger with one at the given level.
func SetLevel(level slog.Level) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	DefaultLogger = slog.New(handler)
}

// SetVerbose is a convenience wrapper for verbose command-line flags.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(slog.LevelDebug)
		return
	}
	SetLevel(slog.LevelInfo)
}

func Info(msg string, args ...any)  { DefaultLogger.Info(msg, args...) }
func Warn(msg string, args ...any)  { DefaultLogger.Warn(msg, args...) }
func Error(msg string, args ...any) { DefaultLogger.Error(msg, args...) }
func Debug(msg string, args ...any) { DefaultLogger.Debug(msg, args...) }

func InfoContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.InfoContext(ctx, msg, args...)
}
func WarnContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.WarnContext(ctx, msg, args...)
}
func ErrorContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.ErrorContext(ctx, msg, args...)
}
func DebugContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.DebugContext(ctx, msg, args...)
}

// StageStart logs the beginning of a pipeline stage.
func StageStart(stage, source string, attrs ...any) {
	all := append([]any{"stage", stage, "source", source}, attrs...)
	Info("stage started", all...)
}

// StageDone logs the successful completion of a pipeline stage with its
// wall-clock duration.
func StageDone(stage, source string, elapsed time.Duration, attrs ...any) {
	all := append([]any{"stage", stage, "source", source, "elapsed_ms", elapsed.Milliseconds()}, attrs...)
	Info("stage completed", all...)
}

// StageFailed logs a hard stage failure.
func StageFailed(stage, source string, err error, attrs ...any) {
	all := append([]any{"stage", stage, "source", source, "error", err}, attrs...)
	Error("stage failed", all...)
}

// ModelCall logs an outbound external-model request for observability.
func ModelCall(provider, role string, attrs ...any) {
	all := append([]any{"provider", provider, "role", role}, attrs...)
	Info("model call", all...)
}

// ModelResponse logs a successful external-model response.
func ModelResponse(provider, role string, latency time.Duration, attrs ...any) {
	all := append([]any{"provider", provider, "role", role, "latency_ms", latency.Milliseconds()}, attrs...)
	Info("model response", all...)
}

// ModelCallFailed logs a failed external-model call attempt.
func ModelCallFailed(provider, role string, attempt int, err error, attrs ...any) {
	all := append([]any{"provider", provider, "role", role, "attempt", attempt, "error", err}, attrs...)
	Warn("model call failed", all...)
}
