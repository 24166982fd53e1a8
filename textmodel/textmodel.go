// Package textmodel implements the external text-generation-model client
// used by ReportGenerator's narrative rendering mode.
package textmodel

import "context"

// Request is the narrative-mode generation request: a structured prompt
// containing the cycle data as JSON (spec.md §6).
type Request struct {
	SystemPrompt        string
	StructuredCycleData []byte // JSON
	Model               string
	TokenLimit          int
	Temperature         float32
}

// Response is the model's free-text or HTML-fragment reply. Validation is
// lenient: any non-empty response is accepted (spec.md §6).
type Response struct {
	Text string
}

// Client generates narrative prose from structured cycle data.
type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
	Close() error
}
