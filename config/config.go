// Package config loads and validates the pipeline's declarative TOML
// configuration surface.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/afschowdhury/excavator-video-analyzer/pkgerrors"
)

// allowedSamplingRates is the discrete set of permitted frame-extraction rates.
var allowedSamplingRates = map[int]bool{1: true, 3: true, 5: true, 10: true}

// RetryConfig controls the external-model retry/backoff policy.
type RetryConfig struct {
	MaxAttempts           int     `toml:"max_attempts"`
	InitialBackoffSeconds float64 `toml:"initial_backoff_seconds"`
	BackoffFactor         float64 `toml:"backoff_factor"`
}

// ModelConfig names one external model endpoint plus its generation params.
type ModelConfig struct {
	Name        string  `toml:"name"`
	TokenLimit  int     `toml:"token_limit"`
	Temperature float32 `toml:"temperature"`
}

// StageTimeoutsConfig holds the soft per-stage deadline, in seconds, keyed by
// stage name ("frames", "classifier", "detector", "cycles", "telemetry", "report").
type StageTimeoutsConfig map[string]float64

// Config is the single declarative configuration object described by the
// external-interfaces section: sampling rate, max_frames, concurrency, model
// identifiers, token limits, temperatures, retry parameters, circuit-breaker
// threshold, stage timeouts, total deadline, telemetry directory, template
// identifiers, narrative-mode flag.
type Config struct {
	SamplingRateFPS int  `toml:"sampling_rate_fps"`
	MaxFrames       *int `toml:"max_frames"`
	Concurrency     int  `toml:"concurrency"`

	VisionModel ModelConfig `toml:"vision_model"`
	TextModel   ModelConfig `toml:"text_model"`

	Retry                    RetryConfig `toml:"retry"`
	CircuitBreakerThreshold  int         `toml:"circuit_breaker_threshold"`

	StageTimeoutSeconds StageTimeoutsConfig `toml:"stage_timeout_seconds"`
	TotalDeadlineSeconds float64            `toml:"total_deadline_seconds"`

	TelemetryDir string `toml:"telemetry_dir"`

	SystemPromptTemplate string `toml:"system_prompt_template"`
	ReportTemplate       string `toml:"report_template"`
	NarrativeMode        bool   `toml:"narrative_mode"`

	// CompleteCycleMinSeconds / PartialCycleMinSeconds expose the otherwise
	// hard-coded 5s/3s completeness thresholds as configuration, per the
	// open question that says to preserve the numbers but make them tunable.
	CompleteCycleMinSeconds float64 `toml:"complete_cycle_min_seconds"`
	PartialCycleMinSeconds  float64 `toml:"partial_cycle_min_seconds"`
}

// Default returns a Config populated with the spec's documented defaults.
func Default() Config {
	return Config{
		SamplingRateFPS: 3,
		MaxFrames:       nil,
		Concurrency:     4,
		VisionModel: ModelConfig{
			Name:        "gpt-4o-mini",
			TokenLimit:  256,
			Temperature: 0.0,
		},
		TextModel: ModelConfig{
			Name:        "gpt-4o-mini",
			TokenLimit:  1024,
			Temperature: 0.4,
		},
		Retry: RetryConfig{
			MaxAttempts:           3,
			InitialBackoffSeconds: 1.0,
			BackoffFactor:         2.0,
		},
		CircuitBreakerThreshold: 10,
		StageTimeoutSeconds: StageTimeoutsConfig{
			"frames":     60,
			"classifier": 300,
			"detector":   5,
			"cycles":     5,
			"telemetry":  30,
			"report":     60,
		},
		TotalDeadlineSeconds:    900,
		TelemetryDir:            "./telemetry",
		SystemPromptTemplate:    "vision_system_prompt",
		ReportTemplate:          "default_report",
		NarrativeMode:           false,
		CompleteCycleMinSeconds: 5,
		PartialCycleMinSeconds:  3,
	}
}

// Load reads and validates a Config from a TOML file, filling in defaults
// for any field left zero-valued.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.KindConfigInvalid, "config", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, pkgerrors.New(pkgerrors.KindConfigInvalid, "config", path, fmt.Errorf("parse: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, pkgerrors.New(pkgerrors.KindConfigInvalid, "config", path, err)
	}
	return &cfg, nil
}

// Validate checks invariants that cannot be expressed as TOML defaults.
func (c *Config) Validate() error {
	if !allowedSamplingRates[c.SamplingRateFPS] {
		return fmt.Errorf("sampling_rate_fps must be one of {1,3,5,10}, got %d", c.SamplingRateFPS)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.CircuitBreakerThreshold < 1 {
		return fmt.Errorf("circuit_breaker_threshold must be >= 1, got %d", c.CircuitBreakerThreshold)
	}
	if c.CompleteCycleMinSeconds <= 0 || c.PartialCycleMinSeconds <= 0 {
		return fmt.Errorf("cycle thresholds must be positive")
	}
	if c.PartialCycleMinSeconds > c.CompleteCycleMinSeconds {
		return fmt.Errorf("partial_cycle_min_seconds must not exceed complete_cycle_min_seconds")
	}
	return nil
}

// StageTimeout returns the configured soft timeout for a stage, or 0 if unset.
func (c *Config) StageTimeout(stage string) time.Duration {
	seconds, ok := c.StageTimeoutSeconds[stage]
	if !ok {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// TotalDeadline returns the configured total-run deadline.
func (c *Config) TotalDeadline() time.Duration {
	return time.Duration(c.TotalDeadlineSeconds * float64(time.Second))
}

// RetryBackoff returns the initial backoff and factor as time.Duration/float64.
func (c *Config) RetryBackoff() (initial time.Duration, factor float64, maxAttempts int) {
	return time.Duration(c.Retry.InitialBackoffSeconds * float64(time.Second)), c.Retry.BackoffFactor, c.Retry.MaxAttempts
}
