// Package retry implements the exponential-backoff-with-jitter retry policy
// and circuit breaker shared by the vision and text external model clients.
package retry

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"time"
)

const (
	// jitterFactor is the +-25% jitter applied to backoff delays.
	jitterFactor    = 0.25
	jitterPrecision = 1 << 20
)

// Policy configures the exponential backoff schedule: initial 1s, factor 2,
// max 3 attempts, per spec.md §4.2.
type Policy struct {
	MaxAttempts      int
	InitialBackoff   time.Duration
	BackoffFactor    float64
}

// DefaultPolicy returns the spec's documented defaults.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialBackoff: time.Second, BackoffFactor: 2}
}

// Classifier decides whether an error is transient (worth retrying) or
// terminal (should fail immediately without consuming further attempts).
type Classifier func(err error) bool

// Do calls fn up to p.MaxAttempts times, applying exponential backoff with
// jitter between attempts. It stops retrying as soon as fn succeeds, the
// error is classified non-transient, or ctx is cancelled. attemptObserver,
// if non-nil, is invoked after every failed attempt for logging/metrics.
func Do(ctx context.Context, p Policy, isTransient Classifier, attemptObserver func(attempt int, err error), fn func() error) error {
	var lastErr error
	backoff := p.InitialBackoff

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if attemptObserver != nil {
			attemptObserver(attempt, err)
		}

		if isTransient != nil && !isTransient(err) {
			return err
		}

		if attempt < p.MaxAttempts {
			delay := withJitter(backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			backoff = time.Duration(float64(backoff) * p.BackoffFactor)
		}
	}
	return lastErr
}

// withJitter applies +-25% jitter to a base delay using a cryptographically
// sourced random offset.
func withJitter(base time.Duration) time.Duration {
	delay := float64(base)
	n, err := rand.Int(rand.Reader, big.NewInt(jitterPrecision))
	if err != nil {
		return base
	}
	jitter := delay * jitterFactor * (2*float64(n.Int64())/jitterPrecision - 1)
	result := delay + jitter
	if result < 0 {
		result = delay
	}
	return time.Duration(math.Max(result, 0))
}
