package retry

import "sync"

// Breaker is a consecutive-failure circuit breaker: once Threshold
// consecutive calls fail, the breaker opens and stays open (it does not
// self-heal) — a fresh Breaker is required per pipeline run, matching the
// spec's per-run client lifecycle (spec.md §5 "Shared-resource policy").
type Breaker struct {
	mu                  sync.Mutex
	threshold           int
	consecutiveFailures int
	open                bool
}

// NewBreaker creates a Breaker that opens after threshold consecutive failures.
func NewBreaker(threshold int) *Breaker {
	return &Breaker{threshold: threshold}
}

// Open reports whether the breaker has tripped.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// RecordSuccess resets the consecutive-failure counter.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures = 0
}

// RecordFailure increments the consecutive-failure counter, opening the
// breaker once the threshold is reached. Returns true if this call tripped
// the breaker open.
func (b *Breaker) RecordFailure() (trippedNow bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures++
	if !b.open && b.consecutiveFailures >= b.threshold {
		b.open = true
		return true
	}
	return false
}
