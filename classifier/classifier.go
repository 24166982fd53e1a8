// Package classifier implements FrameClassifier: mapping each decoded Frame
// to an ActivityLabel via an external vision model, with short-term
// temporal continuity supplied by the previous label.
package classifier

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/afschowdhury/excavator-video-analyzer/domain"
	"github.com/afschowdhury/excavator-video-analyzer/events"
	"github.com/afschowdhury/excavator-video-analyzer/logger"
	"github.com/afschowdhury/excavator-video-analyzer/metrics"
	"github.com/afschowdhury/excavator-video-analyzer/pkgerrors"
	"github.com/afschowdhury/excavator-video-analyzer/retry"
	"github.com/afschowdhury/excavator-video-analyzer/visionmodel"
)

// noPreviousLabel is sent as context for the first frame, per spec.md §4.2.
const noPreviousLabel = "(none)"

// minConfidenceForTrust is the floor below which spec.md §4.2 allows a
// two-pass refinement to re-label using the previous label; this
// implementation selects the always-sequential option (a) instead, so the
// constant documents the boundary without driving a second pass.
const minConfidenceForTrust = 0.6

// Classifier implements FrameClassifier against a visionmodel.Client.
type Classifier struct {
	client       visionmodel.Client
	systemPrompt string
	model        string
	tokenLimit   int
	temperature  float32
	policy       retry.Policy
	breaker      *retry.Breaker
	// sem bounds in-flight calls at the configured concurrency. Classify
	// always awaits each call before issuing the next (option (a) from
	// spec.md §4.2: process strictly sequentially to preserve the
	// previous-label dependency), so sem never has more than one
	// outstanding acquisition; it exists to keep the call surface
	// consistent with a future option-(b) parallel refinement pass.
	sem *semaphore.Weighted
}

// New creates a Classifier. systemPrompt must be non-empty; callers load it
// once from the declarative template store before constructing a Classifier.
func New(client visionmodel.Client, systemPrompt, model string, tokenLimit int, temperature float32, concurrency, circuitBreakerThreshold int, policy retry.Policy) (*Classifier, error) {
	if systemPrompt == "" {
		return nil, pkgerrors.New(pkgerrors.KindPromptTemplateMissing, "classifier", model, fmt.Errorf("system prompt template is empty"))
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Classifier{
		client:       client,
		systemPrompt: systemPrompt,
		model:        model,
		tokenLimit:   tokenLimit,
		temperature:  temperature,
		policy:       policy,
		breaker:      retry.NewBreaker(circuitBreakerThreshold),
		sem:          semaphore.NewWeighted(int64(concurrency)),
	}, nil
}

// isTransient classifies network errors and transient HTTP failures as
// retryable; everything else (auth, quota) is terminal.
func isTransient(err error) bool {
	return visionmodel.IsTransient(err)
}

// Classify maps frames to Classifications, in order, one at a time so each
// call can reference the immediately previous label.
func (c *Classifier) Classify(ctx context.Context, frames []domain.Frame, bus *events.Bus) ([]domain.Classification, error) {
	classifications := make([]domain.Classification, 0, len(frames))
	previousLabel := noPreviousLabel

	for i, frame := range frames {
		select {
		case <-ctx.Done():
			return nil, pkgerrors.New(pkgerrors.KindCancelled, "classifier", "", ctx.Err())
		default:
		}

		if c.breaker.Open() {
			return nil, pkgerrors.New(pkgerrors.KindClassifierUnavailable, "classifier", "", fmt.Errorf("circuit breaker open after repeated failures"))
		}

		classification, err := c.classifyOne(ctx, frame, previousLabel)
		if err != nil {
			if tripped := c.breaker.RecordFailure(); tripped {
				logger.Error("classifier circuit breaker tripped", "frame_index", frame.Index)
				metrics.RecordCircuitBreakerTrip("vision")
				return nil, pkgerrors.New(pkgerrors.KindClassifierUnavailable, "classifier", "", err)
			}
			classification = domain.Classification{Frame: frame, Label: domain.LabelIdle, Confidence: 0, Note: err.Error(), Failed: true}
			metrics.RecordStageElement("classifier", "soft_failure")
		} else {
			c.breaker.RecordSuccess()
			metrics.RecordStageElement("classifier", "success")
		}

		classifications = append(classifications, classification)
		previousLabel = string(classification.Label)

		if bus != nil && (i+1)%20 == 0 {
			bus.Publish(events.Event{Type: events.TypeStageProgress, Stage: "classifier", Detail: fmt.Sprintf("%d/%d frames classified", i+1, len(frames))})
		}
	}

	if bus != nil {
		bus.Publish(events.Event{Type: events.TypeStageCompleted, Stage: "classifier", Detail: fmt.Sprintf("%d frames classified", len(classifications))})
	}
	return classifications, nil
}

// classifyOne issues one retried vision-model call for a single frame,
// bounded by the configured concurrency semaphore.
func (c *Classifier) classifyOne(ctx context.Context, frame domain.Frame, previousLabel string) (domain.Classification, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return domain.Classification{}, err
	}
	defer c.sem.Release(1)

	req := visionmodel.Request{
		SystemPrompt:  c.systemPrompt,
		PreviousLabel: previousLabel,
		ImageBytes:    frame.Image,
		ImageEncoding: frame.Encoding,
		Model:         c.model,
		TokenLimit:    c.tokenLimit,
		Temperature:   c.temperature,
	}

	var resp visionmodel.Response
	attempt := 0
	err := retry.Do(ctx, c.policy, isTransient, func(n int, err error) {
		attempt = n
		logger.ModelCallFailed("vision", "classifier", n, err)
	}, func() error {
		var callErr error
		resp, callErr = c.client.Classify(ctx, req)
		return callErr
	})
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classify frame %d (attempt %d): %w", frame.Index, attempt, err)
	}

	label, coerced := domain.NormalizeLabel(resp.Label)
	note := resp.Note
	if coerced && note == "" {
		note = fmt.Sprintf("unrecognized label %q coerced to idle", resp.Label)
	}
	return domain.Classification{Frame: frame, Label: label, Confidence: resp.Confidence, Note: note}, nil
}
