// Package detector implements ActionDetector: compressing a dense
// ActivityLabel stream into a sparse sequence of state-transition Events.
package detector

import "github.com/afschowdhury/excavator-video-analyzer/domain"

// Detect performs a single pass over classifications, comparing each label
// against the previous one (initialized to idle, per spec.md §4.3, so a
// video opening mid-dig still emits a dig_start at the first frame).
// Consecutive identical labels produce no event. This is a pure function:
// it cannot fail, and degenerate input (nil or empty) produces zero events.
func Detect(classifications []domain.Classification) []domain.Event {
	events := make([]domain.Event, 0)
	prevLabel := domain.LabelIdle

	for _, c := range classifications {
		for _, kind := range transitions(prevLabel, c.Label) {
			events = append(events, domain.Event{
				Kind:       kind,
				Timestamp:  c.Frame.Timestamp,
				FrameIndex: c.Frame.Index,
				PrevLabel:  prevLabel,
				NewLabel:   c.Label,
			})
		}
		prevLabel = c.Label
	}
	return events
}

// transitions maps a (prev, next) label pair to the Event kinds it triggers,
// per the table in spec.md §3. A pair can match more than one rule: a
// swing_to_dig -> digging transition both closes the previous cycle
// (return_to_dig) and opens the next one (dig_start) in the same frame,
// since "dig_start: any -> digging" applies unconditionally. Returns nil
// when prev == next or no rule matches.
func transitions(prev, next domain.ActivityLabel) []domain.EventKind {
	if prev == next {
		return nil
	}
	var kinds []domain.EventKind

	if prev == domain.LabelSwingToDig && (next == domain.LabelDigging || next == domain.LabelIdle) {
		kinds = append(kinds, domain.EventReturnToDig)
	}
	if next == domain.LabelDigging {
		kinds = append(kinds, domain.EventDigStart)
	}
	if prev == domain.LabelDigging && (next == domain.LabelSwingToDump || next == domain.LabelIdle) {
		kinds = append(kinds, domain.EventDigEnd)
	}
	if next == domain.LabelDumping {
		kinds = append(kinds, domain.EventDumpStart)
	}
	if prev == domain.LabelDumping && (next == domain.LabelSwingToDig || next == domain.LabelIdle) {
		kinds = append(kinds, domain.EventDumpEnd)
	}
	return kinds
}
