// Package cycles implements CycleAssembler: grouping a sparse Event stream
// into validated dig->swing->dump->return Cycles and deriving
// CycleStatistics over them.
package cycles

import (
	"time"

	"github.com/afschowdhury/excavator-video-analyzer/domain"
	"github.com/afschowdhury/excavator-video-analyzer/logger"
)

// state is the CycleAssembler's internal state machine position, per
// spec.md §4.4.
type state int

const (
	stateIdle state = iota
	stateInDig
	stateInSwingOut
	stateInDump
	stateInSwingBack
)

// Thresholds configures the completeness policy's minimum durations, which
// SPEC_FULL.md exposes as config rather than hard-coded constants.
type Thresholds struct {
	CompleteMinSeconds float64
	PartialMinSeconds  float64
}

// DefaultThresholds returns the spec's documented 5s/3s defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{CompleteMinSeconds: 5, PartialMinSeconds: 3}
}

// inProgress accumulates the events of a not-yet-closed cycle as the state
// machine walks the event stream.
type inProgress struct {
	number       int
	start        time.Duration
	digEnd       time.Duration
	swingOutEnd  time.Duration
	dumpEnd      time.Duration
	lastObserved time.Duration
	hasDigEnd    bool
	hasSwingOut  bool
	hasDumpEnd   bool
}

// Assemble walks events once, driving the IDLE/IN_DIG/IN_SWING_OUT/IN_DUMP/
// IN_SWING_BACK state machine described in spec.md §4.4, and returns the
// resulting Cycles in the order they were closed. Cannot hard-fail; an
// empty or degenerate event stream yields an empty Cycle list.
func Assemble(events []domain.Event, thresholds Thresholds) []domain.Cycle {
	cycles := make([]domain.Cycle, 0)
	st := stateIdle
	var cur *inProgress
	nextNumber := 1

	closeComplete := func(end time.Duration) {
		c := buildComplete(*cur, end, thresholds)
		if c != nil {
			cycles = append(cycles, *c)
		}
	}
	closePartial := func() {
		c := buildPartial(*cur, thresholds)
		if c != nil {
			cycles = append(cycles, *c)
		}
	}

	for _, ev := range events {
		if ev.Kind == domain.EventDigStart && st != stateIdle {
			closePartial()
			st = stateIdle
		}

		switch st {
		case stateIdle:
			if ev.Kind == domain.EventDigStart {
				cur = &inProgress{number: nextNumber, start: ev.Timestamp, lastObserved: ev.Timestamp}
				nextNumber++
				st = stateInDig
			} else {
				logger.Debug("cycle assembler ignored event", "state", "idle", "kind", ev.Kind)
			}
		case stateInDig:
			if ev.Kind == domain.EventDigEnd {
				cur.digEnd = ev.Timestamp
				cur.hasDigEnd = true
				cur.lastObserved = ev.Timestamp
				st = stateInSwingOut
			} else {
				logger.Debug("cycle assembler ignored event", "state", "in_dig", "kind", ev.Kind)
			}
		case stateInSwingOut:
			if ev.Kind == domain.EventDumpStart {
				cur.swingOutEnd = ev.Timestamp
				cur.hasSwingOut = true
				cur.lastObserved = ev.Timestamp
				st = stateInDump
			} else {
				logger.Debug("cycle assembler ignored event", "state", "in_swing_out", "kind", ev.Kind)
			}
		case stateInDump:
			if ev.Kind == domain.EventDumpEnd {
				cur.dumpEnd = ev.Timestamp
				cur.hasDumpEnd = true
				cur.lastObserved = ev.Timestamp
				st = stateInSwingBack
			} else {
				logger.Debug("cycle assembler ignored event", "state", "in_dump", "kind", ev.Kind)
			}
		case stateInSwingBack:
			if ev.Kind == domain.EventReturnToDig {
				closeComplete(ev.Timestamp)
				st = stateIdle
			} else {
				logger.Debug("cycle assembler ignored event", "state", "in_swing_back", "kind", ev.Kind)
			}
		}

		if cur != nil && ev.Timestamp > cur.lastObserved {
			cur.lastObserved = ev.Timestamp
		}
	}

	if st != stateIdle {
		closePartial()
	}

	return cycles
}

// buildComplete validates and constructs a complete cycle closed via the
// normal IN_SWING_BACK -> IDLE path.
func buildComplete(p inProgress, end time.Duration, th Thresholds) *domain.Cycle {
	duration := end - p.start
	phaseDig := p.digEnd - p.start
	phaseSwingOut := p.swingOutEnd - p.digEnd
	phaseDump := p.dumpEnd - p.swingOutEnd
	phaseSwingBack := end - p.dumpEnd

	allPhasesPositive := phaseDig > 0 && phaseSwingOut > 0 && phaseDump > 0 && phaseSwingBack > 0
	if !p.hasDigEnd || !p.hasSwingOut || !p.hasDumpEnd || !allPhasesPositive || duration.Seconds() < th.CompleteMinSeconds {
		p.lastObserved = end
		return fallbackPartial(p, th)
	}

	return &domain.Cycle{
		Number:         p.number,
		Start:          p.start,
		End:            end,
		Duration:       duration,
		PhaseDig:       phaseDig,
		PhaseSwingOut:  phaseSwingOut,
		PhaseDump:      phaseDump,
		PhaseSwingBack: phaseSwingBack,
		Completeness:   domain.CycleComplete,
	}
}

// fallbackPartial re-evaluates a cycle that reached IN_SWING_BACK/IDLE but
// failed the complete-cycle validation as a partial cycle instead of
// silently discarding the work it did observe.
func fallbackPartial(p inProgress, th Thresholds) *domain.Cycle {
	c := buildPartial(p, th)
	if c != nil {
		c.Note = "partial cycle: returned to dig but failed complete-cycle validation"
	}
	return c
}

// buildPartial constructs a partial cycle when the state machine is
// interrupted (a new dig_start, or end of stream) before reaching IDLE
// normally; fallbackPartial also uses it. A partial cycle requires at least a dig_start and a dig_end,
// and last_observed - start >= PartialMinSeconds; otherwise it is discarded.
func buildPartial(p inProgress, th Thresholds) *domain.Cycle {
	if !p.hasDigEnd {
		return nil
	}
	if (p.lastObserved - p.start).Seconds() < th.PartialMinSeconds {
		return nil
	}

	c := &domain.Cycle{
		Number:       p.number,
		Start:        p.start,
		End:          p.lastObserved,
		Duration:     p.lastObserved - p.start,
		PhaseDig:     p.digEnd - p.start,
		Completeness: domain.CyclePartial,
		Note:         "partial cycle: interrupted before returning to dig",
	}
	if p.hasSwingOut {
		c.PhaseSwingOut = p.swingOutEnd - p.digEnd
	}
	if p.hasDumpEnd && p.hasSwingOut {
		c.PhaseDump = p.dumpEnd - p.swingOutEnd
	}
	return c
}
