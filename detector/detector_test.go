package detector

import (
	"testing"
	"time"

	"github.com/afschowdhury/excavator-video-analyzer/domain"
)

func classificationAt(index int, seconds float64, label domain.ActivityLabel) domain.Classification {
	return domain.Classification{
		Frame: domain.Frame{Index: index, Timestamp: time.Duration(seconds * float64(time.Second))},
		Label: label,
	}
}

func kindsOf(events []domain.Event) []domain.EventKind {
	kinds := make([]domain.EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	return kinds
}

func TestDetectEmptyInputProducesNoEvents(t *testing.T) {
	if events := Detect(nil); len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestDetectConsecutiveIdenticalLabelsProduceNoEvent(t *testing.T) {
	events := Detect([]domain.Classification{
		classificationAt(0, 0, domain.LabelIdle),
		classificationAt(1, 1, domain.LabelIdle),
		classificationAt(2, 2, domain.LabelIdle),
	})
	if len(events) != 0 {
		t.Fatalf("expected no events for a constant idle stream, got %d", len(events))
	}
}

func TestDetectVideoOpeningMidDigEmitsDigStartFirst(t *testing.T) {
	events := Detect([]domain.Classification{classificationAt(0, 0, domain.LabelDigging)})
	if len(events) != 1 || events[0].Kind != domain.EventDigStart {
		t.Fatalf("expected a single dig_start event, got %+v", events)
	}
}

func TestDetectFullCycleEmitsAllFiveEventKinds(t *testing.T) {
	events := Detect([]domain.Classification{
		classificationAt(0, 0, domain.LabelIdle),
		classificationAt(1, 1, domain.LabelDigging),
		classificationAt(2, 5, domain.LabelSwingToDump),
		classificationAt(3, 8, domain.LabelDumping),
		classificationAt(4, 10, domain.LabelSwingToDig),
		classificationAt(5, 13, domain.LabelDigging),
	})
	want := []domain.EventKind{
		domain.EventDigStart,
		domain.EventDigEnd,
		domain.EventDumpStart,
		domain.EventDumpEnd,
		domain.EventReturnToDig,
		domain.EventDigStart,
	}
	got := kindsOf(events)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestDetectBackToBackCyclesEmitReturnAndDigStartTogether(t *testing.T) {
	events := Detect([]domain.Classification{
		classificationAt(0, 0, domain.LabelSwingToDig),
		classificationAt(1, 1, domain.LabelDigging),
	})
	if len(events) != 2 {
		t.Fatalf("expected return_to_dig and dig_start on the same transition, got %+v", events)
	}
	if events[0].Kind != domain.EventReturnToDig || events[1].Kind != domain.EventDigStart {
		t.Fatalf("expected [return_to_dig, dig_start], got %+v", kindsOf(events))
	}
	if events[0].FrameIndex != events[1].FrameIndex {
		t.Fatalf("expected both events to share the triggering frame index")
	}
}

func TestDetectTrailingDiggingProducesNoReturnToDig(t *testing.T) {
	events := Detect([]domain.Classification{
		classificationAt(0, 0, domain.LabelIdle),
		classificationAt(1, 1, domain.LabelDigging),
	})
	for _, e := range events {
		if e.Kind == domain.EventReturnToDig {
			t.Fatal("did not expect a return_to_dig event for an incomplete trailing cycle")
		}
	}
}

func TestDetectDirectIdleToDumpingEmitsDumpStartOnly(t *testing.T) {
	events := Detect([]domain.Classification{
		classificationAt(0, 0, domain.LabelIdle),
		classificationAt(1, 1, domain.LabelDumping),
	})
	if len(events) != 1 || events[0].Kind != domain.EventDumpStart {
		t.Fatalf("expected a single dump_start event, got %+v", events)
	}
}
