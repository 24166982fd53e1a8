package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishDeliversToSpecificAndGlobalListeners(t *testing.T) {
	b := NewBus()
	var specificSeen, globalSeen []Event

	b.Subscribe(TypeStageProgress, func(e Event) { specificSeen = append(specificSeen, e) })
	b.SubscribeAll(func(e Event) { globalSeen = append(globalSeen, e) })

	b.Publish(Event{Type: TypeStageProgress, Stage: "frames", Percent: 5})
	b.Publish(Event{Type: TypeStageStarted, Stage: "classifier"})

	assert.Len(t, specificSeen, 1)
	assert.Len(t, globalSeen, 2)
}

func TestPublishRecoversFromPanickingListener(t *testing.T) {
	b := NewBus()
	called := false
	b.SubscribeAll(func(Event) { panic("boom") })
	b.SubscribeAll(func(Event) { called = true })

	assert.NotPanics(t, func() {
		b.Publish(Event{Type: TypeStageCompleted, Stage: "detector"})
	})
	assert.True(t, called)
}

func TestClearRemovesAllListeners(t *testing.T) {
	b := NewBus()
	count := 0
	b.SubscribeAll(func(Event) { count++ })
	b.Clear()
	b.Publish(Event{Type: TypeStageStarted})
	assert.Equal(t, 0, count)
}
