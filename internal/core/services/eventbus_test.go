package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
)

func TestEventBus_DeliversInOrder(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	rec := &eventRecorder{}
	bus.Subscribe(rec.handle)

	for i := 0; i < 50; i++ {
		bus.Publish(domain.CacheCleared{EntityID: string(rune('a' + i%26))})
	}

	require.Eventually(t, func() bool { return len(rec.all()) == 50 }, time.Second, 5*time.Millisecond)
	for i, ev := range rec.all() {
		assert.Equal(t, string(rune('a'+i%26)), ev.Entity())
	}
}

func TestEventBus_BatchesDoNotInterleave(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	rec := &eventRecorder{}
	bus.Subscribe(rec.handle)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			bus.Publish(
				domain.PublicationsUpdated{ScholarID: id},
				domain.PublicationsChanged{ScholarID: id},
			)
		}(string(rune('a' + i)))
	}
	wg.Wait()

	require.Eventually(t, func() bool { return len(rec.all()) == 20 }, time.Second, 5*time.Millisecond)
	events := rec.all()
	for i := 0; i < len(events); i += 2 {
		_, first := events[i].(domain.PublicationsUpdated)
		_, second := events[i+1].(domain.PublicationsChanged)
		assert.True(t, first && second)
		assert.Equal(t, events[i].Entity(), events[i+1].Entity())
	}
}

func TestEventBus_PublishDoesNotBlockOnSlowHandler(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	release := make(chan struct{})
	bus.Subscribe(func(domain.ChangeEvent) { <-release })

	done := make(chan struct{})
	go func() {
		bus.Publish(domain.CacheCleared{})
		bus.Publish(domain.CacheCleared{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow handler")
	}
	assert.False(t, bus.Idle())
	close(release)
	require.Eventually(t, bus.Idle, time.Second, 5*time.Millisecond)
}

func TestEventBus_HandlerMayPublish(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	rec := &eventRecorder{}
	bus.Subscribe(func(ev domain.ChangeEvent) {
		rec.handle(ev)
		if ev.Entity() == "first" {
			bus.Publish(domain.CacheCleared{EntityID: "second"})
		}
	})
	bus.Publish(domain.CacheCleared{EntityID: "first"})

	require.Eventually(t, func() bool { return len(rec.all()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	rec := &eventRecorder{}
	unsubscribe := bus.Subscribe(rec.handle)
	unsubscribe()
	unsubscribe()

	bus.Publish(domain.CacheCleared{})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, rec.all())
}

func TestEventBus_CloseAfterUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	unsubscribe := bus.Subscribe(func(domain.ChangeEvent) {})
	other := bus.Subscribe(func(domain.ChangeEvent) {})
	unsubscribe()

	bus.Close()
	bus.Close()
	other()

	// Subscribing after close is a no-op.
	bus.Subscribe(func(domain.ChangeEvent) { t.Error("handler called after close") })
	bus.Publish(domain.CacheCleared{})
}
