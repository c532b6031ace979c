package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	subA := broker.Subscribe()
	subB := broker.Subscribe()
	defer broker.Unsubscribe(subA)
	defer broker.Unsubscribe(subB)

	assert.Equal(t, 2, broker.SubscriberCount())

	broker.Publish(New(EventDeviceFrozen, "frozen"))

	for _, sub := range []Subscriber{subA, subB} {
		select {
		case ev := <-sub:
			assert.Equal(t, EventDeviceFrozen, ev.Type)
			assert.NotEmpty(t, ev.ID)
			assert.False(t, ev.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatal("event never delivered")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	broker.Unsubscribe(sub)

	_, open := <-sub
	assert.False(t, open)
	assert.Equal(t, 0, broker.SubscriberCount())

	// Unsubscribing twice is harmless
	broker.Unsubscribe(sub)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	// Never drained; its buffer will fill
	slow := broker.Subscribe()
	defer broker.Unsubscribe(slow)
	live := broker.Subscribe()
	defer broker.Unsubscribe(live)

	for i := 0; i < 200; i++ {
		broker.Publish(New(EventRegistryUpdated, "tick"))
	}

	// The live subscriber still sees a full buffer's worth of events;
	// overflow is dropped, not blocked on
	received := 0
	deadline := time.After(time.Second)
	for received < 50 {
		select {
		case <-live:
			received++
		case <-deadline:
			t.Fatalf("live subscriber starved after %d events", received)
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	broker.Stop()
	broker.Stop()

	// Publishing after stop must not block
	done := make(chan struct{})
	go func() {
		broker.Publish(New(EventSessionExpired, "late"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked after stop")
	}
}

func TestNewCarriesMessage(t *testing.T) {
	ev := New(EventReconnected, "backend connection restored")
	require.NotNil(t, ev)
	assert.Equal(t, EventReconnected, ev.Type)
	assert.Equal(t, "backend connection restored", ev.Message)
	assert.NotEmpty(t, ev.ID)
}
