package events

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestHubDeliversToSubscribers(t *testing.T) {
	hub := NewHub(zap.NewNop())

	id, ch := hub.Subscribe()
	defer hub.Unsubscribe(id)

	hub.Publish("media.uploaded", map[string]string{"file_id": "abc"})

	select {
	case e := <-ch:
		if e.Event != "media.uploaded" {
			t.Errorf("Expected media.uploaded, got %s", e.Event)
		}
		if e.Timestamp.IsZero() {
			t.Errorf("Expected timestamp to be set")
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(zap.NewNop())

	id, ch := hub.Subscribe()
	hub.Unsubscribe(id)

	if _, open := <-ch; open {
		t.Errorf("Expected channel closed after unsubscribe")
	}

	// Double unsubscribe must not panic
	hub.Unsubscribe(id)

	// Publishing with no subscribers is a no-op
	hub.Publish("media.deleted", nil)
}

func TestHubDropsEventsForSlowSubscriber(t *testing.T) {
	hub := NewHub(zap.NewNop())

	id, ch := hub.Subscribe()
	defer hub.Unsubscribe(id)

	// Fill the buffer and keep publishing; Publish must never block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish("media.updated", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	if len(ch) == 0 {
		t.Errorf("Expected the buffer to hold some events")
	}
}
