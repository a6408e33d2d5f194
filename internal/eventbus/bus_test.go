package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(4)
	defer unsub()

	b.Publish(Event{Type: "dispatch.sent", Data: "ok"})

	select {
	case e := <-ch:
		if e.Type != "dispatch.sent" {
			t.Fatalf("unexpected type %q", e.Type)
		}
		if e.Time.IsZero() {
			t.Fatalf("expected publish to stamp time")
		}
	case <-time.After(time.Second):
		t.Fatalf("event not delivered")
	}
}

func TestSlowSubscriberDrops(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	b.Publish(Event{Type: "a"})
	b.Publish(Event{Type: "b"}) // buffer full; must not block

	e := <-ch
	if e.Type != "a" {
		t.Fatalf("expected first event, got %q", e.Type)
	}
	select {
	case e := <-ch:
		t.Fatalf("expected drop, got %q", e.Type)
	default:
	}
}

func TestUnsubscribeIsIdempotentAndSafe(t *testing.T) {
	b := New()
	_, unsub := b.Subscribe(1)
	unsub()
	unsub()
	// Publishing after unsubscribe must not panic.
	b.Publish(Event{Type: "late"})
}
