package events

import (
	"testing"
	"time"
)

func TestPublishFansOut(t *testing.T) {
	b := NewBus()
	_, ch1 := b.Subscribe(4)
	_, ch2 := b.Subscribe(4)

	b.Publish(Event{Type: TransactionCompleted})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Type != TransactionCompleted {
				t.Errorf("subscriber %d got %s", i, ev.Type)
			}
			if ev.At.IsZero() {
				t.Errorf("subscriber %d: timestamp not stamped", i)
			}
		default:
			t.Errorf("subscriber %d received nothing", i)
		}
	}
}

func TestPublishKeepsCallerTimestamp(t *testing.T) {
	b := NewBus()
	_, ch := b.Subscribe(1)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b.Publish(Event{Type: TransactionFailed, At: at})
	ev := <-ch
	if !ev.At.Equal(at) {
		t.Fatalf("timestamp rewritten: %v", ev.At)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus()
	id, ch := b.Subscribe(1)
	b.Unsubscribe(id)
	if _, open := <-ch; open {
		t.Fatal("channel should be closed after unsubscribe")
	}
	// Publishing after unsubscribe must not panic.
	b.Publish(Event{Type: TransactionCompleted})
}

// A full subscriber buffer drops events instead of blocking the publisher.
func TestSlowSubscriberDropsEvents(t *testing.T) {
	b := NewBus()
	_, ch := b.Subscribe(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 3; i++ {
			b.Publish(Event{Type: CardReentryRequired})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	if n := len(ch); n != 1 {
		t.Fatalf("buffered %d events, want 1", n)
	}
}

func TestCloseIsTerminal(t *testing.T) {
	b := NewBus()
	_, ch := b.Subscribe(1)
	b.Close()
	if _, open := <-ch; open {
		t.Fatal("close should close subscriber channels")
	}
	b.Publish(Event{Type: TransactionCompleted}) // no-op, no panic
	b.Close()                                    // idempotent

	id, late := b.Subscribe(1)
	if id != -1 {
		t.Fatalf("subscribe after close returned id %d", id)
	}
	if _, open := <-late; open {
		t.Fatal("late subscriber channel should arrive closed")
	}
}
