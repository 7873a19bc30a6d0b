package events

import (
	"sync"
	"time"

	"tillpay/internal/models"
	"tillpay/internal/provider"
)

type Type string

const (
	TransactionCompleted Type = "transaction_completed"
	TransactionFailed    Type = "transaction_failed"
	CardReentryRequired  Type = "card_reentry_required"
)

// Event is a fire-and-forget lifecycle notification for the UI layer. Core
// state is already persisted before an event is published, so a dropped
// event is never the only record of an outcome.
type Event struct {
	Type        Type                      `json:"type"`
	Transaction *models.QueuedTransaction `json:"transaction,omitempty"`
	Result      *provider.ChargeResponse  `json:"result,omitempty"`
	Error       string                    `json:"error,omitempty"`
	At          time.Time                 `json:"at"`
}

// Bus fans events out to subscriber channels with a non-blocking send: a
// slow subscriber drops events rather than stalling a charge.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	next   int
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a buffered channel. Unsubscribe with the returned id.
func (b *Bus) Subscribe(buffer int) (int, <-chan Event) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return -1, ch
	}
	id := b.next
	b.next++
	b.subs[id] = ch
	return id, ch
}

func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close shuts every subscriber channel; further publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
