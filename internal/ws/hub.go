package ws

import (
	"encoding/json"
	"sync"

	"tillpay/internal/events"
)

// Client represents a single WebSocket connection with operator context.
type Client struct {
	OperatorID uint
	Role       string
	Send       chan []byte
	hub        *Hub
	mu         sync.Mutex
	closed     bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// Hub fans transaction lifecycle events out to connected UI clients. It
// drains the event bus in the background; a slow socket drops messages
// rather than blocking the pump.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Pump copies bus events into the hub until the subscription closes.
// Run it as a goroutine; unsubscribe via the bus to stop it.
func (h *Hub) Pump(ch <-chan events.Event) {
	for ev := range ch {
		h.broadcast(ev)
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *Hub) broadcast(ev events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
