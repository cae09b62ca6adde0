package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is the envelope broadcast to websocket subscribers.
type Event struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub fans storage lifecycle events out to connected websocket clients.
// Slow clients are dropped rather than allowed to block publishers.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]chan Event
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]chan Event),
		logger:  logger,
	}
}

// Subscribe registers a new client and returns its id and event channel.
func (h *Hub) Subscribe() (string, <-chan Event) {
	id := uuid.New().String()
	ch := make(chan Event, 16)

	h.mu.Lock()
	h.clients[id] = ch
	h.mu.Unlock()

	return id, ch
}

// Unsubscribe removes a client and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	if ch, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish delivers an event to every subscriber without blocking.
func (h *Hub) Publish(event string, payload interface{}) {
	e := Event{Event: event, Data: payload, Timestamp: time.Now().UTC()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.clients {
		select {
		case ch <- e:
		default:
			h.logger.Warn("dropping event for slow subscriber", zap.String("client_id", id))
		}
	}
}
