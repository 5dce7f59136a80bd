package monitor

import (
	"sync"

	"github.com/appetiteclub/apt"

	"github.com/comandaclub/comanda/pkg/event"
)

// Hub fans order events out to the connected monitor streams. Each
// subscriber gets a buffered channel; a subscriber that cannot keep up
// loses events rather than blocking the broadcast.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan *event.OrderEvent
	logger      apt.Logger
}

func NewHub(logger apt.Logger) *Hub {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Hub{
		subscribers: make(map[string]chan *event.OrderEvent),
		logger:      logger,
	}
}

func (h *Hub) Subscribe(subscriberID string) <-chan *event.OrderEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan *event.OrderEvent, 100)
	h.subscribers[subscriberID] = ch

	h.logger.Infof("Monitor subscriber connected: %s (total: %d)", subscriberID, len(h.subscribers))
	return ch
}

func (h *Hub) Unsubscribe(subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[subscriberID]; ok {
		close(ch)
		delete(h.subscribers, subscriberID)
		h.logger.Infof("Monitor subscriber disconnected: %s (total: %d)", subscriberID, len(h.subscribers))
	}
}

// Broadcast sends the event to every subscriber without blocking.
func (h *Hub) Broadcast(evt *event.OrderEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- evt:
		default:
			h.logger.Infof("Monitor subscriber %s is slow, dropping event", id)
		}
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
