package monitor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/comandaclub/comanda/internal/comanda"
	"github.com/comandaclub/comanda/pkg/enums/orderstatus"
)

// SSEHandler streams order events to monitoring screens over
// Server-Sent Events. On connect the client gets a snapshot of the
// active orders, then every subsequent change as it happens.
type SSEHandler struct {
	hub      *Hub
	cache    *comanda.OrderStateCache
	workflow orderstatus.Workflow
	logger   apt.Logger
}

func NewSSEHandler(hub *Hub, cache *comanda.OrderStateCache, workflow orderstatus.Workflow, logger apt.Logger) *SSEHandler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &SSEHandler{
		hub:      hub,
		cache:    cache,
		workflow: workflow,
		logger:   logger,
	}
}

func (h *SSEHandler) RegisterRoutes(r chi.Router) {
	r.Get("/monitor/events", h.ServeHTTP)
}

func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	subscriberID := uuid.New().String()
	h.logger.Info("new SSE connection", "subscriber_id", subscriberID)

	eventChan := h.hub.Subscribe(subscriberID)
	defer h.hub.Unsubscribe(subscriberID)

	fmt.Fprintf(w, ": connected\n\n")
	fmt.Fprintf(w, "retry: 2000\n\n")

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	h.sendSnapshot(w)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", "subscriber_id", subscriberID)
			return

		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}

		case evt, ok := <-eventChan:
			if !ok {
				h.logger.Info("event channel closed", "subscriber_id", subscriberID)
				return
			}

			data, err := json.Marshal(evt)
			if err != nil {
				h.logger.Error("failed to marshal order event", "error", err)
				continue
			}
			sendSSEEvent(w, "order-update", data)
		}
	}
}

// sendSnapshot writes the current active orders so a freshly connected
// monitor does not start from a blank screen.
func (h *SSEHandler) sendSnapshot(w http.ResponseWriter) {
	if h.cache == nil {
		return
	}

	orders := h.cache.GetActive(h.workflow)
	data, err := json.Marshal(map[string]interface{}{
		"orders": orders,
	})
	if err != nil {
		h.logger.Error("failed to marshal orders snapshot", "error", err)
		return
	}
	sendSSEEvent(w, "snapshot", data)
}

func sendSSEEvent(w http.ResponseWriter, eventType string, data []byte) {
	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", data)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
