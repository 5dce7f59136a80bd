package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/comandaclub/comanda/internal/comanda"
	"github.com/comandaclub/comanda/pkg/event"
)

// OrderEventSubscriber keeps the in-memory order state in step with
// events other instances publish on the orders topic. Events carrying
// this instance's own origin are dropped: the handler already applied
// and broadcast those at write time, and replaying them would reach
// the monitors twice.
type OrderEventSubscriber struct {
	subscriber events.Subscriber
	cache      *comanda.OrderStateCache
	origin     string
	logger     apt.Logger
}

func NewOrderEventSubscriber(
	subscriber events.Subscriber,
	cache *comanda.OrderStateCache,
	origin string,
	logger apt.Logger,
) *OrderEventSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderEventSubscriber{
		subscriber: subscriber,
		cache:      cache,
		origin:     origin,
		logger:     logger,
	}
}

func (s *OrderEventSubscriber) Start(ctx context.Context) error {
	s.logger.Infof("Starting OrderEventSubscriber for topic: %s", event.OrdersTopic)

	if err := s.subscriber.Subscribe(ctx, event.OrdersTopic, s.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.OrdersTopic, err)
	}

	return nil
}

func (s *OrderEventSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.OrderEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Errorf("Failed to unmarshal order event: %v", err)
		return nil
	}

	if s.origin != "" && evt.Origin == s.origin {
		return nil
	}

	switch evt.EventType {
	case event.EventOrderCreated,
		event.EventOrderStatusChanged,
		event.EventOrderUpdated,
		event.EventOrderDeleted:
		if s.cache != nil {
			s.cache.ApplyEvent(&evt)
		}
	default:
		s.logger.Infof("Unknown event type: %s", evt.EventType)
	}

	return nil
}
