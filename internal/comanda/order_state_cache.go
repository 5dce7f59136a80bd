package comanda

import (
	"context"
	"sort"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/comandaclub/comanda/pkg/enums/orderstatus"
	"github.com/comandaclub/comanda/pkg/event"
)

// Broadcaster fans out order events to live subscribers (the SSE monitor
// hub). The cache calls it on every applied change.
type Broadcaster interface {
	Broadcast(evt *event.OrderEvent)
}

// OrderStateCache maintains an in-memory view of orders indexed by
// status, so status-filtered kitchen and monitor queries never hit the
// store on the hot path.
type OrderStateCache struct {
	mu sync.RWMutex
	// orders indexed by order id
	orders map[uuid.UUID]*Order
	// index by status code -> order id
	byStatus map[string][]uuid.UUID

	repo   OrderRepo
	logger apt.Logger
	warmed bool

	broadcaster Broadcaster
}

// NewOrderStateCache creates a new order cache.
func NewOrderStateCache(repo OrderRepo, logger apt.Logger) *OrderStateCache {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderStateCache{
		orders:   make(map[uuid.UUID]*Order),
		byStatus: make(map[string][]uuid.UUID),
		repo:     repo,
		logger:   logger,
	}
}

// SetBroadcaster sets the live-event fanout (called after initialization).
func (c *OrderStateCache) SetBroadcaster(b Broadcaster) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broadcaster = b
}

// Warm loads orders from the repository. Failures leave the cache empty
// and are not fatal; consumers fall back to the repository.
func (c *OrderStateCache) Warm(ctx context.Context) error {
	if c.repo == nil {
		c.logger.Info("no repository configured, cache remains empty")
		return nil
	}

	orders, err := c.repo.List(ctx, OrderFilter{})
	if err != nil {
		c.logger.Info("failed to warm order cache, cache remains empty", "error", err)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, o := range orders {
		c.setLocked(o, false)
	}
	c.warmed = true

	c.logger.Info("order cache warmed", "count", len(orders))
	return nil
}

// Warmed reports whether the initial load completed. Until it has,
// readers should treat the cache as unreliable and hit the repository.
func (c *OrderStateCache) Warmed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.warmed
}

// Set updates or adds an order and broadcasts the change.
func (c *OrderStateCache) Set(o *Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(o, true)
}

func (c *OrderStateCache) setLocked(o *Order, broadcast bool) {
	if o == nil {
		return
	}
	// Store a clone: handlers keep mutating their own copy, and readers
	// may hold results across the lock. Cached orders are never aliased.
	o = o.Clone()

	var previousStatus string
	if old, exists := c.orders[o.ID]; exists {
		previousStatus = old.Status
		c.removeFromIndex(old.Status, o.ID)
	}

	c.orders[o.ID] = o
	c.byStatus[o.Status] = append(c.byStatus[o.Status], o.ID)

	if broadcast && c.broadcaster != nil {
		evt := NewOrderEvent(event.EventOrderStatusChanged, o, previousStatus)
		if previousStatus == "" {
			evt.EventType = event.EventOrderCreated
		}
		c.broadcaster.Broadcast(evt)
	}
}

// ApplyEvent folds a NATS order event into the cache. Events are full
// snapshots of the order, so out-of-order delivery converges on the last
// writer.
func (c *OrderStateCache) ApplyEvent(evt *event.OrderEvent) {
	if evt == nil {
		return
	}

	orderID, err := uuid.Parse(evt.OrderID)
	if err != nil {
		c.logger.Error("invalid order id in event", "order_id", evt.OrderID)
		return
	}

	if evt.EventType == event.EventOrderDeleted {
		c.Remove(orderID)
		return
	}

	items := make([]LineItem, len(evt.Items))
	for i, it := range evt.Items {
		items[i] = LineItem{Name: it.Name, Quantity: it.Quantity}
	}

	o := &Order{
		ID:           orderID,
		Number:       evt.Number,
		CustomerName: evt.CustomerName,
		Items:        items,
		Status:       evt.NewStatus,
		TotalUnits:   evt.TotalUnits,
		CreatedAt:    evt.CreatedAt,
		UpdatedAt:    evt.OccurredAt,
		ServedAt:     evt.ServedAt,
		ReadyAt:      evt.ReadyAt,
		DeliveredAt:  evt.DeliveredAt,
	}

	c.Set(o)
}

// Get retrieves a copy of an order by ID, or nil.
func (c *OrderStateCache) Get(orderID uuid.UUID) *Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.orders[orderID].Clone()
}

// GetByStatus returns orders carrying the given status, oldest first
// (first-in-first-served ordering for the kitchen).
func (c *OrderStateCache) GetByStatus(status string) []*Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := c.byStatus[status]
	result := make([]*Order, 0, len(ids))
	for _, id := range ids {
		if o := c.orders[id]; o != nil {
			result = append(result, o.Clone())
		}
	}
	sortByCreation(result)
	return result
}

// GetAll returns all cached orders, oldest first.
func (c *OrderStateCache) GetAll() []*Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*Order, 0, len(c.orders))
	for _, o := range c.orders {
		result = append(result, o.Clone())
	}
	sortByCreation(result)
	return result
}

// GetActive returns all orders that have not reached a terminal stage,
// oldest first.
func (c *OrderStateCache) GetActive(w orderstatus.Workflow) []*Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*Order, 0, len(c.orders))
	for _, o := range c.orders {
		if w.IsTerminal(o.Status) {
			continue
		}
		result = append(result, o.Clone())
	}
	sortByCreation(result)
	return result
}

// Remove deletes an order from the cache and broadcasts the deletion.
func (c *OrderStateCache) Remove(orderID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	o := c.orders[orderID]
	if o == nil {
		return
	}

	c.removeFromIndex(o.Status, orderID)
	delete(c.orders, orderID)

	if c.broadcaster != nil {
		c.broadcaster.Broadcast(NewOrderEvent(event.EventOrderDeleted, o, o.Status))
	}
}

// Clear drops every cached order without broadcasting. Used by the bulk
// reset flow, which announces itself separately.
func (c *OrderStateCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders = make(map[uuid.UUID]*Order)
	c.byStatus = make(map[string][]uuid.UUID)
}

// Count returns the number of orders in the cache
func (c *OrderStateCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.orders)
}

func (c *OrderStateCache) removeFromIndex(status string, orderID uuid.UUID) {
	ids := c.byStatus[status]
	for i, id := range ids {
		if id == orderID {
			c.byStatus[status] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

func sortByCreation(orders []*Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].Number < orders[j].Number
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}
