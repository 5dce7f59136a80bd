package event

import "time"

const (
	OrdersTopic             = "comanda.orders"
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderUpdated       = "order.updated"
	EventOrderDeleted       = "order.deleted"
)

// OrderLine mirrors a line item inside an order event payload.
type OrderLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// OrderEvent is published to NATS on every order write. Consumers use it
// to keep their order state caches coherent and to drive live monitors.
type OrderEvent struct {
	EventType string `json:"event_type"`
	// Origin identifies the publishing instance so subscribers can
	// recognize their own events coming back off the topic.
	Origin         string      `json:"origin,omitempty"`
	OccurredAt     time.Time   `json:"occurred_at"`
	OrderID        string      `json:"order_id"`
	Number         int         `json:"number"`
	CustomerName   string      `json:"customer_name,omitempty"`
	Items          []OrderLine `json:"items,omitempty"`
	NewStatus      string      `json:"new_status,omitempty"`
	PreviousStatus string      `json:"previous_status,omitempty"`
	TotalUnits     int         `json:"total_units"`
	CreatedAt      time.Time   `json:"created_at"`
	ServedAt       *time.Time  `json:"served_at,omitempty"`
	ReadyAt        *time.Time  `json:"ready_at,omitempty"`
	DeliveredAt    *time.Time  `json:"delivered_at,omitempty"`
}
