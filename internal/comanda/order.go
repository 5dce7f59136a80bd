package comanda

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/comandaclub/comanda/pkg/enums/orderstatus"
	"github.com/comandaclub/comanda/pkg/event"
)

const CurrentOrderSchemaVersion = 1

type OrderID = uuid.UUID

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTerminalStatus    = errors.New("order already delivered")
)

// LineItem is a menu item reference embedded in an order. Names reference
// the menu catalog by normalized name; the link is not enforced, unknown
// names simply price at zero.
type LineItem struct {
	Name     string `bson:"name" json:"name"`
	Quantity int    `bson:"quantity" json:"quantity"`
}

// Order is a comanda: a customer's purchase moving through the kitchen
// workflow, identified by a sequential number.
type Order struct {
	ID           OrderID    `bson:"_id" json:"id"`
	Number       int        `bson:"number" json:"number"`
	CustomerName string     `bson:"customer_name,omitempty" json:"customer_name,omitempty"`
	Items        []LineItem `bson:"items" json:"items"`
	Status       string     `bson:"status" json:"status"`
	TotalUnits   int        `bson:"total_units" json:"total_units"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	ServedAt    *time.Time `bson:"served_at,omitempty" json:"served_at,omitempty"`
	ReadyAt     *time.Time `bson:"ready_at,omitempty" json:"ready_at,omitempty"`
	DeliveredAt *time.Time `bson:"delivered_at,omitempty" json:"delivered_at,omitempty"`

	ModelVersion int `bson:"model_version" json:"model_version"`
}

// EnsureID generates a new UUID if ID is nil
func (o *Order) EnsureID() {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
}

// BeforeCreate sets up the order before persistence.
func (o *Order) BeforeCreate() {
	o.EnsureID()
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = orderstatus.Statuses.Open.Code()
	}
	if o.ModelVersion == 0 {
		o.ModelVersion = CurrentOrderSchemaVersion
	}
}

// Advance moves the order to newStatus, which must be the immediate
// successor of the current status in the given workflow. Timestamps are
// stamped on first entry into each stage; ServedAt in particular is set
// exactly once, when the order first starts being prepared.
func (o *Order) Advance(w orderstatus.Workflow, newStatus string, now time.Time) error {
	if w.IsTerminal(o.Status) {
		return ErrTerminalStatus
	}
	if !w.CanTransition(o.Status, newStatus) {
		return ErrInvalidTransition
	}

	o.Status = newStatus
	o.UpdatedAt = now

	switch newStatus {
	case orderstatus.Statuses.Preparing.Code():
		if o.ServedAt == nil {
			t := now
			o.ServedAt = &t
		}
	case orderstatus.Statuses.Ready.Code():
		if o.ReadyAt == nil {
			t := now
			o.ReadyAt = &t
		}
	case orderstatus.Statuses.Delivered.Code():
		if o.DeliveredAt == nil {
			t := now
			o.DeliveredAt = &t
		}
	}

	return nil
}

// Clone returns a deep copy of the order. The cache stores and hands
// out clones so callers can mutate their view without aliasing cached
// state.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = make([]LineItem, len(o.Items))
	copy(c.Items, o.Items)
	if o.ServedAt != nil {
		t := *o.ServedAt
		c.ServedAt = &t
	}
	if o.ReadyAt != nil {
		t := *o.ReadyAt
		c.ReadyAt = &t
	}
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		c.DeliveredAt = &t
	}
	return &c
}

// NewOrderEvent builds the NATS payload for an order write.
func NewOrderEvent(eventType string, o *Order, previousStatus string) *event.OrderEvent {
	items := make([]event.OrderLine, len(o.Items))
	for i, it := range o.Items {
		items[i] = event.OrderLine{Name: it.Name, Quantity: it.Quantity}
	}

	return &event.OrderEvent{
		EventType:      eventType,
		OccurredAt:     time.Now(),
		OrderID:        o.ID.String(),
		Number:         o.Number,
		CustomerName:   o.CustomerName,
		Items:          items,
		NewStatus:      o.Status,
		PreviousStatus: previousStatus,
		TotalUnits:     o.TotalUnits,
		CreatedAt:      o.CreatedAt,
		ServedAt:       o.ServedAt,
		ReadyAt:        o.ReadyAt,
		DeliveredAt:    o.DeliveredAt,
	}
}
