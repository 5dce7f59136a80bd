package comanda

import (
	"context"

	"github.com/google/uuid"
)

type OrderFilter struct {
	Status *string
	Limit  int
	Offset int
}

type OrderRepo interface {
	Create(ctx context.Context, order *Order) error
	Save(ctx context.Context, order *Order) error
	Get(ctx context.Context, id OrderID) (*Order, error)
	// FindActiveByNumber returns the non-delivered order carrying the
	// given number, or nil when none exists.
	FindActiveByNumber(ctx context.Context, number int) (*Order, error)
	// List returns orders sorted by created_at ascending (oldest first).
	List(ctx context.Context, filter OrderFilter) ([]*Order, error)
	MaxNumber(ctx context.Context) (int, error)
	// NextNumber atomically reserves the next sequential order number.
	NextNumber(ctx context.Context) (int, error)
	Delete(ctx context.Context, id OrderID) error
	// DeleteAll removes every order and returns the removed count.
	DeleteAll(ctx context.Context) (int64, error)
}

type MenuRepo interface {
	// Upsert creates or overwrites the item carrying the same normalized
	// name; names never duplicate.
	Upsert(ctx context.Context, item *MenuItem) error
	GetByName(ctx context.Context, name string) (*MenuItem, error)
	// List returns menu items sorted by name ascending.
	List(ctx context.Context) ([]*MenuItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ReportRepo interface {
	// RecordSale folds a line item batch into the per-item counters as a
	// single atomic update.
	RecordSale(ctx context.Context, items []LineItem) error
	// ReverseSale subtracts a previously recorded batch.
	ReverseSale(ctx context.Context, items []LineItem) error
	PerItemCount(ctx context.Context) (map[string]int, error)
	// ClearReport empties the per-item counters; the orders-served
	// counter is left untouched.
	ClearReport(ctx context.Context) error
	IncrementOrdersServed(ctx context.Context) error
	// DecrementOrdersServed floors at zero.
	DecrementOrdersServed(ctx context.Context) error
	OrdersServed(ctx context.Context) (int, error)
}
