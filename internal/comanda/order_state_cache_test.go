package comanda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/comandaclub/comanda/pkg/enums/orderstatus"
	"github.com/comandaclub/comanda/pkg/event"
)

type recordingBroadcaster struct {
	events []*event.OrderEvent
}

func (b *recordingBroadcaster) Broadcast(evt *event.OrderEvent) {
	b.events = append(b.events, evt)
}

func TestOrderStateCacheSet(t *testing.T) {
	cache := NewOrderStateCache(nil, nil)

	o := &Order{ID: uuid.New(), Number: 1, Status: "open", CreatedAt: time.Now()}
	cache.Set(o)

	got := cache.Get(o.ID)
	if got == nil || got.ID != o.ID || got.Number != 1 {
		t.Fatalf("Get() = %+v, want cached order", got)
	}
	if got == o {
		t.Error("Get() returned the caller's pointer instead of a copy")
	}
	if got := cache.GetByStatus("open"); len(got) != 1 {
		t.Errorf("GetByStatus(open) returned %d orders, want 1", len(got))
	}
}

func TestOrderStateCacheCopiesOnReadAndWrite(t *testing.T) {
	cache := NewOrderStateCache(nil, nil)

	o := &Order{ID: uuid.New(), Number: 1, Status: "open", CreatedAt: time.Now(), Items: []LineItem{{Name: "PASTEL", Quantity: 1}}}
	cache.Set(o)

	// Mutating the originally stored pointer must not touch cached state.
	o.Status = "delivered"
	o.Items[0].Quantity = 99
	if got := cache.Get(o.ID); got.Status != "open" || got.Items[0].Quantity != 1 {
		t.Errorf("cache aliased the writer's order: %+v", got)
	}

	// Mutating a read result must not touch cached state either.
	read := cache.Get(o.ID)
	read.Status = "delivered"
	if got := cache.Get(o.ID); got.Status != "open" {
		t.Errorf("cache aliased a read result: status = %s", got.Status)
	}
}

func TestOrderStateCacheStatusReindex(t *testing.T) {
	cache := NewOrderStateCache(nil, nil)

	o := &Order{ID: uuid.New(), Number: 1, Status: "open", CreatedAt: time.Now()}
	cache.Set(o)

	// Handlers mutate their own copy in place and Set it again; the
	// index must still move the order out of its old bucket.
	got := cache.Get(o.ID)
	got.Status = "preparing"
	cache.Set(got)

	if got := cache.GetByStatus("open"); len(got) != 0 {
		t.Errorf("GetByStatus(open) returned %d orders after move, want 0", len(got))
	}
	if got := cache.GetByStatus("preparing"); len(got) != 1 {
		t.Errorf("GetByStatus(preparing) returned %d orders, want 1", len(got))
	}
	if cache.Count() != 1 {
		t.Errorf("Count() = %d, want 1", cache.Count())
	}
}

func TestOrderStateCacheOrdering(t *testing.T) {
	cache := NewOrderStateCache(nil, nil)
	base := time.Date(2026, 6, 13, 12, 0, 0, 0, time.UTC)

	// Inserted newest first; reads must come back oldest first.
	for i := 3; i >= 1; i-- {
		cache.Set(&Order{
			ID:        uuid.New(),
			Number:    i,
			Status:    "open",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	orders := cache.GetByStatus("open")
	if len(orders) != 3 {
		t.Fatalf("GetByStatus() returned %d orders, want 3", len(orders))
	}
	for i, o := range orders {
		if o.Number != i+1 {
			t.Errorf("position %d has number %d, want %d", i, o.Number, i+1)
		}
	}
}

func TestOrderStateCacheGetActive(t *testing.T) {
	cache := NewOrderStateCache(nil, nil)
	w := orderstatus.FourStage()
	now := time.Now()

	cache.Set(&Order{ID: uuid.New(), Number: 1, Status: "open", CreatedAt: now})
	cache.Set(&Order{ID: uuid.New(), Number: 2, Status: "preparing", CreatedAt: now.Add(time.Second)})
	cache.Set(&Order{ID: uuid.New(), Number: 3, Status: "delivered", CreatedAt: now.Add(2 * time.Second)})

	active := cache.GetActive(w)
	if len(active) != 2 {
		t.Fatalf("GetActive() returned %d orders, want 2", len(active))
	}
	for _, o := range active {
		if o.Status == "delivered" {
			t.Error("GetActive() included a delivered order")
		}
	}
}

func TestOrderStateCacheRemove(t *testing.T) {
	cache := NewOrderStateCache(nil, nil)
	b := &recordingBroadcaster{}
	cache.SetBroadcaster(b)

	o := &Order{ID: uuid.New(), Number: 1, Status: "open", CreatedAt: time.Now()}
	cache.Set(o)
	cache.Remove(o.ID)

	if cache.Get(o.ID) != nil {
		t.Error("order still present after Remove()")
	}
	if got := cache.GetByStatus("open"); len(got) != 0 {
		t.Errorf("GetByStatus(open) returned %d orders after Remove(), want 0", len(got))
	}

	last := b.events[len(b.events)-1]
	if last.EventType != event.EventOrderDeleted {
		t.Errorf("last broadcast = %s, want %s", last.EventType, event.EventOrderDeleted)
	}
}

func TestOrderStateCacheBroadcasts(t *testing.T) {
	cache := NewOrderStateCache(nil, nil)
	b := &recordingBroadcaster{}
	cache.SetBroadcaster(b)

	o := &Order{ID: uuid.New(), Number: 1, Status: "open", CreatedAt: time.Now()}
	cache.Set(o)

	if len(b.events) != 1 || b.events[0].EventType != event.EventOrderCreated {
		t.Fatalf("first Set broadcast %+v, want a created event", b.events)
	}

	updated := *o
	updated.Status = "preparing"
	cache.Set(&updated)

	if len(b.events) != 2 || b.events[1].EventType != event.EventOrderStatusChanged {
		t.Fatalf("second Set broadcast %+v, want a status change event", b.events)
	}
	if b.events[1].PreviousStatus != "open" {
		t.Errorf("previous status = %s, want open", b.events[1].PreviousStatus)
	}
}

func TestOrderStateCacheApplyEvent(t *testing.T) {
	cache := NewOrderStateCache(nil, nil)
	orderID := uuid.New()
	created := time.Now()

	cache.ApplyEvent(&event.OrderEvent{
		EventType:  event.EventOrderCreated,
		OrderID:    orderID.String(),
		Number:     7,
		NewStatus:  "open",
		Items:      []event.OrderLine{{Name: "PASTEL", Quantity: 2}},
		TotalUnits: 4,
		CreatedAt:  created,
	})

	o := cache.Get(orderID)
	if o == nil {
		t.Fatal("order not cached after created event")
	}
	if o.Number != 7 || o.Status != "open" || o.TotalUnits != 4 {
		t.Errorf("cached order = %+v", o)
	}
	if len(o.Items) != 1 || o.Items[0].Name != "PASTEL" {
		t.Errorf("cached items = %+v", o.Items)
	}

	cache.ApplyEvent(&event.OrderEvent{
		EventType: event.EventOrderDeleted,
		OrderID:   orderID.String(),
	})
	if cache.Get(orderID) != nil {
		t.Error("order still cached after deleted event")
	}

	// Malformed IDs are dropped, not fatal.
	cache.ApplyEvent(&event.OrderEvent{EventType: event.EventOrderCreated, OrderID: "not-a-uuid"})
	if cache.Count() != 0 {
		t.Errorf("Count() = %d after malformed event, want 0", cache.Count())
	}
}

func TestOrderStateCacheWarm(t *testing.T) {
	repo := NewMockOrderRepo()
	o := &Order{ID: uuid.New(), Number: 1, Status: "open", CreatedAt: time.Now()}
	repo.AddOrder(o)

	cache := NewOrderStateCache(repo, nil)
	if cache.Warmed() {
		t.Error("Warmed() = true before warm")
	}
	if err := cache.Warm(context.Background()); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}

	if !cache.Warmed() {
		t.Error("Warmed() = false after successful warm")
	}
	if cache.Count() != 1 {
		t.Errorf("Count() = %d after warm, want 1", cache.Count())
	}
	if cache.Get(o.ID) == nil {
		t.Error("warmed order not retrievable")
	}
}

func TestOrderStateCacheWarmFailure(t *testing.T) {
	repo := NewMockOrderRepo()
	repo.ListFunc = func(ctx context.Context, filter OrderFilter) ([]*Order, error) {
		return nil, errors.New("store unavailable")
	}

	cache := NewOrderStateCache(repo, nil)
	if err := cache.Warm(context.Background()); err != nil {
		t.Fatalf("Warm() error = %v, want nil on non-fatal failure", err)
	}
	if cache.Warmed() {
		t.Error("Warmed() = true after failed warm")
	}
}
