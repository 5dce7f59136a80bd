package comanda

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/comandaclub/comanda/pkg/enums/orderstatus"
)

// MockOrderRepo is a test mock for OrderRepo
type MockOrderRepo struct {
	orders     map[uuid.UUID]*Order
	nextNumber int

	CreateFunc     func(ctx context.Context, o *Order) error
	SaveFunc       func(ctx context.Context, o *Order) error
	GetFunc        func(ctx context.Context, id uuid.UUID) (*Order, error)
	ListFunc       func(ctx context.Context, filter OrderFilter) ([]*Order, error)
	NextNumberFunc func(ctx context.Context) (int, error)
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{
		orders: make(map[uuid.UUID]*Order),
	}
}

func (m *MockOrderRepo) Create(ctx context.Context, o *Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, o)
	}
	m.orders[o.ID] = o
	return nil
}

func (m *MockOrderRepo) Save(ctx context.Context, o *Order) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, o)
	}
	if _, exists := m.orders[o.ID]; !exists {
		return errors.New("order not found")
	}
	m.orders[o.ID] = o
	return nil
}

func (m *MockOrderRepo) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return m.orders[id], nil
}

func (m *MockOrderRepo) FindActiveByNumber(ctx context.Context, number int) (*Order, error) {
	for _, o := range m.orders {
		if o.Number == number && o.Status != orderstatus.Statuses.Delivered.Code() {
			return o, nil
		}
	}
	return nil, nil
}

func (m *MockOrderRepo) List(ctx context.Context, filter OrderFilter) ([]*Order, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	result := make([]*Order, 0, len(m.orders))
	for _, o := range m.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		result = append(result, o)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockOrderRepo) MaxNumber(ctx context.Context) (int, error) {
	max := 0
	for _, o := range m.orders {
		if o.Number > max {
			max = o.Number
		}
	}
	return max, nil
}

func (m *MockOrderRepo) NextNumber(ctx context.Context) (int, error) {
	if m.NextNumberFunc != nil {
		return m.NextNumberFunc(ctx)
	}
	m.nextNumber++
	return m.nextNumber, nil
}

func (m *MockOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.orders[id]; !exists {
		return errors.New("order not found")
	}
	delete(m.orders, id)
	return nil
}

func (m *MockOrderRepo) DeleteAll(ctx context.Context) (int64, error) {
	count := int64(len(m.orders))
	m.orders = make(map[uuid.UUID]*Order)
	return count, nil
}

// AddOrder is a helper to seed the mock repository
func (m *MockOrderRepo) AddOrder(o *Order) {
	m.orders[o.ID] = o
	if o.Number > m.nextNumber {
		m.nextNumber = o.Number
	}
}

// MockMenuRepo is a test mock for MenuRepo
type MockMenuRepo struct {
	items map[string]*MenuItem

	ListFunc func(ctx context.Context) ([]*MenuItem, error)
}

func NewMockMenuRepo() *MockMenuRepo {
	return &MockMenuRepo{
		items: make(map[string]*MenuItem),
	}
}

func (m *MockMenuRepo) Upsert(ctx context.Context, item *MenuItem) error {
	m.items[item.Name] = item
	return nil
}

func (m *MockMenuRepo) GetByName(ctx context.Context, name string) (*MenuItem, error) {
	return m.items[name], nil
}

func (m *MockMenuRepo) List(ctx context.Context) ([]*MenuItem, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	result := make([]*MenuItem, 0, len(m.items))
	for _, item := range m.items {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (m *MockMenuRepo) Delete(ctx context.Context, id uuid.UUID) error {
	for name, item := range m.items {
		if item.ID == id {
			delete(m.items, name)
			return nil
		}
	}
	return errors.New("menu item not found")
}

// AddItem is a helper to seed the mock repository
func (m *MockMenuRepo) AddItem(name string, unitValue int) {
	item := &MenuItem{Name: name, UnitValue: unitValue}
	item.BeforeCreate()
	m.items[name] = item
}

// MockReportRepo is a test mock for ReportRepo
type MockReportRepo struct {
	perItemCount map[string]int
	ordersServed int
}

func NewMockReportRepo() *MockReportRepo {
	return &MockReportRepo{
		perItemCount: make(map[string]int),
	}
}

func (m *MockReportRepo) RecordSale(ctx context.Context, items []LineItem) error {
	for _, item := range items {
		m.perItemCount[item.Name] += item.Quantity
	}
	return nil
}

func (m *MockReportRepo) ReverseSale(ctx context.Context, items []LineItem) error {
	for _, item := range items {
		m.perItemCount[item.Name] -= item.Quantity
	}
	return nil
}

func (m *MockReportRepo) PerItemCount(ctx context.Context) (map[string]int, error) {
	return m.perItemCount, nil
}

func (m *MockReportRepo) ClearReport(ctx context.Context) error {
	m.perItemCount = make(map[string]int)
	return nil
}

func (m *MockReportRepo) IncrementOrdersServed(ctx context.Context) error {
	m.ordersServed++
	return nil
}

func (m *MockReportRepo) DecrementOrdersServed(ctx context.Context) error {
	if m.ordersServed > 0 {
		m.ordersServed--
	}
	return nil
}

func (m *MockReportRepo) OrdersServed(ctx context.Context) (int, error) {
	return m.ordersServed, nil
}

// MockPublisher is a test mock for events.Publisher
type MockPublisher struct {
	PublishedEvents []PublishedEvent
}

type PublishedEvent struct {
	Topic string
	Data  []byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		PublishedEvents: make([]PublishedEvent, 0),
	}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, data []byte) error {
	m.PublishedEvents = append(m.PublishedEvents, PublishedEvent{Topic: topic, Data: data})
	return nil
}
