package comanda

import (
	"sync"
)

// Builder accumulates line items for an in-progress order before it is
// submitted. Adding an existing name bumps its quantity; removing
// decrements and drops the line when it reaches zero.
type Builder struct {
	mu    sync.Mutex
	items []LineItem
}

func NewBuilder() *Builder {
	return &Builder{}
}

// AddLineItem adds one unit of the named item. The name is normalized
// first, so casing and spacing differences address the same line.
func (b *Builder) AddLineItem(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	name = NormalizeName(name)
	if name == "" {
		return
	}
	for i := range b.items {
		if b.items[i].Name == name {
			b.items[i].Quantity++
			return
		}
	}
	b.items = append(b.items, LineItem{Name: name, Quantity: 1})
}

// RemoveLineItem removes one unit at the given index, dropping the line
// entirely when its quantity reaches zero. Out-of-range indexes are a
// no-op.
func (b *Builder) RemoveLineItem(index int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= len(b.items) {
		return
	}
	if b.items[index].Quantity > 1 {
		b.items[index].Quantity--
		return
	}
	b.items = append(b.items[:index], b.items[index+1:]...)
}

// Items returns a copy of the working set.
func (b *Builder) Items() []LineItem {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]LineItem, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Clear empties the working set.
func (b *Builder) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
}

// MergeLineItems normalizes a submitted item list: names are normalized,
// duplicate names merge their quantities, and empty names or non-positive
// quantities are dropped. Order of first appearance is preserved.
func MergeLineItems(items []LineItem) []LineItem {
	var merged []LineItem
	index := make(map[string]int)

	for _, it := range items {
		name := NormalizeName(it.Name)
		if name == "" || it.Quantity < 1 {
			continue
		}
		if i, ok := index[name]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		index[name] = len(merged)
		merged = append(merged, LineItem{Name: name, Quantity: it.Quantity})
	}

	return merged
}

// ComputeTotal prices a line item list against the catalog. Items with no
// catalog match contribute zero.
func ComputeTotal(items []LineItem, catalog Catalog) int {
	total := 0
	for _, it := range items {
		total += it.Quantity * catalog[it.Name]
	}
	return total
}
