package comanda

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MenuItem is a sellable product. Names are unique within the menu and
// stored uppercase-normalized; prices are expressed in abstract units.
type MenuItem struct {
	ID        uuid.UUID `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	UnitValue int       `bson:"unit_value" json:"unit_value"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EnsureID generates a new UUID if ID is nil
func (m *MenuItem) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

// BeforeCreate sets up the menu item before persistence.
func (m *MenuItem) BeforeCreate() {
	m.EnsureID()
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

var nameCaser = cases.Upper(language.BrazilianPortuguese)

// NormalizeName collapses whitespace and uppercases a menu item name.
// Menu names carry Portuguese diacritics, hence the locale-aware caser.
func NormalizeName(name string) string {
	return nameCaser.String(strings.Join(strings.Fields(name), " "))
}

// Catalog maps normalized menu item names to their unit values.
type Catalog map[string]int

// CatalogFrom builds a price lookup from menu items.
func CatalogFrom(items []*MenuItem) Catalog {
	c := make(Catalog, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		c[it.Name] = it.UnitValue
	}
	return c
}
