package comanda

import (
	"sort"
)

// ReportEntry is one row of the sales report view.
type ReportEntry struct {
	Name         string `json:"name"`
	QuantitySold int    `json:"quantity_sold"`
	UnitValue    int    `json:"unit_value"`
	LineTotal    int    `json:"line_total"`
}

// BuildReportView turns the cumulative per-item counters into display
// rows priced against the current catalog, sorted by quantity sold
// descending (names ascending on ties). Zero and negative counters are
// excluded. The second return is the grand total over all rows.
func BuildReportView(perItemCount map[string]int, catalog Catalog) ([]ReportEntry, int) {
	entries := make([]ReportEntry, 0, len(perItemCount))
	grandTotal := 0

	for name, sold := range perItemCount {
		if sold <= 0 {
			continue
		}
		unitValue := catalog[name]
		lineTotal := sold * unitValue
		entries = append(entries, ReportEntry{
			Name:         name,
			QuantitySold: sold,
			UnitValue:    unitValue,
			LineTotal:    lineTotal,
		})
		grandTotal += lineTotal
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].QuantitySold != entries[j].QuantitySold {
			return entries[i].QuantitySold > entries[j].QuantitySold
		}
		return entries[i].Name < entries[j].Name
	})

	return entries, grandTotal
}
