package comanda

import (
	"testing"
)

func TestBuildReportView(t *testing.T) {
	catalog := Catalog{
		"PASTEL": 2,
		"CALDO":  1,
		"CAFE":   1,
	}

	tests := []struct {
		name           string
		perItemCount   map[string]int
		wantNames      []string
		wantGrandTotal int
	}{
		{
			name: "sortsByQuantityDescending",
			perItemCount: map[string]int{
				"CALDO":  5,
				"PASTEL": 2,
				"CAFE":   3,
			},
			wantNames:      []string{"CALDO", "CAFE", "PASTEL"},
			wantGrandTotal: 5*1 + 3*1 + 2*2,
		},
		{
			name: "excludesZeroAndNegativeCounts",
			perItemCount: map[string]int{
				"PASTEL": 3,
				"CALDO":  0,
				"CAFE":   -1,
			},
			wantNames:      []string{"PASTEL"},
			wantGrandTotal: 6,
		},
		{
			name: "tiesBreakByName",
			perItemCount: map[string]int{
				"CALDO":  2,
				"CAFE":   2,
				"PASTEL": 2,
			},
			wantNames:      []string{"CAFE", "CALDO", "PASTEL"},
			wantGrandTotal: 2 + 2 + 4,
		},
		{
			name: "unknownItemsPricedAtZero",
			perItemCount: map[string]int{
				"REFRIGERANTE": 4,
			},
			wantNames:      []string{"REFRIGERANTE"},
			wantGrandTotal: 0,
		},
		{
			name:           "emptyCounters",
			perItemCount:   map[string]int{},
			wantNames:      []string{},
			wantGrandTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, grandTotal := BuildReportView(tt.perItemCount, catalog)

			if len(entries) != len(tt.wantNames) {
				t.Fatalf("BuildReportView() returned %d entries, want %d", len(entries), len(tt.wantNames))
			}
			for i, e := range entries {
				if e.Name != tt.wantNames[i] {
					t.Errorf("entry %d name = %s, want %s", i, e.Name, tt.wantNames[i])
				}
				if e.LineTotal != e.QuantitySold*e.UnitValue {
					t.Errorf("entry %s line total = %d, want %d", e.Name, e.LineTotal, e.QuantitySold*e.UnitValue)
				}
			}
			if grandTotal != tt.wantGrandTotal {
				t.Errorf("grand total = %d, want %d", grandTotal, tt.wantGrandTotal)
			}
		})
	}
}
