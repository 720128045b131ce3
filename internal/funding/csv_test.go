package funding

import (
	"strings"
	"testing"

	"economy-fund/internal/period"
)

func TestCSVRowQuoting(t *testing.T) {
	row := CSVRow(`Test "Merchant" with, commas`)
	if row != `"Test ""Merchant"" with, commas"` {
		t.Fatalf("unexpected quoting: %s", row)
	}
}

func TestCSVEmptyPool(t *testing.T) {
	p, _ := period.Parse("2026-07")
	out := CSV(&Pool{Period: p})

	lines := strings.Split(out, "\n")
	if len(lines) != 1 {
		t.Fatalf("empty pool should render header only, got %d lines", len(lines))
	}
	if lines[0] != `"Lightning Address","Amount (sats)","Note"` {
		t.Fatalf("unexpected header: %s", lines[0])
	}
}

func TestCSVRecords(t *testing.T) {
	p, _ := period.Parse("2026-07")
	pool := &Pool{
		Period: p,
		Allocations: []Allocation{
			{EconomyID: "eco-a", EconomyName: "A", OverallRank: 1, TotalFunding: 150000, LightningAddress: strPtr("a@ln.example")},
			{EconomyID: "eco-b", EconomyName: "B", OverallRank: 2, TotalFunding: 90000},
		},
	}

	lines := strings.Split(CSV(pool), "\n")
	if len(lines) != 2 {
		t.Fatalf("one record expected (unaddressed economy filtered), got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], `"a@ln.example","150000",`) {
		t.Fatalf("unexpected data row: %s", lines[1])
	}
	if !strings.Contains(lines[1], "July 2026") {
		t.Fatalf("note should carry the period label: %s", lines[1])
	}
}
