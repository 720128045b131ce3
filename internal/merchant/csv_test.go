package merchant

import (
	"strings"
	"testing"

	"economy-fund/internal/period"
)

func TestCSVEmptyPool(t *testing.T) {
	p, _ := period.Parse("2026-07")
	out := CSV(&Pool{Period: p})

	lines := strings.Split(out, "\n")
	if len(lines) != 1 {
		t.Fatalf("empty pool should render header only, got %d lines", len(lines))
	}
	want := `"Lightning Address","Amount (sats)","Merchant Name","Local Name","Provider","Economy","Economy Rank","Video Appearances","Note"`
	if lines[0] != want {
		t.Fatalf("unexpected header: %s", lines[0])
	}
}

func TestCSVQuotesSpecialCharacters(t *testing.T) {
	p, _ := period.Parse("2026-07")
	pool := &Pool{
		Period: p,
		Economies: []Breakdown{
			{
				EconomyID:   "eco-a",
				EconomyName: "Economy A",
				EconomyRank: 1,
				Payments: []Payment{
					{
						MerchantID:       "m1",
						Name:             `Test "Merchant" with, commas`,
						LocalName:        "Local",
						Provider:         "wos",
						LightningAddress: "m1@ln.example",
						AmountSats:       42000,
						VideoAppearances: 3,
					},
				},
			},
		},
	}

	lines := strings.Split(CSV(pool), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], `"Test ""Merchant"" with, commas"`) {
		t.Fatalf("quotes not doubled: %s", lines[1])
	}
	if !strings.HasPrefix(lines[1], `"m1@ln.example","42000",`) {
		t.Fatalf("unexpected row prefix: %s", lines[1])
	}
	if !strings.Contains(lines[1], `"1","3",`) {
		t.Fatalf("rank and appearances missing: %s", lines[1])
	}
}
