package period

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	p, err := Parse("2026-07")
	if err != nil {
		t.Fatalf("parse should succeed: %v", err)
	}
	if p.Month != "2026-07" || p.Year != 2026 || p.MonthName != "July" {
		t.Fatalf("unexpected period: %+v", p)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, value := range []string{"", "2026", "2026-13", "07-2026"} {
		if _, err := Parse(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

func TestWindow(t *testing.T) {
	p, _ := Parse("2026-02")
	start, end := p.Window()
	if !start.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window start: %s", start)
	}
	if !end.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window end: %s", end)
	}
}

func TestPrevious(t *testing.T) {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	p := Previous(now)
	if p.Month != "2025-12" {
		t.Fatalf("previous of 2026-01 should be 2025-12, got %s", p.Month)
	}
}

func TestLabel(t *testing.T) {
	p, _ := Parse("2026-07")
	if p.Label() != "July 2026" {
		t.Fatalf("unexpected label %q", p.Label())
	}
}
