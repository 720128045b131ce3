package period

import (
	"fmt"
	"time"
)

// Period identifies one calendar month, the unit of ranking and funding
// computation. It is the sole partition key for persisted ranking data.
type Period struct {
	Month     string // "YYYY-MM"
	Year      int
	MonthName string
}

// Parse builds a Period from its "YYYY-MM" form.
func Parse(value string) (Period, error) {
	t, err := time.Parse("2006-01", value)
	if err != nil {
		return Period{}, fmt.Errorf("parse period %q: %w", value, err)
	}
	return FromTime(t), nil
}

// FromTime builds the Period containing t (interpreted in UTC).
func FromTime(t time.Time) Period {
	t = t.UTC()
	return Period{
		Month:     t.Format("2006-01"),
		Year:      t.Year(),
		MonthName: t.Month().String(),
	}
}

// Previous returns the calendar month before the current one. Service mode
// always settles the just-closed month.
func Previous(now time.Time) Period {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return FromTime(first.AddDate(0, 0, -1))
}

// Window returns the half-open UTC interval [start, end) covering the month.
func (p Period) Window() (time.Time, time.Time) {
	start, _ := time.Parse("2006-01", p.Month)
	return start, start.AddDate(0, 1, 0)
}

// Label is the human form used in notes and log lines, e.g. "July 2026".
func (p Period) Label() string {
	return fmt.Sprintf("%s %d", p.MonthName, p.Year)
}

func (p Period) String() string {
	return p.Month
}
