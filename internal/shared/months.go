package shared

import (
	"fmt"
	"time"
)

// MonthLayout is the period key format used across both stores.
const MonthLayout = "2006-01"

// ParseMonth parses a YYYY-MM period key.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return t, nil
}

// FormatMonth renders a period key for t.
func FormatMonth(t time.Time) string {
	return t.Format(MonthLayout)
}

// MonthStart truncates t to the first day of its month in UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// TrailingMonths enumerates the n months ending at (and including) the month
// of ref, oldest first. Used to zero-fill trend series for months without
// orders.
func TrailingMonths(ref time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	months := make([]time.Time, 0, n)
	start := MonthStart(ref).AddDate(0, -(n - 1), 0)
	for i := 0; i < n; i++ {
		months = append(months, start.AddDate(0, i, 0))
	}
	return months
}

// MonthWindow returns the [start, end) bounds of the given month.
func MonthWindow(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
