package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	got, err := ParseMonth("2026-03")
	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.March, got.Month())

	_, err = ParseMonth("03-2026")
	assert.Error(t, err)
	_, err = ParseMonth("")
	assert.Error(t, err)
}

func TestTrailingMonths(t *testing.T) {
	ref := time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)
	months := TrailingMonths(ref, 6)
	require.Len(t, months, 6)
	assert.Equal(t, "2026-03", FormatMonth(months[0]))
	assert.Equal(t, "2026-08", FormatMonth(months[5]))

	assert.Nil(t, TrailingMonths(ref, 0))
}

func TestMonthWindowYearBoundary(t *testing.T) {
	start, end := MonthWindow(2025, time.December)
	assert.Equal(t, "2025-12", FormatMonth(start))
	assert.Equal(t, "2026-01", FormatMonth(end))
}
