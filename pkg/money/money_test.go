package money

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEqual_WithinTolerance(t *testing.T) {
	assert.True(t, Equal(100.00, 100.005))
	assert.True(t, Equal(100.005, 100.00))
	assert.True(t, Equal(0, 0.009))
	assert.False(t, Equal(100.00, 100.01))
	assert.False(t, Equal(999.99, 1000.00))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1500.50, Round(1500.499999))
	assert.Equal(t, 0.1, Round(0.1+0.2-0.2))
	assert.Equal(t, -25.68, Round(-25.675))
}

func TestFormat(t *testing.T) {
	cases := []struct {
		amount   float64
		expected string
	}{
		{0, "L 0.00"},
		{5, "L 5.00"},
		{1500.5, "L 1,500.50"},
		{999999.99, "L 999,999.99"},
		{1234567.8, "L 1,234,567.80"},
		{-450.25, "-L 450.25"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, Format(tc.amount))
	}
}

func TestClampFloor(t *testing.T) {
	assert.Equal(t, 600.0, ClampFloor(1000, 400))
	assert.Equal(t, 0.0, ClampFloor(100, 400))
	assert.Equal(t, 0.0, ClampFloor(400, 400))
}

func TestDaysBetween_TruncatesToCalendarDays(t *testing.T) {
	from := time.Date(2026, 8, 1, 23, 59, 0, 0, time.Local)
	to := time.Date(2026, 8, 2, 0, 1, 0, 0, time.Local)
	assert.Equal(t, 1, DaysBetween(from, to))

	from = time.Date(2026, 8, 1, 0, 1, 0, 0, time.Local)
	to = time.Date(2026, 8, 1, 23, 59, 0, 0, time.Local)
	assert.Equal(t, 0, DaysBetween(from, to))

	from = time.Date(2026, 8, 1, 12, 0, 0, 0, time.Local)
	to = time.Date(2026, 8, 15, 12, 0, 0, 0, time.Local)
	assert.Equal(t, 14, DaysBetween(from, to))
}

func TestDayKey(t *testing.T) {
	assert.Equal(t, "2026-08-20", DayKey(time.Date(2026, 8, 20, 15, 30, 0, 0, time.Local)))
}
