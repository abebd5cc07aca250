package money

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Tolerance is the maximum difference at which two amounts are considered equal.
// Amounts are stored as decimals with two places, so anything under a centavo
// is rounding noise.
const Tolerance = 0.01

// Equal reports whether two amounts match within Tolerance.
func Equal(a, b float64) bool {
	return math.Abs(a-b) < Tolerance
}

// Round rounds an amount to two decimal places.
func Round(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// Format renders an amount as Lempiras with thousand separators.
// Example: 1500.5 -> "L 1,500.50"
func Format(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	whole := int64(amount)
	cents := int64(math.Round((amount - float64(whole)) * 100))
	if cents == 100 {
		whole++
		cents = 0
	}

	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%sL %s.%02d", sign, b.String(), cents)
}

// ClampFloor subtracts delta from balance without going below zero.
func ClampFloor(balance, delta float64) float64 {
	result := balance - delta
	if result < 0 {
		return 0
	}
	return Round(result)
}

// StartOfDay truncates a time to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of whole calendar days from `from` to `to`.
// Both ends are truncated to the start of day first, so partial days never count.
func DaysBetween(from, to time.Time) int {
	return int(StartOfDay(to).Sub(StartOfDay(from)).Hours() / 24)
}

// DayKey returns the local calendar date of a time as "2006-01-02", used for
// bucketing records by day.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
