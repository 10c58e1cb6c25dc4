package utils

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// DateOnly truncates t to midnight in its own location
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of whole calendar days from "from" to "to".
// Negative when "to" is earlier.
func DaysBetween(from, to time.Time) int {
	f := DateOnly(from)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, f.Location())
	return int(math.Round(t.Sub(f).Hours() / 24))
}

// DaysOverdue counts days past dueDate as of today, zero if not yet due
func DaysOverdue(dueDate, today time.Time) int {
	days := DaysBetween(dueDate, today)
	if days < 0 {
		return 0
	}
	return days
}

// IsDateOverdue checks if dueDate lies strictly before today
func IsDateOverdue(dueDate, today time.Time) bool {
	return DaysBetween(dueDate, today) > 0
}

// SameDay reports whether a and b fall on the same calendar date
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate parses a YYYY-MM-DD date in UTC
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// MaxZero clamps negative amounts to zero
func MaxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Percentage returns part/whole*100 rounded to two places, zero when whole is zero
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2)
}
