package rules

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jinzhu/now"
)

// Date predicates compare the message's received timestamp against a parsed
// operand. All comparisons happen in UTC: stored timestamps are UTC and
// parsed operands are converted before comparing.

// LessThanDaysAgo reports whether receivedAt is strictly more recent than
// the cutoff nowAt minus days.
func LessThanDaysAgo(receivedAt, nowAt time.Time, days int) bool {
	cutoff := nowAt.Add(-time.Duration(days) * 24 * time.Hour)
	return receivedAt.After(cutoff)
}

// GreaterThanDaysAgo reports whether receivedAt is strictly older than the
// cutoff nowAt minus days.
func GreaterThanDaysAgo(receivedAt, nowAt time.Time, days int) bool {
	cutoff := nowAt.Add(-time.Duration(days) * 24 * time.Hour)
	return receivedAt.Before(cutoff)
}

// SameCalendarDate reports whether both instants fall on the same UTC
// calendar date, ignoring time of day.
func SameCalendarDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// parseDayCount parses the operand of the day-window predicates.
func parseDayCount(operand string) (int, error) {
	days, err := strconv.Atoi(operand)
	if err != nil {
		return 0, fmt.Errorf("day count %q is not an integer: %w", operand, err)
	}
	return days, nil
}

// dateOperandParser interprets operands without an explicit zone as UTC,
// keeping every comparison in the canonical representation.
var dateOperandParser = &now.Config{
	TimeLocation: time.UTC,
	TimeFormats:  now.TimeFormats,
}

// parseDateOperand parses a date or timestamp operand in any of the common
// layouts ("2024-01-15", "15 Jan 2024", RFC 3339, ...) and normalizes it
// to UTC.
func parseDateOperand(operand string) (time.Time, error) {
	parsed, err := dateOperandParser.Parse(operand)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse date %q: %w", operand, err)
	}
	return parsed.UTC(), nil
}
