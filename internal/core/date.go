package core

import (
	"strings"
	"time"
)

// DayLayout is the canonical date text format used on disk and on the wire
// for due dates and income dates: zero-padded day/month/year with ASCII
// slashes.
const DayLayout = "02/01/2006"

// ParseDay parses a DD/MM/YYYY date. Invalid calendar dates (31/02/2025)
// fail the parse.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayLayout, strings.TrimSpace(s))
}

// FormatDay renders a time as DD/MM/YYYY.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// NextMonth advances a DD/MM/YYYY date text by exactly one calendar month,
// clamping the day to the target month's length: 31/01/2025 -> 28/02/2025,
// 31/01/2024 -> 29/02/2024. Unparsable input is returned unchanged so a bad
// date on one record never aborts a batch.
func NextMonth(s string) string {
	t, err := ParseDay(s)
	if err != nil {
		return s
	}
	year, month, day := t.Date()
	month++
	if month > time.December {
		month = time.January
		year++
	}
	if last := daysIn(year, month); day > last {
		day = last
	}
	return FormatDay(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// daysIn returns the number of days in the given month; day zero of the
// following month normalizes to the last day of this one.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
