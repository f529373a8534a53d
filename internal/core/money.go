// Package core holds the domain model of the financial ledger: expenses,
// debts, incomes, the derived budget summary, and the date arithmetic used
// by the month roll.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in cents. All arithmetic happens on cents; the decimal
// form only exists at the JSON boundary.
type Money struct {
	Cents int64
}

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot (12.34) and comma (12,34)
// separators are accepted, as is a leading minus sign.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.346") -> 1235, nil (rounds up)
//	ParseDecimalToCents("-3.5")   -> -350, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if intPart == "0" && fracPart == "" && len(parts) == 2 {
		return 0, ErrInvalidAmount
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; half-up rounding on the third
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return cents, nil
}

// String formats the amount as a plain decimal ("12.34", "12", "-0.5").
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := cents / 100
	rem := cents % 100
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(strconv.FormatInt(whole, 10))
	switch {
	case rem == 0:
	case rem%10 == 0:
		b.WriteString("." + strconv.FormatInt(rem/10, 10))
	case rem < 10:
		b.WriteString(".0" + strconv.FormatInt(rem, 10))
	default:
		b.WriteString("." + strconv.FormatInt(rem, 10))
	}
	return b.String()
}

// MarshalJSON writes the amount as a JSON number in decimal units, matching
// the on-disk and on-the-wire snapshot format.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string, or null. Missing or
// non-numeric input coerces to zero instead of failing: snapshots arrive from
// imports and hand-edited files, and one bad amount must not poison the
// whole ledger.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		m.Cents = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		m.Cents = 0
		return nil
	}
	m.Cents = cents
	return nil
}

// Units returns the amount in decimal units as a float64 for display.
// Use cents for calculations to avoid floating-point drift.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}
