// Package core holds the pure domain types shared by the classifier,
// aggregator and ledger: receipts, amounts in cents, and the calendar-day
// date rules everything else compares with.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmountCents converts a decimal amount string captured from message
// text to cents with half-up rounding on the third decimal place.
//
// It accepts US-formatted magnitudes: an optional leading currency symbol,
// optional thousands commas, dot decimal separator. The result is always a
// positive magnitude; debit/credit sign is the caller's business.
//
// Examples:
//
//	ParseAmountCents("42.10")    -> 4210, nil
//	ParseAmountCents("$1,042.5") -> 104250, nil
//	ParseAmountCents("12.345")   -> 1234, nil (rounds down)
//	ParseAmountCents("12.346")   -> 1235, nil (rounds up)
func ParseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only magnitudes are accepted here
		return 0, ErrInvalidAmount
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
	// Normalize the fraction to three digits so we can round half-up on the
	// third one.
	for len(fracPart) < 3 {
		fracPart += "0"
	}
	fv, err := strconv.ParseInt(fracPart[:3], 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := iv*100 + fv/10
	if fv%10 >= 5 {
		cents++
	}
	if cents == 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseAmount is ParseAmountCents wrapped into an Amount value.
func ParseAmount(s string) (Amount, error) {
	cents, err := ParseAmountCents(s)
	if err != nil {
		return Amount{}, err
	}
	return Cents(cents), nil
}

// FormatCents renders cents as a plain decimal string ("-5.00", "42.10").
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// String renders the amount, or an empty string when absent.
func (a Amount) String() string {
	if !a.Valid {
		return ""
	}
	return FormatCents(a.Cents)
}
