// Package core holds the ledger domain: the transaction entity, amount
// parsing, date-range filtering and the pure aggregation functions.
//
// Amounts are decimal.Decimal throughout. Summing transactions with binary
// floats drifts once totals feed financial display, so every accumulator in
// this package is exact.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-supplied amount string into a Decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Negative values are rejected: the sign of a transaction is carried by its
// Type, never encoded in the number.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-5")    -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmountIT renders an amount with the Italian decimal comma,
// always with two decimal places. Used for export rows and display.
func FormatAmountIT(d decimal.Decimal) string {
	return strings.ReplaceAll(d.StringFixed(2), ".", ",")
}
