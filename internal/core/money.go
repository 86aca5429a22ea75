// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. Text input goes through shopspring/decimal
// so that user-typed values and stored values share one parser.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var maxAmount = decimal.New(1, 13) // ten trillion, well inside int64 cents

// ParseAmount converts a user-typed decimal string to Money with half-up rounding.
//
// Accepted forms:
//
//	ParseAmount("12.34")    -> 1234 cents
//	ParseAmount("12,34")    -> 1234 cents
//	ParseAmount("1.234,56") -> 123456 cents (pt-BR thousands separator)
//	ParseAmount("1.0050")   -> 101 cents (rounds half up)
//
// A dot followed by exactly three digits and no comma ("1.234") reads as a
// thousands group in pt-BR and as a decimal point elsewhere, so it is
// rejected. Zero, negative and non-numeric input also return ErrInvalidAmount.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return Money{}, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else if thousandsGroup(s) {
		return Money{}, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return Money{}, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// thousandsGroup reports whether s ends in a dot followed by three digits.
func thousandsGroup(s string) bool {
	i := strings.LastIndexByte(s, '.')
	if i < 0 || len(s)-i-1 != 3 {
		return false
	}
	for _, r := range s[i+1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MoneyFromDecimal rounds d half-up to cents and rejects non-positive values.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	d = d.Round(2)
	if !d.IsPositive() || d.GreaterThanOrEqual(maxAmount) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: d.Shift(2).IntPart()}, nil
}

// Decimal returns the amount as a decimal with two places.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String returns the plain "1234.56" form used for storage and exports.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Float returns the value for display-only arithmetic such as chart widths.
// Note: use cents for sums to avoid floating-point drift.
func (m Money) Float() float64 {
	f, _ := m.Decimal().Float64()
	return f
}
