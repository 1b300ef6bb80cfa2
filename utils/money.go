package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnitPlaces is the currency's minor-unit precision. Rounding happens
// only here, at the final money boundary; intermediate rate multiplications
// stay unrounded.
const MinorUnitPlaces = 2

// RoundMoney rounds an amount half-up to the currency minor unit.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	// shopspring's Round is half away from zero, which is half-up for the
	// non-negative money amounts handled here.
	return d.Round(MinorUnitPlaces)
}

// ParseAmount parses a positive monetary amount from its string form.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %s", d)
	}
	return d, nil
}

// ParseRate parses a fractional percentage rate and enforces the [0,1) range.
func ParseRate(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate %q: %w", s, err)
	}
	if d.IsNegative() || d.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("rate must be in [0,1), got %s", d)
	}
	return d, nil
}

// ParseFee parses a non-negative flat fee from its string form.
func ParseFee(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid fee %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("fee must not be negative, got %s", d)
	}
	return d, nil
}
