package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places balances are kept to.
const MoneyPlaces int32 = 2

// RoundMoney rounds half away from zero to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// TruncateMoney drops anything below a cent. Used for accrued profit so that
// realized amounts never run ahead of what was earned.
func TruncateMoney(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(MoneyPlaces)
}

// ParseMoney parses a positive decimal amount, rejecting sub-cent precision.
func ParseMoney(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: field, Message: fmt.Sprintf("invalid amount %q", s)}
	}
	if err := ValidateAmount(field, d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount checks that d is strictly positive with at most two decimal places.
func ValidateAmount(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return &ValidationError{Field: field, Message: "amount must be greater than zero"}
	}
	if !d.Equal(RoundMoney(d)) {
		return &ValidationError{Field: field, Message: "amount must not have more than 2 decimal places"}
	}
	return nil
}

// FormatMoney renders d as "$1234.50".
func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(MoneyPlaces)
}
