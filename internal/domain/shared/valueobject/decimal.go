// Package valueobject holds the rounding rules shared by every monetary and
// quantity computation in the warehouse domain.
package valueobject

import (
	"github.com/shopspring/decimal"
)

const (
	// MoneyScale is the number of decimal places kept for money amounts
	MoneyScale int32 = 2
	// QuantityScale is the number of decimal places kept for stock quantities
	QuantityScale int32 = 3
)

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero to 2 decimal places
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// RoundQuantity rounds half away from zero to 3 decimal places
func RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityScale)
}

// NonNegative clamps negative values to zero
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ApplyPercentDiscount returns d·(1 − percent/100)
func ApplyPercentDiscount(d, percent decimal.Decimal) decimal.Decimal {
	if percent.IsZero() {
		return d
	}
	return d.Mul(decimal.NewFromInt(1).Sub(percent.Div(hundred)))
}

// IsPercent reports whether p lies within [0, 100]
func IsPercent(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}

// IsWhole reports whether d has no fractional part
func IsWhole(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(0))
}

// FormatQuantity renders a quantity with exactly 3 decimal places
func FormatQuantity(d decimal.Decimal) string {
	return d.StringFixed(QuantityScale)
}

// FormatMoney renders a money amount with exactly 2 decimal places
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}
