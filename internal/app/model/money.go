package model

import "github.com/shopspring/decimal"

// Money values are rounded to cents, half away from zero.
const (
	MoneyScale = 2
	RatioScale = 4
)

// orZero treats a missing amount as zero.
func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// Money rounds d to cents.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// Percent returns part/whole rounded to four places and scaled to a
// percentage. A zero or negative whole yields zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.DivRound(whole, RatioScale).Mul(hundred)
}

// DecimalPtr is a convenience for building optional amounts.
func DecimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
