package models

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Money is an amount in whole currency units.
type Money int64

// Decimal returns m as a decimal for mixed arithmetic with rates and prices.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(m))
}

func (m Money) String() string {
	return strconv.FormatInt(int64(m), 10)
}

// MoneyFromDecimal rounds d half-up to whole units. Negative values become zero.
func MoneyFromDecimal(d decimal.Decimal) Money {
	if d.IsNegative() {
		return 0
	}
	return Money(d.Round(0).IntPart())
}
