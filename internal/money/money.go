// Package money holds the currency rounding rules shared by the cart,
// pricing and checkout code. Raw float arithmetic drifts over repeated
// add/subtract/percentage chains, so every derived amount is pushed
// through Round2 before it is stored, compared or displayed.
package money

import "github.com/shopspring/decimal"

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(x float64) float64 {
	v, _ := decimal.NewFromFloat(x).Round(2).Float64()
	return v
}

// Cmp compares two amounts after rounding both. Business rules must
// never compare raw floats (499.9999999998 vs 500 is a false failure).
func Cmp(a, b float64) int {
	return decimal.NewFromFloat(a).Round(2).Cmp(decimal.NewFromFloat(b).Round(2))
}

// GTE reports a >= b on rounded values.
func GTE(a, b float64) bool {
	return Cmp(a, b) >= 0
}

// IsZero reports whether the amount rounds to zero.
func IsZero(x float64) bool {
	return decimal.NewFromFloat(x).Round(2).IsZero()
}
