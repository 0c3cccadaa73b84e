// Package money implements integer minor-unit monetary amounts.
//
// All monetary values in the system are carried as whole minor currency
// units (piastres). Floating point never enters any computation; the
// receipt and admin renderers consume these integers verbatim.
package money

import "fmt"

// Money is a monetary amount in minor currency units.
type Money int64

// Zero is the zero amount.
const Zero Money = 0

// NegativeAmountError indicates a subtraction that would produce a
// negative amount outside of signed-delta mode.
type NegativeAmountError struct {
	Minuend    Money
	Subtrahend Money
}

func (e *NegativeAmountError) Error() string {
	return fmt.Sprintf("amount %d - %d would be negative", e.Minuend, e.Subtrahend)
}

// Add returns m + n.
func (m Money) Add(n Money) Money {
	return m + n
}

// Sub returns m - n, failing with NegativeAmountError when the result
// would go below zero.
func (m Money) Sub(n Money) (Money, error) {
	if n > m {
		return Zero, &NegativeAmountError{Minuend: m, Subtrahend: n}
	}
	return m - n, nil
}

// SubFloor returns m - n clamped at zero. Used by total computation,
// where discounts larger than the gross amount floor the total.
func (m Money) SubFloor(n Money) Money {
	if n > m {
		return Zero
	}
	return m - n
}

// SubSigned returns m - n as a signed delta. Only receipts use this,
// to display discount lines as negative amounts.
func (m Money) SubSigned(n Money) int64 {
	return int64(m) - int64(n)
}

// Mul returns m multiplied by a unit quantity.
func (m Money) Mul(quantity int) Money {
	return m * Money(quantity)
}

// PercentOf returns value percent of m, truncated toward zero.
// Truncation keeps the discount in whole minor units and never
// rounds in the customer's disfavour by more than one unit.
func (m Money) PercentOf(value int64) Money {
	return m * Money(value) / 100
}

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

// IsNegative reports whether m is below zero.
func (m Money) IsNegative() bool {
	return m < 0
}

// String renders m as major.minor for logs. Receipts format amounts
// themselves from the raw integer.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
