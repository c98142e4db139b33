package shared

import "math"

// RoundMoney rounds to two decimals.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// CalculateLineTotal is quantity × unit price.
func CalculateLineTotal(quantity int, unitPrice float64) float64 {
	return RoundMoney(float64(quantity) * unitPrice)
}

// CalculateBalance returns what is left to pay. Overpayment yields a negative
// balance.
func CalculateBalance(subtotal, paid float64) float64 {
	return RoundMoney(subtotal - paid)
}
