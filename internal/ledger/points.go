package ledger

import "github.com/shopspring/decimal"

// PointsForAmount converts a monetary amount into points using the
// conversion rate in effect. The product is floored: a fractional point
// is never awarded, so rounding bias runs against inflation of the ledger.
func PointsForAmount(amount, rate decimal.Decimal) int64 {
	return amount.Mul(rate).Floor().IntPart()
}

// ValidRate reports whether a conversion rate read from settings is usable.
func ValidRate(rate decimal.Decimal) bool {
	return rate.IsPositive()
}

// ValidStepQuantity checks a preorder line quantity against the product's
// step size. Weight-based products only accept exact multiples of the step
// (e.g. 100 g increments); violating quantities are rejected, not rounded.
func ValidStepQuantity(quantity, step int) bool {
	if quantity <= 0 {
		return false
	}
	if step <= 1 {
		return true
	}
	return quantity%step == 0
}
