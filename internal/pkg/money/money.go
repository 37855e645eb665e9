package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativePrice   = errors.New("money: unit price must not be negative")
	ErrInvalidQuantity = errors.New("money: quantity must be greater than zero")
)

// MinorUnits converts unit price (decimal currency units) times quantity into
// integer minor units, rounding half-up at two decimal places. The result is
// exact and deterministic for identical inputs.
func MinorUnits(unitPrice decimal.Decimal, quantity int) (int64, error) {
	if unitPrice.IsNegative() {
		return 0, ErrNegativePrice
	}
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	total := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	// Round is half-away-from-zero, which is half-up for non-negative amounts.
	return total.Round(2).Shift(2).IntPart(), nil
}
