package ledger

import (
	"errors"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of decimal places amounts and balances carry
const AmountPlaces = 2

// MaxAmountDigits is the number of integer digits of MaxAmount
const MaxAmountDigits = 13

// MaxAmount bounds the magnitude of any amount or balance the ledger accepts
var MaxAmount = decimal.New(1, MaxAmountDigits-1)

var (
	ErrAmountTooLarge   = errors.New("amount exceeds the maximum")
	ErrAmountTooPrecise = errors.New("amount has more than 2 decimal places")
)

// NormalizeAmount checks d against MaxAmount and AmountPlaces and returns it at
// a scale of at most AmountPlaces, so trailing zeros never inflate later arithmetic.
// The digit counts are checked before any rescaling, since rescaling a value
// like 1e20000000 costs time and memory in proportion to its exponent.
func NormalizeAmount(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsZero() {
		return decimal.Zero, nil
	}

	exp := int(d.Exponent())
	if exp < -AmountPlaces {
		// Dropping the extra places is exact only if the coefficient ends in that many zeros
		if -AmountPlaces-exp >= d.NumDigits() {
			return decimal.Zero, ErrAmountTooPrecise
		}
		rounded := d.Round(AmountPlaces)
		if !rounded.Equal(d) {
			return decimal.Zero, ErrAmountTooPrecise
		}
		d = rounded
		exp = -AmountPlaces
	}

	if d.NumDigits()+exp > MaxAmountDigits {
		return decimal.Zero, ErrAmountTooLarge
	}
	if d.Abs().GreaterThan(MaxAmount) {
		return decimal.Zero, ErrAmountTooLarge
	}
	return d, nil
}
