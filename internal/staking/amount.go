package staking

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of decimals amounts are rounded to after an action.
const DisplayPlaces = 4

// zeroAmount is what a reset reward or stake reads as.
const zeroAmount = "0"

const (
	// maxAmountLen bounds the digits a comparison has to rescale.
	maxAmountLen = 32
	// maxAmountPlaces is lamport precision.
	maxAmountPlaces = 9
)

// parseAmount parses a user-entered amount. Only strictly positive plain
// decimals with at most lamport precision pass.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxAmountLen || strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() || d.Exponent() < -maxAmountPlaces {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// mustAmount parses an amount the panel produced itself.
func mustAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// format rounds to DisplayPlaces and always prints them, like "0.7000".
func format(d decimal.Decimal) string {
	return d.StringFixed(DisplayPlaces)
}

// lamportsToSOL converts a lamport count to an exact SOL decimal.
func lamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9)
}
