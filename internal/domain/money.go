package domain

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// ErrInvalidAmount is returned when an amount string cannot be parsed into cents.
var ErrInvalidAmount = errors.New("invalid amount")

// PercentOf returns round(amount * pct / 100) in minor units, rounding half away from zero.
func PercentOf(amount int64, pct decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(pct).Div(hundred).Round(0).IntPart()
}

// FormatCents renders minor units as a fixed two-decimal string, e.g. 12345 -> "123.45".
func FormatCents(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}

// ParseAmount converts a decimal currency string ("123.45") into minor units.
// More than two fractional digits is rejected rather than rounded, as is anything outside
// the int64 range.
func ParseAmount(raw string) (int64, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := value.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, ErrInvalidAmount
	}
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}
