// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/exit-valuation/pkg/constants"
	"github.com/shopspring/decimal"
)

// Won converts a decimal amount to whole won, rounding half away from zero.
func Won(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// MulWon multiplies a won amount by a float factor without float drift on the
// amount itself.
func MulWon(amount int64, factor float64) int64 {
	return Won(decimal.NewFromInt(amount).Mul(decimal.NewFromFloat(factor)))
}

// ApplyPercentageWon applies a percentage in [0,100] to a won amount.
func ApplyPercentageWon(amount int64, percentage float64) int64 {
	return Won(decimal.NewFromInt(amount).Mul(decimal.NewFromFloat(percentage)).Div(decimal.NewFromFloat(constants.PercentageMultiplier)))
}

// Fraction converts a percentage in [0,100] to a fraction in [0,1].
func Fraction(percentage float64) float64 {
	return percentage / constants.PercentageMultiplier
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance+1e-9
}

// SumsTo100 reports whether the given percentages sum to 100 within the
// shared percentage tolerance.
func SumsTo100(percentages ...float64) bool {
	total := 0.0
	for _, p := range percentages {
		total += p
	}
	return WithinTolerance(total, constants.PercentageMultiplier, constants.PercentSumTolerance)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MaxInt64 returns the maximum of two int64 values
func MaxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// Ratio returns part/total, or 0 when total is zero.
func Ratio(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

// Round4 rounds a ratio or multiple to four decimal places for display.
func Round4(val float64) float64 {
	return math.Round(val*10000) / 10000
}
