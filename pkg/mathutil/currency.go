// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/franchise-forecast/pkg/constants"
	"github.com/shopspring/decimal"
)

var centsPerDollar = decimal.NewFromInt(constants.CentsPerDollar)

// DollarsToCents converts a dollar amount to whole cents, rounding half away
// from zero. The conversion goes through a decimal so that values such as
// 0.29 dollars do not pick up binary floating point error.
func DollarsToCents(dollars float64) int64 {
	if math.IsNaN(dollars) || math.IsInf(dollars, 0) {
		return 0
	}
	return decimal.NewFromFloat(dollars).Mul(centsPerDollar).Round(0).IntPart()
}

// CentsToDollars converts cents to a dollar amount for display.
func CentsToDollars(cents int64) float64 {
	return decimal.NewFromInt(cents).Div(centsPerDollar).InexactFloat64()
}

// ScaleCents multiplies a cents amount by factor and rounds to whole cents.
func ScaleCents(cents int64, factor float64) int64 {
	return decimal.NewFromInt(cents).Mul(decimal.NewFromFloat(factor)).Round(0).IntPart()
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// CentsWithinTolerance checks if two cent amounts differ by at most tolerance cents.
func CentsWithinTolerance(a, b, tolerance int64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// Clamp limits val to the closed range [lo, hi].
func Clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}
