// Package format renders engine amounts for people.
package format

import (
	"fmt"
	"strconv"
	"strings"
)

// Currency returns a currency string for an amount in cents with a dollar
// sign and thousands separators (e.g., "-$1,234.56").
func Currency(cents int64) string {
	formatted := formatPositiveCents(cents)
	if cents < 0 {
		return "-$" + formatted
	}
	return "$" + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
	}
	return sign + formatPositiveCents(cents)
}

// Percent renders a decimal rate as a percentage with one decimal place (e.g., "12.5%").
func Percent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}

func formatPositiveCents(cents int64) string {
	// Work in uint64 so the most negative int64 does not overflow.
	u := uint64(cents)
	if cents < 0 {
		u = uint64(-(cents + 1)) + 1
	}
	intPart := strconv.FormatUint(u/100, 10)
	decPart := fmt.Sprintf("%02d", u%100)

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
