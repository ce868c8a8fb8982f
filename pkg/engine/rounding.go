package engine

import "math"

// roundCents rounds an intermediate amount to whole cents. Negative zero
// becomes zero.
func roundCents(v float64) int64 {
	r := math.Round(v)
	if r == 0 || math.IsNaN(r) {
		return 0
	}
	return int64(r)
}

func absCents(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func minCents(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// ratio divides num by den and returns 0 for a zero denominator.
func ratio(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func withinTolerance(expected, actual, tolerance int64) bool {
	return absCents(expected-actual) <= tolerance
}
