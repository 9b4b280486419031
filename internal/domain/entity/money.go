package entity

import "math"

// round2 rounds monetary values to two decimals for JSON presentation.
// Stored and computed values stay unrounded.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
