package analytics

import "math"

// round1 rounds to one decimal place, halves away from zero.
func round1(v float64) float64 {
	return finite(math.Round(v*10) / 10)
}

// percentOf returns part/whole as a whole percent clamped to [0, 100]. A
// zero whole yields 0.
func percentOf(part, whole int) int {
	if whole <= 0 || part <= 0 {
		return 0
	}
	p := int(math.Round(float64(part) / float64(whole) * 100))
	return max(0, min(100, p))
}

// finite maps NaN and infinities to 0 so every reported number is usable.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
