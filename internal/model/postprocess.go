package model

import "math"

// PostProcess converts a raw prediction into a rental count: negative values
// become 0 and the rest are rounded to the nearest integer, ties to even.
func PostProcess(raw float64) int {
	if math.IsNaN(raw) || raw <= 0 {
		return 0
	}
	if raw >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.RoundToEven(raw))
}
