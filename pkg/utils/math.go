package utils

import (
	"math"
)

// Clamp clamps a value between min and max
func Clamp(value, min, max int64) int64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampFloat64 clamps a float64 value between min and max
func ClampFloat64(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// FloorMean returns floor((a+b)/2) without overflowing for large operands
func FloorMean(a, b int64) int64 {
	return int64(math.Floor((float64(a) + float64(b)) / 2))
}

// Round rounds a float64 to the specified number of decimal places
func Round(value float64, decimals int) float64 {
	multiplier := math.Pow(10, float64(decimals))
	return math.Round(value*multiplier) / multiplier
}
