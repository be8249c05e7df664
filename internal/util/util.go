// Package util provides some basic utility functions.
package util

// MakeRange returns a new slice of length max, with contents (0, ..., max - 1).
func MakeRange(max int64) []int64 {
	r := make([]int64, max)
	for i := range r {
		r[i] = int64(i)
	}
	return r
}

// CeilDiv returns a / b rounded up. b must be positive.
func CeilDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Clamp returns val if val is within lo and hi, lo if val < lo, or hi if val > hi.
func Clamp(lo, hi, val int) int {
	return min(hi, max(lo, val))
}
