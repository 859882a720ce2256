package sim

import "math"

// Fast math helpers for hot-path kernel code.
// These avoid float32->float64 conversions that Go's math package requires.

// fastSqrt approximates sqrt(x) using fast inverse sqrt.
func fastSqrt(x float32) float32 {
	if x <= 0 {
		return 0
	}
	i := math.Float32bits(x)
	i = 0x5f375a86 - (i >> 1)
	y := math.Float32frombits(i)
	y = y * (1.5 - 0.5*x*y*y)
	return x * y
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clampf(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// isFinite reports whether x is neither NaN nor infinite.
func isFinite(x float32) bool {
	return x == x && x > float32(math.Inf(-1)) && x < float32(math.Inf(1))
}
