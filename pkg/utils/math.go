// Package utils provides shared math and logging utilities.
package utils

import "github.com/viant/vec/search"

// Magnitude returns the L2 norm of x, using the SIMD kernel where available.
func Magnitude(x []float32) float32 {
	if len(x) == 0 {
		return 0
	}
	return search.Float32s(x).Magnitude()
}

// NormalizeL2 normalizes the slice in place to unit L2 norm.
// If the norm is zero, the slice is unchanged.
func NormalizeL2(x []float32) {
	m := Magnitude(x)
	if m == 0 {
		return
	}
	inv := 1.0 / m
	for i := range x {
		x[i] *= inv
	}
}

// Dot returns the inner product of a and b, accumulating in float64 so that
// rankings are stable across platforms. Slices must have equal length.
func Dot(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
