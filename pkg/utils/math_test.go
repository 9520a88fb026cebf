package utils

import (
	"math"
	"testing"
)

func TestMagnitude(t *testing.T) {
	if got := Magnitude([]float32{3, 4}); math.Abs(float64(got)-5) > 1e-5 {
		t.Errorf("Magnitude = %v, want 5", got)
	}
	if got := Magnitude(nil); got != 0 {
		t.Errorf("Magnitude(nil) = %v, want 0", got)
	}
}

func TestNormalizeL2(t *testing.T) {
	v := []float32{3, 4}
	NormalizeL2(v)
	if m := Magnitude(v); math.Abs(float64(m)-1) > 1e-5 {
		t.Errorf("magnitude after normalize = %v, want 1", m)
	}

	zero := []float32{0, 0, 0}
	NormalizeL2(zero)
	for i, x := range zero {
		if x != 0 {
			t.Errorf("zero vector changed at index %d: %v", i, x)
		}
	}
}

func TestDot(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}
	if got := Dot(a, b); got != 32 {
		t.Errorf("Dot = %v, want 32", got)
	}
	if got := Dot(nil, nil); got != 0 {
		t.Errorf("Dot(nil, nil) = %v, want 0", got)
	}
}
