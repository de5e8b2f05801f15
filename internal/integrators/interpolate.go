package integrators

import "github.com/san-kum/heatsim/internal/dynamo"

// Interpolate reconstructs a face value from the two adjacent cell values.
// Linear is the arithmetic mean; anything else is the harmonic mean, which
// is defined as zero when both values are zero.
func Interpolate(a, b float64, scheme dynamo.Interp) float64 {
	if scheme == dynamo.Linear {
		return 0.5*a + 0.5*b
	}
	if a == 0 && b == 0 {
		return 0
	}
	return 2 * a * b / (a + b)
}
