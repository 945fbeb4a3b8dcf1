package physics

import "math"

const TwoPi = 2 * math.Pi

// NormalizeAngle wraps a to [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, TwoPi)
	if a < 0 {
		a += TwoPi
	}
	return a
}

// AngleDiff returns the signed shortest rotation taking heading a onto
// heading b, in (-π, π].
func AngleDiff(a, b float64) float64 {
	d := math.Mod(b-a+math.Pi, TwoPi)
	if d < 0 {
		d += TwoPi
	}
	d -= math.Pi
	if d == -math.Pi {
		return math.Pi
	}
	return d
}

// Sign returns +1 or -1 following the sign bit of x, so Sign(0) == 1 and
// Sign(-0) == -1. NaN propagates.
func Sign(x float64) float64 {
	if math.IsNaN(x) {
		return x
	}
	return math.Copysign(1, x)
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
