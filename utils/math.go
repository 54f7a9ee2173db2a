// Package utils contains small helpers shared across the module.
package utils

import (
	"math"
)

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// ModAngDeg maps any angle in degrees into [0, 360).
func ModAngDeg(ang float64) float64 {
	return math.Mod(math.Mod(ang, 360)+360, 360)
}

// SignedAngleDiffDeg returns the shortest signed rotation in degrees taking from to to, in
// [-180, 180). Positive means to lies clockwise of from on a compass.
func SignedAngleDiffDeg(from, to float64) float64 {
	return ModAngDeg(to-from+180) - 180
}

// Float64AlmostEqual reports whether a and b are within epsilon of each other.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}
