// Package units provides shared angle and screen-space conversions.
//
// ROM values are stored and reported in degrees; all internal geometry runs
// in radians and meters. Camera landmarks arrive in normalized screen space
// ([0,1] on both axes) and are converted to pixels for travel thresholds.
package units

import "math"

// DegPerRad converts radians to degrees when multiplied.
const DegPerRad = 180.0 / math.Pi

// RadToDeg converts an angle in radians to degrees.
func RadToDeg(rad float64) float64 { return rad * DegPerRad }

// DegToRad converts an angle in degrees to radians.
func DegToRad(deg float64) float64 { return deg / DegPerRad }

// ClampDeg bounds a degree value to [lo, hi]. NaN clamps to lo, which keeps
// a poisoned angle from propagating into reported ROM.
func ClampDeg(deg, lo, hi float64) float64 {
	if math.IsNaN(deg) || deg < lo {
		return lo
	}
	if deg > hi {
		return hi
	}
	return deg
}

// NormToPixels converts a normalized screen coordinate to pixels for the
// given frame dimension.
func NormToPixels(norm, frameDim float64) float64 { return norm * frameDim }
