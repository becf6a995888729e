// Package geom provides the vector and plane math shared by the ROM
// calculators and repetition detectors.
//
// All positions are meters in the device/world frame. Angle helpers return
// radians; conversion to degrees happens at the ROM boundary (internal/units).
package geom

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Epsilon is the magnitude below which a vector is considered to have no
// direction. Normalizing such a vector reports failure instead of dividing
// by a near-zero length.
const Epsilon = 1e-9

// Axis identifies one of the three spatial axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// String returns the axis name for diagnostics.
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return "?"
}

// Vec3 is a 3D vector in meters.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 { return v.X*w.X + v.Y*w.Y + v.Z*w.Z }

// Cross returns the cross product v × w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns the unit vector in the direction of v. The second
// return is false when v has no usable direction (length below Epsilon
// or any non-finite component); in that case the zero vector is returned.
func (v Vec3) Normalize() (Vec3, bool) {
	if !v.IsFinite() {
		return Vec3{}, false
	}
	n := v.Norm()
	if n < Epsilon {
		return Vec3{}, false
	}
	return v.Scale(1 / n), true
}

// IsFinite reports whether all components are finite (no NaN/Inf).
func (v Vec3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// Component returns the component of v along axis a.
func (v Vec3) Component(a Axis) float64 {
	switch a {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// DominantAxis returns the axis with the largest absolute component of v
// and the signed component value along it. Ties resolve in X, Y, Z order.
func (v Vec3) DominantAxis() (Axis, float64) {
	axis, val := AxisX, v.X
	if math.Abs(v.Y) > math.Abs(val) {
		axis, val = AxisY, v.Y
	}
	if math.Abs(v.Z) > math.Abs(val) {
		axis, val = AxisZ, v.Z
	}
	return axis, val
}

// Vec2 is a 2D vector used for plane-projected trajectories.
type Vec2 struct {
	U, V float64
}

// Sub returns v - w.
func (v Vec2) Sub(w Vec2) Vec2 { return Vec2{v.U - w.U, v.V - w.V} }

// Norm returns the Euclidean length of v.
func (v Vec2) Norm() float64 { return math.Hypot(v.U, v.V) }

// Plane is a 2D motion plane spanned by two of the three spatial axes.
type Plane struct {
	U, V Axis
}

// Project drops the plane's missing axis from p.
func (pl Plane) Project(p Vec3) Vec2 {
	return Vec2{U: p.Component(pl.U), V: p.Component(pl.V)}
}

// AxisVariances computes the positional variance along each axis.
// Returns zeros for fewer than two points.
func AxisVariances(points []Vec3) [3]float64 {
	if len(points) < 2 {
		return [3]float64{}
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	zs := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
	}
	return [3]float64{
		stat.Variance(xs, nil),
		stat.Variance(ys, nil),
		stat.Variance(zs, nil),
	}
}

// DominantPlane selects the two highest-variance axes as the best-fit 2D
// motion plane. Ties break toward the fixed axis precedence X, Y, Z, so a
// degenerate trajectory still yields a deterministic plane. The returned
// plane's axes are ordered by precedence, not by variance.
func DominantPlane(points []Vec3) Plane {
	vars := AxisVariances(points)

	// Drop the single lowest-variance axis. Strict comparison keeps the
	// earlier axis on ties.
	drop := AxisX
	for _, a := range []Axis{AxisY, AxisZ} {
		if vars[a] < vars[drop] {
			drop = a
		}
	}
	switch drop {
	case AxisX:
		return Plane{U: AxisY, V: AxisZ}
	case AxisY:
		return Plane{U: AxisX, V: AxisZ}
	default:
		return Plane{U: AxisX, V: AxisY}
	}
}

// WrapAngle normalizes an angle difference into (−π, π], the shortest
// signed path between two headings.
func WrapAngle(rad float64) float64 {
	for rad > math.Pi {
		rad -= 2 * math.Pi
	}
	for rad <= -math.Pi {
		rad += 2 * math.Pi
	}
	return rad
}

// SignedAngleDelta returns the shortest signed rotation from angle a to
// angle b, in (−π, π].
func SignedAngleDelta(a, b float64) float64 {
	return WrapAngle(b - a)
}
