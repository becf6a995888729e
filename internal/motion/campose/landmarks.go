// Package campose detects repetitions from 2D camera pose landmarks.
//
// Landmarks arrive in normalized screen space (origin top-left, Y growing
// downward) with per-point confidence. A landmark below the confidence
// threshold is treated as absent for that frame; a frame missing a required
// landmark contributes no update and the detector holds its previous phase.
package campose

import (
	"math"

	"github.com/motusrehab/motus/internal/units"
)

// DefaultMinConfidence is the landmark confidence below which a point is
// treated as absent.
const DefaultMinConfidence = 0.5

// Landmark names produced by the camera pose estimator.
const (
	LandmarkNose          = "nose"
	LandmarkLeftShoulder  = "left_shoulder"
	LandmarkRightShoulder = "right_shoulder"
	LandmarkLeftElbow     = "left_elbow"
	LandmarkRightElbow    = "right_elbow"
	LandmarkLeftWrist     = "left_wrist"
	LandmarkRightWrist    = "right_wrist"
	LandmarkLeftHip       = "left_hip"
	LandmarkRightHip      = "right_hip"
)

// Point is a named landmark position in normalized screen space.
type Point struct {
	X, Y       float64
	Confidence float64
}

// Frame is one camera frame's worth of named landmarks.
type Frame struct {
	T      float64 // monotonic seconds
	Points map[string]Point
}

// Get returns the named landmark if present, finite, and at or above
// minConfidence.
func (f Frame) Get(name string, minConfidence float64) (Point, bool) {
	p, ok := f.Points[name]
	if !ok || p.Confidence < minConfidence {
		return Point{}, false
	}
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
		return Point{}, false
	}
	return p, true
}

// ThreePointAngle returns the unsigned angle in degrees, 0–180, between
// the segments mid→a and mid→b.
func ThreePointAngle(a, mid, b Point) float64 {
	v1x, v1y := a.X-mid.X, a.Y-mid.Y
	v2x, v2y := b.X-mid.X, b.Y-mid.Y
	n1 := math.Hypot(v1x, v1y)
	n2 := math.Hypot(v2x, v2y)
	if n1 < 1e-9 || n2 < 1e-9 {
		return 0
	}
	cos := (v1x*v2x + v1y*v2y) / (n1 * n2)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return units.RadToDeg(math.Acos(cos))
}

// VerticalAngle returns the unsigned angle in degrees, 0–180, of the
// segment a→b measured from the screen vertical (Y axis).
func VerticalAngle(a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	if math.Hypot(dx, dy) < 1e-9 {
		return 0
	}
	// Angle from the vertical: |atan2(horizontal, vertical)|.
	return units.RadToDeg(math.Abs(math.Atan2(dx, dy)))
}

// Event reports the outcome of processing one camera frame.
type Event struct {
	// RepCompleted is true when the frame completed an accepted rep.
	RepCompleted bool

	// RepIndex is the 1-based index of the completed repetition.
	RepIndex int

	// ROMDegrees is the repetition's recorded range of motion.
	ROMDegrees float64
}
