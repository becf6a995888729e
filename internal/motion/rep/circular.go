package rep

import (
	"math"

	"github.com/motusrehab/motus/internal/motion/geom"
)

// CircularConfig holds tuning for the circular-completion detector.
type CircularConfig struct {
	// CenterBlend is the exponential factor pulling the center estimate
	// toward each new sample. Small values tolerate drift without letting
	// the center chase the hand.
	CenterBlend float64

	// BasisBlend is the exponential factor smoothing the local 2D basis
	// toward the instantaneous motion plane.
	BasisBlend float64

	// MinRadiusMeters rejects samples too close to the center; motion
	// near the center carries no usable direction.
	MinRadiusMeters float64

	// MaxStepAngleRad clamps the per-sample angular delta; larger jumps
	// are sensor spikes.
	MaxStepAngleRad float64

	// CooldownSeconds is the minimum time between two counted laps.
	CooldownSeconds float64
}

// DefaultCircularConfig returns the tuning used by the shipped circular
// profiles.
func DefaultCircularConfig() CircularConfig {
	return CircularConfig{
		CenterBlend:     0.05,
		BasisBlend:      0.15,
		MinRadiusMeters: 0.02,
		MaxStepAngleRad: math.Pi / 3,
		CooldownSeconds: 0.3,
	}
}

// CircularDetector counts repetitions by accumulating signed angle around
// an exponentially-smoothed center. A repetition is one full lap (2π of
// accumulated angle) in either direction; on completion one signed full
// turn is subtracted, preserving overshoot so fast continuous circling is
// not under-counted.
//
// The angle is measured in a smoothed orthonormal basis local to the
// motion plane, so a hand motion that is not perfectly planar still
// accumulates cleanly.
type CircularDetector struct {
	cfg CircularConfig

	center     geom.Vec3
	haveCenter bool

	// Smoothed local basis: u and v span the motion plane, n is its
	// normal. Valid once basisOK.
	u, v, n geom.Vec3
	basisOK bool

	firstRadial     geom.Vec3
	haveFirstRadial bool
	prevRadial      geom.Vec3

	prevAngle     float64
	havePrevAngle bool
	accum         float64

	repCount int
	lastRepT float64
	haveRep  bool
}

// NewCircularDetector builds a detector with the given tuning.
func NewCircularDetector(cfg CircularConfig) *CircularDetector {
	return &CircularDetector{cfg: cfg}
}

// RepCount returns the number of counted laps so far.
func (d *CircularDetector) RepCount() int { return d.repCount }

// AccumulatedAngle returns the signed angle accumulated since the last
// counted lap (diagnostics only).
func (d *CircularDetector) AccumulatedAngle() float64 { return d.accum }

// Center returns the current center estimate (diagnostics only).
func (d *CircularDetector) Center() geom.Vec3 { return d.center }

// Reset tears down all session state.
func (d *CircularDetector) Reset() {
	*d = CircularDetector{cfg: d.cfg}
}

// Process consumes one sample and reports whether it completed a lap.
func (d *CircularDetector) Process(s Sample) Event {
	if !s.P.IsFinite() || math.IsNaN(s.T) {
		return Event{}
	}

	if !d.haveCenter {
		d.center = s.P
		d.haveCenter = true
		return Event{}
	}
	d.center = d.center.Add(s.P.Sub(d.center).Scale(d.cfg.CenterBlend))

	radial := s.P.Sub(d.center)
	if radial.Norm() < d.cfg.MinRadiusMeters {
		return Event{}
	}
	rhat, ok := radial.Normalize()
	if !ok {
		return Event{}
	}

	if !d.basisOK {
		if !d.establishBasis(rhat) {
			return Event{}
		}
	} else {
		d.smoothBasis(rhat)
	}
	d.prevRadial = rhat

	angle := math.Atan2(radial.Dot(d.v), radial.Dot(d.u))
	if !d.havePrevAngle {
		d.prevAngle = angle
		d.havePrevAngle = true
		return Event{}
	}

	delta := geom.SignedAngleDelta(d.prevAngle, angle)
	d.prevAngle = angle

	// Spikes beyond the per-step limit are clamped, not dropped, so a
	// single bad frame cannot unwind real progress.
	if delta > d.cfg.MaxStepAngleRad {
		delta = d.cfg.MaxStepAngleRad
	} else if delta < -d.cfg.MaxStepAngleRad {
		delta = -d.cfg.MaxStepAngleRad
	}
	d.accum += delta

	if math.Abs(d.accum) < 2*math.Pi {
		return Event{}
	}
	if d.haveRep && s.T-d.lastRepT < d.cfg.CooldownSeconds {
		// Hold the accumulator; the lap counts once the cooldown clears.
		return Event{}
	}

	// Subtract one signed full turn, keeping any overshoot.
	if d.accum > 0 {
		d.accum -= 2 * math.Pi
	} else {
		d.accum += 2 * math.Pi
	}
	d.repCount++
	d.lastRepT = s.T
	d.haveRep = true
	return Event{RepCompleted: true, RepIndex: d.repCount, TurnPoint: s.P}
}

// establishBasis builds the initial orthonormal basis from the first two
// valid radial directions. Returns false while the directions are still
// collinear (no plane yet).
func (d *CircularDetector) establishBasis(rhat geom.Vec3) bool {
	if !d.haveFirstRadial {
		d.firstRadial = rhat
		d.haveFirstRadial = true
		d.prevRadial = rhat
		return false
	}
	normal, ok := d.firstRadial.Cross(rhat).Normalize()
	if !ok {
		// Collinear with the first radial; keep waiting.
		return false
	}
	d.u = d.firstRadial
	d.n = normal
	d.v = d.n.Cross(d.u)
	d.basisOK = true
	return true
}

// smoothBasis blends the basis normal toward the instantaneous motion
// plane and re-orthonormalizes, adapting to non-planar hand paths.
func (d *CircularDetector) smoothBasis(rhat geom.Vec3) {
	inst, ok := d.prevRadial.Cross(rhat).Normalize()
	if !ok {
		return
	}
	// Keep the smoothed normal on a consistent side so the lap sign is
	// stable.
	if inst.Dot(d.n) < 0 {
		inst = inst.Scale(-1)
	}
	blended, ok := d.n.Add(inst.Sub(d.n).Scale(d.cfg.BasisBlend)).Normalize()
	if !ok {
		return
	}
	d.n = blended

	u, ok := d.u.Sub(d.n.Scale(d.u.Dot(d.n))).Normalize()
	if !ok {
		return
	}
	d.u = u
	d.v = d.n.Cross(d.u)
}
