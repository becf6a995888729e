// Package rom converts repetition trajectories into range-of-motion angles.
//
// Two models are provided: arc length over the best-fit motion plane
// (pendulum-style profiles) and peak radius about a moving center
// (circular/stirring profiles). Both divide by the calibrated arm length,
// so the arm length is validated once at construction and a documented
// default substituted when the supplied value is unusable.
package rom

import (
	"math"

	"github.com/motusrehab/motus/internal/monitoring"
	"github.com/motusrehab/motus/internal/motion/geom"
	"github.com/motusrehab/motus/internal/units"
)

// DefaultArmLengthMeters substitutes for a missing or invalid calibration
// value so ROM math never divides by zero.
const DefaultArmLengthMeters = 0.7

// ArcConfig holds tuning for the arc-length ROM model.
type ArcConfig struct {
	// NoiseFloorMeters is the minimum segment length that contributes to
	// arc length; shorter segments are tracking jitter.
	NoiseFloorMeters float64

	// MinArcMeters is the minimum projected arc length for a repetition
	// to be accepted. Shorter repetitions are discarded.
	MinArcMeters float64
}

// DefaultArcConfig returns the tuning used by the shipped exercise profiles.
func DefaultArcConfig() ArcConfig {
	return ArcConfig{
		NoiseFloorMeters: 0.0008,
		MinArcMeters:     0.05,
	}
}

// SanitizeArmLength validates a calibrated arm length, substituting the
// default when the value is non-positive or non-finite.
func SanitizeArmLength(meters float64) float64 {
	if math.IsNaN(meters) || math.IsInf(meters, 0) || meters <= 0 {
		monitoring.Logf("rom: invalid arm length %v, substituting default %.2fm", meters, DefaultArmLengthMeters)
		return DefaultArmLengthMeters
	}
	return meters
}

// ArcCalculator accumulates one repetition's 3D trajectory and converts it
// to a ROM angle on finalization.
//
// The raw (unprojected) running arc length drives live display; the final
// ROM re-walks the buffered trajectory projected onto the two
// highest-variance axes, so the measurement adapts to whichever plane the
// user actually swings in.
type ArcCalculator struct {
	cfg       ArcConfig
	armLength float64

	buf     []geom.Vec3
	rawArc  float64
	last    geom.Vec3
	hasLast bool
}

// NewArcCalculator builds a calculator for one session. armLengthMeters is
// the calibration value; invalid values fall back to the default.
func NewArcCalculator(cfg ArcConfig, armLengthMeters float64) *ArcCalculator {
	return &ArcCalculator{
		cfg:       cfg,
		armLength: SanitizeArmLength(armLengthMeters),
	}
}

// Observe appends a position to the in-progress repetition. Non-finite
// positions are skipped; prior state is kept.
func (c *ArcCalculator) Observe(p geom.Vec3) {
	if !p.IsFinite() {
		return
	}
	if c.hasLast {
		if seg := p.Sub(c.last).Norm(); seg >= c.cfg.NoiseFloorMeters {
			c.rawArc += seg
		}
	}
	c.buf = append(c.buf, p)
	c.last = p
	c.hasLast = true
}

// LiveROM returns the interim ROM in degrees from the raw 3D arc length.
// Display-only; the authoritative per-rep value comes from CompleteRep.
func (c *ArcCalculator) LiveROM() float64 {
	return c.romDegrees(c.rawArc)
}

// RawArcMeters returns the running unprojected arc length.
func (c *ArcCalculator) RawArcMeters() float64 { return c.rawArc }

// CompleteRep finalizes the in-progress repetition: selects the dominant
// motion plane by per-axis variance, re-walks the buffered trajectory in
// that plane, and converts the projected arc length to degrees.
//
// accepted is false when the projected arc falls below MinArcMeters; such
// repetitions do not count. The buffer, baseline, and running arc length
// are cleared in every case.
func (c *ArcCalculator) CompleteRep() (romDegrees float64, accepted bool) {
	defer c.Reset()

	if len(c.buf) < 2 {
		return 0, false
	}

	plane := geom.DominantPlane(c.buf)
	var arc float64
	prev := plane.Project(c.buf[0])
	for _, p := range c.buf[1:] {
		cur := plane.Project(p)
		if seg := cur.Sub(prev).Norm(); seg >= c.cfg.NoiseFloorMeters {
			arc += seg
		}
		prev = cur
	}

	if arc < c.cfg.MinArcMeters {
		return 0, false
	}
	return c.romDegrees(arc), true
}

// Reset clears the in-progress buffer and running arc length.
func (c *ArcCalculator) Reset() {
	c.buf = c.buf[:0]
	c.rawArc = 0
	c.hasLast = false
}

// romDegrees converts an arc length to degrees swept at the calibrated arm
// length, clamped to [0°, 360°].
func (c *ArcCalculator) romDegrees(arcMeters float64) float64 {
	return units.ClampDeg(units.RadToDeg(arcMeters/c.armLength), 0, 360)
}
