package rom

import (
	"math"

	"github.com/motusrehab/motus/internal/motion/geom"
	"github.com/motusrehab/motus/internal/units"
)

// RadiusCalculator derives ROM for circular/stirring profiles from the
// radius of motion about a moving center estimate.
//
// The center is the incremental mean of every position seen this session;
// the per-repetition peak radius resets when a rep finalizes, so ROM does
// not grow monotonically across reps.
type RadiusCalculator struct {
	armLength float64

	center     geom.Vec3
	count      int
	peakRadius float64
	lastRadius float64
}

// NewRadiusCalculator builds a calculator for one session. Invalid arm
// lengths fall back to the default.
func NewRadiusCalculator(armLengthMeters float64) *RadiusCalculator {
	return &RadiusCalculator{armLength: SanitizeArmLength(armLengthMeters)}
}

// Observe folds a position into the center estimate and tracks the current
// repetition's peak radius. Non-finite positions are skipped.
func (c *RadiusCalculator) Observe(p geom.Vec3) {
	if !p.IsFinite() {
		return
	}
	c.count++
	c.center = c.center.Add(p.Sub(c.center).Scale(1 / float64(c.count)))

	r := p.Sub(c.center).Norm()
	c.lastRadius = r
	if r > c.peakRadius {
		c.peakRadius = r
	}
}

// LiveROM returns the interim ROM in degrees from the current repetition's
// peak radius.
func (c *RadiusCalculator) LiveROM() float64 {
	return c.romDegrees(c.peakRadius)
}

// PeakRadiusMeters returns the peak radius observed this repetition.
func (c *RadiusCalculator) PeakRadiusMeters() float64 { return c.peakRadius }

// CompleteRep finalizes the repetition using the peak radius observed
// during that specific rep and resets the peak. The center estimate
// persists across reps; it models the whole session's motion.
func (c *RadiusCalculator) CompleteRep() (romDegrees float64, accepted bool) {
	rom := c.romDegrees(c.peakRadius)
	accepted = c.peakRadius > 0
	c.peakRadius = 0
	return rom, accepted
}

// Reset clears the center estimate and per-rep state.
func (c *RadiusCalculator) Reset() {
	c.center = geom.Vec3{}
	c.count = 0
	c.peakRadius = 0
	c.lastRadius = 0
}

// romDegrees converts a radius to degrees via the inverse-sine model,
// clamped to [0°, 90°]. A radius exceeding the arm length saturates at 90°.
func (c *RadiusCalculator) romDegrees(radiusMeters float64) float64 {
	ratio := radiusMeters / c.armLength
	if math.IsNaN(ratio) || ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return units.ClampDeg(units.RadToDeg(math.Asin(ratio)), 0, 90)
}
