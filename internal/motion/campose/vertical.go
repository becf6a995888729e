package campose

import "github.com/motusrehab/motus/internal/units"

// VerticalTravelConfig holds tuning for vertical-travel exercises
// (upward reaches tracked by a single landmark).
type VerticalTravelConfig struct {
	// Landmark is the tracked point, typically a wrist.
	Landmark string

	// AngleLandmarks is the [end, vertex, end] triple whose angle at the
	// travel peak is recorded as the rep's ROM (e.g. hip–shoulder–wrist).
	AngleLandmarks [3]string

	// RiseThresholdPx is the per-frame vertical displacement, in pixels,
	// that starts or ends a rise. Screen Y grows downward, so rising
	// means decreasing Y.
	RiseThresholdPx float64

	// MinTravelPx is the minimum start-to-peak travel for a rep to count.
	MinTravelPx float64

	// FrameHeightPx converts normalized landmark Y to pixels.
	FrameHeightPx float64

	// MinConfidence gates landmarks; zero means DefaultMinConfidence.
	MinConfidence float64
}

// DefaultVerticalTravelConfig returns the tuning used by the shipped
// overhead-reach profile, assuming a 720p portrait camera frame.
func DefaultVerticalTravelConfig() VerticalTravelConfig {
	return VerticalTravelConfig{
		Landmark:        LandmarkRightWrist,
		AngleLandmarks:  [3]string{LandmarkRightHip, LandmarkRightShoulder, LandmarkRightWrist},
		RiseThresholdPx: 12,
		MinTravelPx:     80,
		FrameHeightPx:   1280,
		MinConfidence:   DefaultMinConfidence,
	}
}

type verticalPhase int

const (
	verticalResting verticalPhase = iota
	verticalRising
)

// VerticalTravelDetector counts upward-reach repetitions from one
// landmark's vertical travel. Phases: resting → rising (peak tracking) →
// falling, where a sufficient fall finalizes the rep with the peak angle
// as its ROM.
type VerticalTravelDetector struct {
	cfg VerticalTravelConfig

	phase     verticalPhase
	prevY     float64 // pixels
	havePrev  bool
	startY    float64
	peakY     float64
	peakAngle float64

	repCount int
}

// NewVerticalTravelDetector builds a detector with the given tuning.
func NewVerticalTravelDetector(cfg VerticalTravelConfig) *VerticalTravelDetector {
	if cfg.MinConfidence == 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	return &VerticalTravelDetector{cfg: cfg}
}

// RepCount returns the number of accepted repetitions so far.
func (d *VerticalTravelDetector) RepCount() int { return d.repCount }

// Reset tears down all session state.
func (d *VerticalTravelDetector) Reset() {
	*d = VerticalTravelDetector{cfg: d.cfg}
}

// Process consumes one frame. A frame whose tracked landmark is missing
// or below confidence holds the current phase.
func (d *VerticalTravelDetector) Process(f Frame) Event {
	lm, ok := f.Get(d.cfg.Landmark, d.cfg.MinConfidence)
	if !ok {
		return Event{}
	}
	y := units.NormToPixels(lm.Y, d.cfg.FrameHeightPx)

	if !d.havePrev {
		d.prevY = y
		d.havePrev = true
		return Event{}
	}
	delta := d.prevY - y // positive = moving up the screen
	prev := d.prevY
	d.prevY = y

	switch d.phase {
	case verticalResting:
		if delta > d.cfg.RiseThresholdPx {
			d.phase = verticalRising
			d.startY = prev
			d.peakY = y
			d.peakAngle = d.angleAt(f)
		}
	case verticalRising:
		if y < d.peakY {
			d.peakY = y
			if a := d.angleAt(f); a > 0 {
				d.peakAngle = a
			}
		}
		if -delta > d.cfg.RiseThresholdPx {
			// Sustained descent ends the rep attempt.
			d.phase = verticalResting
			if travel := d.startY - d.peakY; travel >= d.cfg.MinTravelPx {
				d.repCount++
				return Event{RepCompleted: true, RepIndex: d.repCount, ROMDegrees: d.peakAngle}
			}
		}
	}
	return Event{}
}

// angleAt computes the configured landmark-triple angle for the frame,
// or 0 when any required landmark is absent.
func (d *VerticalTravelDetector) angleAt(f Frame) float64 {
	a, okA := f.Get(d.cfg.AngleLandmarks[0], d.cfg.MinConfidence)
	mid, okM := f.Get(d.cfg.AngleLandmarks[1], d.cfg.MinConfidence)
	b, okB := f.Get(d.cfg.AngleLandmarks[2], d.cfg.MinConfidence)
	if !okA || !okM || !okB {
		return 0
	}
	return ThreePointAngle(a, mid, b)
}
