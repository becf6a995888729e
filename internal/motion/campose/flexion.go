package campose

// FlexionConfig holds tuning for extension-flexion cycle exercises
// (e.g. elbow extension tracked by a shoulder–elbow–wrist angle).
type FlexionConfig struct {
	// AngleLandmarks is the [end, vertex, end] triple defining the
	// tracked joint angle.
	AngleLandmarks [3]string

	// UpperThresholdDeg enters the extending phase when exceeded.
	UpperThresholdDeg float64

	// LowerThresholdDeg ends the cycle when the angle drops below it.
	LowerThresholdDeg float64

	// MinDeltaDeg is the minimum peak-minus-start angle for a rep.
	MinDeltaDeg float64

	// MinConfidence gates landmarks; zero means DefaultMinConfidence.
	MinConfidence float64
}

// DefaultFlexionConfig returns the tuning used by the shipped
// elbow-extension profile.
func DefaultFlexionConfig() FlexionConfig {
	return FlexionConfig{
		AngleLandmarks:    [3]string{LandmarkRightShoulder, LandmarkRightElbow, LandmarkRightWrist},
		UpperThresholdDeg: 140,
		LowerThresholdDeg: 90,
		MinDeltaDeg:       30,
		MinConfidence:     DefaultMinConfidence,
	}
}

type flexionPhase int

const (
	phaseFlexed flexionPhase = iota
	phaseExtending
)

// FlexionDetector counts extension-flexion cycles from a joint angle.
// Phases: flexed → extending (peak tracking) → flexing, where dropping
// below the lower threshold finalizes the rep with ROM = peak − start.
type FlexionDetector struct {
	cfg FlexionConfig

	phase      flexionPhase
	prevAngle  float64
	haveAngle  bool
	startAngle float64
	peakAngle  float64

	repCount int
}

// NewFlexionDetector builds a detector with the given tuning.
func NewFlexionDetector(cfg FlexionConfig) *FlexionDetector {
	if cfg.MinConfidence == 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	return &FlexionDetector{cfg: cfg}
}

// RepCount returns the number of accepted repetitions so far.
func (d *FlexionDetector) RepCount() int { return d.repCount }

// Reset tears down all session state.
func (d *FlexionDetector) Reset() {
	*d = FlexionDetector{cfg: d.cfg}
}

// Process consumes one frame. Frames missing any required landmark hold
// the current phase.
func (d *FlexionDetector) Process(f Frame) Event {
	a, okA := f.Get(d.cfg.AngleLandmarks[0], d.cfg.MinConfidence)
	mid, okM := f.Get(d.cfg.AngleLandmarks[1], d.cfg.MinConfidence)
	b, okB := f.Get(d.cfg.AngleLandmarks[2], d.cfg.MinConfidence)
	if !okA || !okM || !okB {
		return Event{}
	}
	angle := ThreePointAngle(a, mid, b)

	switch d.phase {
	case phaseFlexed:
		if angle > d.cfg.UpperThresholdDeg {
			d.phase = phaseExtending
			// The start angle is the last angle seen while still flexed;
			// without one the crossing frame itself is the best estimate.
			if d.haveAngle {
				d.startAngle = d.prevAngle
			} else {
				d.startAngle = angle
			}
			d.peakAngle = angle
		}
	case phaseExtending:
		if angle > d.peakAngle {
			d.peakAngle = angle
		}
		if angle < d.cfg.LowerThresholdDeg {
			d.phase = phaseFlexed
			if delta := d.peakAngle - d.startAngle; delta >= d.cfg.MinDeltaDeg {
				d.repCount++
				d.prevAngle = angle
				d.haveAngle = true
				return Event{RepCompleted: true, RepIndex: d.repCount, ROMDegrees: delta}
			}
		}
	}

	d.prevAngle = angle
	d.haveAngle = true
	return Event{}
}
