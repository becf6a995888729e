// Package rep contains the spatial repetition detectors: direction-change
// for pendulum-style profiles and circular-completion for stirring profiles.
//
// Both are single-writer state machines fed timestamped samples in arrival
// order. Bad samples (non-finite, zero displacement) are inert: they never
// corrupt accumulated state and never raise errors. Detectors that cannot
// yet establish a baseline simply keep accumulating until they can.
package rep

import (
	"math"

	"github.com/motusrehab/motus/internal/motion/geom"
)

// Sample is a timestamped 3D position. Timestamps are monotonic seconds;
// out-of-order delivery is undefined behavior.
type Sample struct {
	T float64
	P geom.Vec3
}

// Event reports the outcome of processing one sample.
type Event struct {
	// RepCompleted is true when this sample completed an accepted
	// repetition. Fired at most once per sample.
	RepCompleted bool

	// RepIndex is the 1-based index of the completed repetition.
	RepIndex int

	// TurnPoint is the position where the completed repetition ended
	// (the reversal point). The next repetition's trajectory starts here.
	TurnPoint geom.Vec3
}

// DirectionConfig holds tuning for the direction-change detector.
type DirectionConfig struct {
	// WindowSeconds bounds the sample history buffer; older samples are
	// dropped.
	WindowSeconds float64

	// MinDisplacementMeters is the minimum straight-line distance between
	// a half-cycle's start and its peak for the half-cycle to be valid.
	MinDisplacementMeters float64

	// CooldownSeconds is the minimum time between two counted repetitions.
	CooldownSeconds float64
}

// DefaultDirectionConfig returns the tuning used by the shipped pendulum
// profiles.
func DefaultDirectionConfig() DirectionConfig {
	return DirectionConfig{
		WindowSeconds:         2.0,
		MinDisplacementMeters: 0.05,
		CooldownSeconds:       0.3,
	}
}

// DirectionDetector counts repetitions from direction reversals on the
// dominant motion axis. A repetition is one full out-and-back motion: two
// consecutive valid half-cycles. The dominant axis is re-evaluated every
// sample, so the detector follows whichever axis currently carries the
// motion.
type DirectionDetector struct {
	cfg DirectionConfig

	window []Sample

	prev     Sample
	havePrev bool
	lastDir  int

	halfStart geom.Vec3 // baseline of the current half-cycle
	peakDist  float64   // furthest straight-line distance from halfStart

	validHalves int // completed valid half-cycles toward the current rep

	repCount int
	lastRepT float64
	haveRep  bool
}

// NewDirectionDetector builds a detector with the given tuning.
func NewDirectionDetector(cfg DirectionConfig) *DirectionDetector {
	return &DirectionDetector{cfg: cfg}
}

// RepCount returns the number of accepted repetitions so far.
func (d *DirectionDetector) RepCount() int { return d.repCount }

// Window returns the buffered recent samples (diagnostics only).
func (d *DirectionDetector) Window() []Sample { return d.window }

// Reset tears down all session state, leaving the detector ready for a
// fresh session.
func (d *DirectionDetector) Reset() {
	*d = DirectionDetector{cfg: d.cfg}
}

// Process consumes one sample and reports whether it completed a rep.
func (d *DirectionDetector) Process(s Sample) Event {
	if !s.P.IsFinite() || math.IsNaN(s.T) {
		return Event{}
	}

	d.window = append(d.window, s)
	cutoff := s.T - d.cfg.WindowSeconds
	for len(d.window) > 0 && d.window[0].T < cutoff {
		d.window = d.window[1:]
	}

	if !d.havePrev {
		d.prev = s
		d.havePrev = true
		d.halfStart = s.P
		return Event{}
	}

	disp := s.P.Sub(d.prev.P)
	_, component := disp.DominantAxis()
	dir := sign(component)

	// Zero displacement neither advances nor resets direction state.
	if dir == 0 {
		d.prev = s
		return Event{}
	}

	if d.lastDir == 0 {
		// The very first observed direction has nothing to reverse from.
		d.lastDir = dir
		d.trackPeak(s.P)
		d.prev = s
		return Event{}
	}

	if dir == d.lastDir {
		d.trackPeak(s.P)
		d.prev = s
		return Event{}
	}

	// Reversal: the half-cycle that just ended ran from halfStart to the
	// reversal point (the previous sample).
	ev := d.onReversal(s, dir)
	d.prev = s
	return ev
}

// Flush finalizes a qualifying in-flight repetition at stream end: one
// valid half-cycle is already banked and the current half-cycle has met
// the displacement threshold but the closing reversal never arrived
// because motion stopped.
func (d *DirectionDetector) Flush(t float64) Event {
	if d.validHalves != 1 || d.peakDist < d.cfg.MinDisplacementMeters {
		return Event{}
	}
	if d.haveRep && t-d.lastRepT < d.cfg.CooldownSeconds {
		return Event{}
	}
	d.validHalves = 0
	d.peakDist = 0
	d.repCount++
	d.lastRepT = t
	d.haveRep = true
	return Event{RepCompleted: true, RepIndex: d.repCount, TurnPoint: d.prev.P}
}

func (d *DirectionDetector) onReversal(s Sample, dir int) Event {
	ev := Event{TurnPoint: d.prev.P}

	if d.peakDist >= d.cfg.MinDisplacementMeters {
		d.validHalves++
		if d.validHalves >= 2 {
			// Out-and-back complete; cooldown decides whether it counts.
			d.validHalves = 0
			if !d.haveRep || s.T-d.lastRepT >= d.cfg.CooldownSeconds {
				d.repCount++
				d.lastRepT = s.T
				d.haveRep = true
				ev.RepCompleted = true
				ev.RepIndex = d.repCount
			}
		}
	}

	// A new half-cycle starts at the reversal point whether or not the
	// previous one was valid; this keeps the detector from stalling on
	// noisy reversals.
	d.halfStart = d.prev.P
	d.peakDist = s.P.Sub(d.halfStart).Norm()
	d.lastDir = dir

	return ev
}

func (d *DirectionDetector) trackPeak(p geom.Vec3) {
	if dist := p.Sub(d.halfStart).Norm(); dist > d.peakDist {
		d.peakDist = dist
	}
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
