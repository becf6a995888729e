// Package session hosts one exercise attempt: it binds a motion profile to
// the matching rep detector and ROM calculator, feeds them samples, and
// publishes rep counts and ROM to observers.
//
// A Session is created per attempt and discarded afterwards; there are no
// process-wide singletons. All per-sample mutation happens under one mutex
// with a single writer (the pose source goroutine); readers take snapshots.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/motusrehab/motus/internal/monitoring"
	"github.com/motusrehab/motus/internal/motion/campose"
	"github.com/motusrehab/motus/internal/motion/geom"
	"github.com/motusrehab/motus/internal/motion/profile"
	"github.com/motusrehab/motus/internal/motion/rep"
	"github.com/motusrehab/motus/internal/motion/rom"
	"github.com/motusrehab/motus/internal/timeutil"
)

// SmoothnessSink receives the raw sample stream for out-of-band smoothness
// scoring. Implementations must be safe for the single writer calling them
// from the sample path.
type SmoothnessSink interface {
	Observe(t float64, p geom.Vec3)
}

// Callbacks are the observer hooks fired by a session. All fields are
// optional; nil callbacks are skipped. Callbacks run synchronously on the
// sample path after the session's lock is released.
type Callbacks struct {
	// OnRepDetected fires exactly once per accepted repetition.
	OnRepDetected func(repIndex int, romDegrees float64)

	// OnLiveROMUpdated fires on every processed position sample with the
	// interim ROM. Best-effort display signal, not an accounting record.
	OnLiveROMUpdated func(romDegrees float64)

	// OnPatternEvent fires for every pattern connection attempt.
	OnPatternEvent func(ev campose.PatternEvent)
}

// romCalculator is the per-rep ROM surface shared by both models.
type romCalculator interface {
	Observe(p geom.Vec3)
	LiveROM() float64
	CompleteRep() (romDegrees float64, accepted bool)
	Reset()
}

// Snapshot is a point-in-time copy of a session's published state.
type Snapshot struct {
	ID          string    `json:"id"`
	Profile     string    `json:"profile"`
	Active      bool      `json:"active"`
	StartedAt   time.Time `json:"started_at"`
	DurationSec float64   `json:"duration_sec"`

	RepCount       int       `json:"rep_count"`
	LiveROMDegrees float64   `json:"live_rom_degrees"`
	MaxROMDegrees  float64   `json:"max_rom_degrees"`
	RepROMs        []float64 `json:"rep_roms"`

	PatternCompleted int `json:"pattern_completed,omitempty"`
	PatternIncorrect int `json:"pattern_incorrect,omitempty"`
}

// Session runs one exercise attempt against one motion profile.
type Session struct {
	mu sync.Mutex

	id    string
	prof  profile.Profile
	clock timeutil.Clock
	cb    Callbacks

	active    bool
	ended     bool
	startedAt time.Time
	endedAt   time.Time

	// Spatial pipeline (direction-change and circular profiles).
	direction *rep.DirectionDetector
	circular  *rep.CircularDetector
	calc      romCalculator

	// Camera pipeline (phase-threshold profiles).
	vertical *campose.VerticalTravelDetector
	flexion  *campose.FlexionDetector
	pattern  *campose.PatternValidator

	smoothness SmoothnessSink

	repCount    int
	liveROM     float64
	maxROM      float64
	repROMs     []float64
	lastSampleT float64
	haveSample  bool
}

// Option customizes a session at construction.
type Option func(*Session)

// WithClock substitutes the wall clock, for tests.
func WithClock(c timeutil.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithSmoothnessSink forwards every position sample to an external
// smoothness scorer.
func WithSmoothnessSink(sink SmoothnessSink) Option {
	return func(s *Session) { s.smoothness = sink }
}

// WithCallbacks installs the observer hooks.
func WithCallbacks(cb Callbacks) Option {
	return func(s *Session) { s.cb = cb }
}

// New builds an idle session for the given profile. Start begins the
// attempt.
func New(p profile.Profile, opts ...Option) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s := &Session{
		id:    uuid.NewString(),
		prof:  p,
		clock: timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}

	// A zero arm length means "not calibrated" and takes the default
	// silently; anything else goes through validation.
	arm := p.ArmLengthMeters
	if arm == 0 {
		arm = rom.DefaultArmLengthMeters
	} else {
		arm = rom.SanitizeArmLength(arm)
	}
	switch p.Algorithm {
	case profile.AlgorithmDirectionChange:
		s.direction = rep.NewDirectionDetector(p.Direction)
	case profile.AlgorithmCircularCompletion:
		s.circular = rep.NewCircularDetector(p.Circular)
	case profile.AlgorithmPhaseThreshold:
		switch p.Camera.Mode {
		case profile.CameraModeVerticalTravel:
			s.vertical = campose.NewVerticalTravelDetector(p.Camera.VerticalTravel)
		case profile.CameraModeExtensionFlexion:
			s.flexion = campose.NewFlexionDetector(p.Camera.Flexion)
		}
	}
	switch p.ROMModel {
	case profile.ROMModelArcLength:
		s.calc = rom.NewArcCalculator(p.Arc, arm)
	case profile.ROMModelRadius:
		s.calc = rom.NewRadiusCalculator(arm)
	}
	if p.Pattern != nil {
		spec, err := campose.NewPatternSpec(p.Pattern.Kind, p.Pattern.Size)
		if err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
		s.pattern = campose.NewPatternValidator(spec)
	}
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Profile returns the bound motion profile.
func (s *Session) Profile() profile.Profile { return s.prof }

// Start begins the attempt. Starting an already-active session is an
// error; starting after End requires Reset first.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return fmt.Errorf("session %s: already active", s.id)
	}
	if s.ended {
		return fmt.Errorf("session %s: ended, reset before restarting", s.id)
	}
	s.active = true
	s.startedAt = s.clock.Now()
	monitoring.Logf("session %s: started profile %s", s.id, s.prof.Name)
	return nil
}

// ProcessPosition consumes one timestamped 3D position for spatial
// profiles. Samples arriving while the session is idle are dropped.
func (s *Session) ProcessPosition(t float64, p geom.Vec3) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.lastSampleT = t
	s.haveSample = true

	if s.smoothness != nil {
		s.smoothness.Observe(t, p)
	}

	var (
		repFired bool
		repIndex int
		repROM   float64
		liveROM  float64
	)

	sample := rep.Sample{T: t, P: p}
	switch {
	case s.direction != nil:
		s.calc.Observe(p)
		if ev := s.direction.Process(sample); ev.RepCompleted {
			repFired, repIndex, repROM = s.finalizeRepLocked(ev)
		}
	case s.circular != nil:
		s.calc.Observe(p)
		if ev := s.circular.Process(sample); ev.RepCompleted {
			repFired, repIndex, repROM = s.finalizeRepLocked(ev)
		}
	default:
		s.mu.Unlock()
		return
	}

	s.liveROM = s.calc.LiveROM()
	liveROM = s.liveROM
	cb := s.cb
	s.mu.Unlock()

	if repFired && cb.OnRepDetected != nil {
		cb.OnRepDetected(repIndex, repROM)
	}
	if cb.OnLiveROMUpdated != nil {
		cb.OnLiveROMUpdated(liveROM)
	}
}

// finalizeRepLocked closes the ROM accumulator for a detector-completed
// repetition. The detector's count is advisory; a rep only counts when the
// ROM model accepts it. For arc-length ROM the next repetition's trajectory
// starts at the turn point.
func (s *Session) finalizeRepLocked(ev rep.Event) (fired bool, index int, romDeg float64) {
	romDeg, accepted := s.calc.CompleteRep()
	if s.direction != nil {
		// The reversal point belongs to both reps: it ends this one and
		// begins the next.
		s.calc.Observe(ev.TurnPoint)
	}
	if !accepted {
		return false, 0, 0
	}
	s.repCount++
	s.repROMs = append(s.repROMs, romDeg)
	if romDeg > s.maxROM {
		s.maxROM = romDeg
	}
	return true, s.repCount, romDeg
}

// ProcessLandmarks consumes one camera frame for phase-threshold profiles.
func (s *Session) ProcessLandmarks(f campose.Frame) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.lastSampleT = f.T
	s.haveSample = true

	var ev campose.Event
	switch {
	case s.vertical != nil:
		ev = s.vertical.Process(f)
	case s.flexion != nil:
		ev = s.flexion.Process(f)
	default:
		s.mu.Unlock()
		return
	}

	var repIndex int
	if ev.RepCompleted {
		s.repCount++
		repIndex = s.repCount
		s.repROMs = append(s.repROMs, ev.ROMDegrees)
		if ev.ROMDegrees > s.maxROM {
			s.maxROM = ev.ROMDegrees
		}
		s.liveROM = ev.ROMDegrees
	}
	cb := s.cb
	s.mu.Unlock()

	if ev.RepCompleted && cb.OnRepDetected != nil {
		cb.OnRepDetected(repIndex, ev.ROMDegrees)
	}
}

// ProcessPatternPoint records one connect-the-dots connection attempt for
// profiles with pattern validation. No-op for other profiles.
func (s *Session) ProcessPatternPoint(point int) {
	s.mu.Lock()
	if !s.active || s.pattern == nil {
		s.mu.Unlock()
		return
	}
	ev := s.pattern.Connect(point)
	cb := s.cb
	s.mu.Unlock()

	if cb.OnPatternEvent != nil {
		cb.OnPatternEvent(ev)
	}
}

// End stops the attempt and returns the final repetition count. A
// qualifying in-flight repetition (one banked half-cycle with the closing
// reversal missing because motion stopped) is finalized first. Ending an
// already-ended or never-started session returns the current count.
func (s *Session) End() int {
	s.mu.Lock()
	if !s.active {
		count := s.repCount
		s.mu.Unlock()
		return count
	}

	var (
		repFired bool
		repIndex int
		repROM   float64
	)
	if s.direction != nil && s.haveSample {
		if ev := s.direction.Flush(s.lastSampleT); ev.RepCompleted {
			repFired, repIndex, repROM = s.finalizeRepLocked(ev)
		}
	}

	s.active = false
	s.ended = true
	s.endedAt = s.clock.Now()
	count := s.repCount
	cb := s.cb
	monitoring.Logf("session %s: ended with %d reps, max ROM %.1f°", s.id, count, s.maxROM)
	s.mu.Unlock()

	if repFired && cb.OnRepDetected != nil {
		cb.OnRepDetected(repIndex, repROM)
	}
	return count
}

// Reset returns the session to idle with all per-attempt state cleared.
// Resetting an idle session is a no-op beyond clearing counters.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = false
	s.ended = false
	s.repCount = 0
	s.liveROM = 0
	s.maxROM = 0
	s.repROMs = nil
	s.lastSampleT = 0
	s.haveSample = false
	s.startedAt = time.Time{}
	s.endedAt = time.Time{}

	if s.direction != nil {
		s.direction.Reset()
	}
	if s.circular != nil {
		s.circular.Reset()
	}
	if s.calc != nil {
		s.calc.Reset()
	}
	if s.vertical != nil {
		s.vertical.Reset()
	}
	if s.flexion != nil {
		s.flexion.Reset()
	}
	if s.pattern != nil {
		s.pattern.Reset()
	}
}

// Snapshot returns a copy of the published state, safe to read while
// samples are in flight.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:             s.id,
		Profile:        s.prof.Name,
		Active:         s.active,
		StartedAt:      s.startedAt,
		RepCount:       s.repCount,
		LiveROMDegrees: s.liveROM,
		MaxROMDegrees:  s.maxROM,
		RepROMs:        append([]float64(nil), s.repROMs...),
	}
	if !s.startedAt.IsZero() {
		end := s.endedAt
		if s.active {
			end = s.clock.Now()
		}
		if !end.IsZero() {
			snap.DurationSec = end.Sub(s.startedAt).Seconds()
		}
	}
	if s.pattern != nil {
		snap.PatternCompleted = s.pattern.CompletedCount()
		snap.PatternIncorrect = s.pattern.IncorrectCount()
	}
	return snap
}
