// Package sparc scores movement smoothness with the spectral arc length
// metric: the arc length of the normalized magnitude spectrum of the speed
// profile. Scores are negative; values closer to zero indicate smoother
// movement. A session forwards its sample stream here and reads the score
// once the attempt ends.
package sparc

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/motusrehab/motus/internal/motion/geom"
)

// Config holds tuning for the spectral arc length computation.
type Config struct {
	// CutoffHz bounds the analyzed frequency band. Voluntary rehab motion
	// lives well below 10 Hz; everything above is tremor or sensor noise.
	CutoffHz float64

	// AmplitudeThreshold adaptively trims the band: frequencies past the
	// last spectral component at or above this normalized magnitude do not
	// contribute.
	AmplitudeThreshold float64

	// PadFactor zero-pads the speed profile to this multiple of its length
	// (rounded up to a power of two) for frequency resolution.
	PadFactor int
}

// DefaultConfig returns the tuning from the published formulation of the
// metric.
func DefaultConfig() Config {
	return Config{
		CutoffHz:           10,
		AmplitudeThreshold: 0.05,
		PadFactor:          4,
	}
}

// MinSamples is the fewest speed samples that produce a meaningful score.
const MinSamples = 16

// Scorer accumulates a session's position stream and computes its spectral
// arc length on demand. Safe for one writer and concurrent readers.
type Scorer struct {
	cfg Config

	mu       sync.Mutex
	firstT   float64
	lastT    float64
	last     geom.Vec3
	haveLast bool
	speeds   []float64
}

// NewScorer builds a scorer; a zero Config field takes its default.
func NewScorer(cfg Config) *Scorer {
	def := DefaultConfig()
	if cfg.CutoffHz <= 0 {
		cfg.CutoffHz = def.CutoffHz
	}
	if cfg.AmplitudeThreshold <= 0 {
		cfg.AmplitudeThreshold = def.AmplitudeThreshold
	}
	if cfg.PadFactor < 1 {
		cfg.PadFactor = def.PadFactor
	}
	return &Scorer{cfg: cfg}
}

// Observe folds one timestamped position into the speed profile. Non-finite
// samples and non-increasing timestamps are skipped.
func (s *Scorer) Observe(t float64, p geom.Vec3) {
	if !p.IsFinite() || math.IsNaN(t) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.haveLast {
		s.firstT = t
		s.lastT = t
		s.last = p
		s.haveLast = true
		return
	}
	dt := t - s.lastT
	if dt <= 0 {
		return
	}
	s.speeds = append(s.speeds, p.Sub(s.last).Norm()/dt)
	s.lastT = t
	s.last = p
}

// SampleCount returns the number of accumulated speed samples.
func (s *Scorer) SampleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.speeds)
}

// Reset clears the accumulated profile for a new session.
func (s *Scorer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speeds = nil
	s.haveLast = false
	s.firstT = 0
	s.lastT = 0
}

// Score computes the spectral arc length of the accumulated speed profile.
func (s *Scorer) Score() (float64, error) {
	s.mu.Lock()
	speeds := append([]float64(nil), s.speeds...)
	duration := s.lastT - s.firstT
	s.mu.Unlock()

	if len(speeds) < MinSamples {
		return 0, fmt.Errorf("sparc: need at least %d speed samples, have %d", MinSamples, len(speeds))
	}
	if duration <= 0 {
		return 0, fmt.Errorf("sparc: degenerate time span %v", duration)
	}
	sampleRate := float64(len(speeds)) / duration

	// Zero-pad to a power of two at least PadFactor times the profile.
	n := 1
	for n < len(speeds)*s.cfg.PadFactor {
		n <<= 1
	}
	padded := make([]float64, n)
	copy(padded, speeds)

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, padded)

	// Normalized magnitude spectrum up to the fixed cutoff.
	var (
		mags  []float64
		freqs []float64
		max   float64
	)
	for i, c := range coeffs {
		f := sampleRate * float64(i) / float64(n)
		if f > s.cfg.CutoffHz {
			break
		}
		m := cmplx.Abs(c)
		mags = append(mags, m)
		freqs = append(freqs, f)
		if m > max {
			max = m
		}
	}
	if max == 0 || len(mags) < 2 {
		return 0, fmt.Errorf("sparc: empty spectrum below %.1f Hz", s.cfg.CutoffHz)
	}
	for i := range mags {
		mags[i] /= max
	}

	// Adaptive band: drop everything past the last component above the
	// amplitude threshold.
	end := 0
	for i, m := range mags {
		if m >= s.cfg.AmplitudeThreshold {
			end = i
		}
	}
	if end < 1 {
		end = 1
	}
	mags = mags[:end+1]
	freqs = freqs[:end+1]

	bandWidth := freqs[len(freqs)-1]
	if bandWidth == 0 {
		return 0, fmt.Errorf("sparc: zero-width frequency band")
	}

	var arc float64
	for i := 1; i < len(mags); i++ {
		df := (freqs[i] - freqs[i-1]) / bandWidth
		dm := mags[i] - mags[i-1]
		arc += math.Sqrt(df*df + dm*dm)
	}
	return -arc, nil
}
