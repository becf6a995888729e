package rep

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motusrehab/motus/internal/motion/geom"
	"github.com/motusrehab/motus/internal/testutil"
)

func runPendulum(d *DirectionDetector, pts []testutil.TimedPosition) (events []Event, lastT float64) {
	for _, p := range pts {
		ev := d.Process(Sample{T: p.T, P: geom.Vec3{X: p.X, Y: p.Y, Z: p.Z}})
		if ev.RepCompleted {
			events = append(events, ev)
		}
		lastT = p.T
	}
	return events, lastT
}

func TestDirectionDetectorPendulum(t *testing.T) {
	t.Parallel()
	d := NewDirectionDetector(DefaultDirectionConfig())

	// Three full out-and-back cycles along X at 60 Hz, 0.5 m amplitude,
	// each half-cycle ~0.33 s.
	pts := testutil.PendulumX(0.5, 6, 20, 1.0/60)
	events, lastT := runPendulum(d, pts)

	// The third cycle's closing reversal never arrives (motion stops),
	// so the stream end finalizes it.
	if ev := d.Flush(lastT); ev.RepCompleted {
		events = append(events, ev)
	}

	require.Len(t, events, 3)
	assert.Equal(t, 3, d.RepCount())
	for i, ev := range events {
		assert.Equal(t, i+1, ev.RepIndex)
	}
}

func TestDirectionDetectorBelowDisplacement(t *testing.T) {
	t.Parallel()
	d := NewDirectionDetector(DefaultDirectionConfig())

	// 3 cm wiggles never reach the 5 cm displacement threshold.
	pts := testutil.PendulumX(0.03, 6, 10, 1.0/60)
	events, lastT := runPendulum(d, pts)
	if ev := d.Flush(lastT); ev.RepCompleted {
		events = append(events, ev)
	}

	assert.Empty(t, events)
	assert.Zero(t, d.RepCount())
}

func TestDirectionDetectorCooldown(t *testing.T) {
	t.Parallel()
	d := NewDirectionDetector(DefaultDirectionConfig())

	// Two complete cycles in 0.4 s: the second completes within the
	// 0.3 s cooldown of the first and must be discarded.
	pts := testutil.PendulumX(0.5, 4, 10, 0.01)
	events, _ := runPendulum(d, pts)

	require.Len(t, events, 1)
	assert.Equal(t, 1, d.RepCount())
}

func TestDirectionDetectorNoiseReversalDoesNotStall(t *testing.T) {
	t.Parallel()
	d := NewDirectionDetector(DefaultDirectionConfig())

	t0 := 0.0
	feed := func(x float64) Event {
		t0 += 1.0 / 60
		return d.Process(Sample{T: t0, P: geom.Vec3{X: x}})
	}

	// Out-swing to 0.5.
	for x := 0.0; x <= 0.5; x += 0.025 {
		feed(x)
	}
	// A 2 cm jitter reversal: below threshold, ignored as noise.
	feed(0.48)
	feed(0.49)
	// Real return swing to 0.
	for x := 0.5; x >= 0; x -= 0.025 {
		feed(x)
	}
	ev := d.Flush(t0)

	// The jitter neither counted nor prevented the real rep.
	assert.True(t, ev.RepCompleted)
	assert.Equal(t, 1, d.RepCount())
}

func TestDirectionDetectorInertSamples(t *testing.T) {
	t.Parallel()
	d := NewDirectionDetector(DefaultDirectionConfig())

	// Identical positions carry no direction.
	for i := 0; i < 20; i++ {
		ev := d.Process(Sample{T: float64(i) / 60, P: geom.Vec3{X: 0.1}})
		assert.False(t, ev.RepCompleted)
	}
	// Non-finite samples are skipped outright.
	ev := d.Process(Sample{T: 1, P: geom.Vec3{X: math.NaN()}})
	assert.False(t, ev.RepCompleted)
	assert.Zero(t, d.RepCount())
}

func TestDirectionDetectorFirstDirectionNeverCounts(t *testing.T) {
	t.Parallel()
	d := NewDirectionDetector(DefaultDirectionConfig())

	// A single out-swing with no reversal is not a repetition.
	pts := testutil.PendulumX(0.5, 1, 20, 1.0/60)
	events, lastT := runPendulum(d, pts)
	if ev := d.Flush(lastT); ev.RepCompleted {
		events = append(events, ev)
	}
	assert.Empty(t, events)
}

func TestDirectionDetectorWindowBound(t *testing.T) {
	t.Parallel()
	d := NewDirectionDetector(DefaultDirectionConfig())

	// 10 s of samples; the window holds only the trailing 2 s.
	for i := 0; i < 600; i++ {
		d.Process(Sample{T: float64(i) / 60, P: geom.Vec3{X: math.Sin(float64(i) / 10)}})
	}
	w := d.Window()
	require.NotEmpty(t, w)
	assert.GreaterOrEqual(t, w[0].T, w[len(w)-1].T-2.0)
}

func TestDirectionDetectorReset(t *testing.T) {
	t.Parallel()
	d := NewDirectionDetector(DefaultDirectionConfig())

	pts := testutil.PendulumX(0.5, 4, 20, 1.0/60)
	runPendulum(d, pts)
	require.NotZero(t, d.RepCount())

	d.Reset()
	assert.Zero(t, d.RepCount())
	assert.Empty(t, d.Window())

	// Detector is immediately usable for a fresh session.
	events, lastT := runPendulum(d, pts)
	if ev := d.Flush(lastT); ev.RepCompleted {
		events = append(events, ev)
	}
	assert.Equal(t, 2, d.RepCount())
	assert.Len(t, events, 2)
}
