package rom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motusrehab/motus/internal/motion/geom"
	"github.com/motusrehab/motus/internal/testutil"
)

func feed(c *ArcCalculator, pts []testutil.TimedPosition) {
	for _, p := range pts {
		c.Observe(geom.Vec3{X: p.X, Y: p.Y, Z: p.Z})
	}
}

func TestSanitizeArmLength(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.65, SanitizeArmLength(0.65))
	assert.Equal(t, DefaultArmLengthMeters, SanitizeArmLength(0))
	assert.Equal(t, DefaultArmLengthMeters, SanitizeArmLength(-1))
	assert.Equal(t, DefaultArmLengthMeters, SanitizeArmLength(math.NaN()))
	assert.Equal(t, DefaultArmLengthMeters, SanitizeArmLength(math.Inf(1)))
}

func TestArcROMPendulumCycle(t *testing.T) {
	t.Parallel()
	c := NewArcCalculator(DefaultArcConfig(), 0.70)

	// One full out-and-back swing of 0.5 m amplitude: arc ≈ 1.0 m.
	feed(c, testutil.PendulumX(0.5, 2, 25, 1.0/60))

	rom, accepted := c.CompleteRep()
	require.True(t, accepted)
	assert.InDelta(t, (1.0/0.70)*180/math.Pi, rom, 0.5)
}

func TestArcROMPlaneSelection(t *testing.T) {
	t.Parallel()

	t.Run("in-plane trajectory loses nothing to projection", func(t *testing.T) {
		t.Parallel()
		c := NewArcCalculator(DefaultArcConfig(), 0.70)
		for _, p := range testutil.CircleXY(0, 0, 0.2, 1, 36, 1.0/30) {
			c.Observe(geom.Vec3{X: p.X, Y: p.Y})
		}
		raw := c.RawArcMeters()
		rom, accepted := c.CompleteRep()
		require.True(t, accepted)
		assert.InDelta(t, (raw/0.70)*180/math.Pi, rom, 1e-9)
	})

	t.Run("out-of-plane trajectory would be underestimated by a fixed plane", func(t *testing.T) {
		t.Parallel()
		// Diagonal swing in X-Z. The variance-selected X-Z plane keeps the
		// full arc; a hardcoded X-Y projection would halve it.
		c := NewArcCalculator(DefaultArcConfig(), 0.70)
		steps := 50
		for i := 0; i <= steps; i++ {
			f := float64(i) / float64(steps)
			c.Observe(geom.Vec3{X: 0.3 * f, Z: 0.3 * f})
		}
		raw := c.RawArcMeters()
		rom, accepted := c.CompleteRep()
		require.True(t, accepted)

		fullROM := (raw / 0.70) * 180 / math.Pi
		assert.InDelta(t, fullROM, rom, 1e-9)

		// The X-Y projection of the same trajectory is materially shorter.
		xyArc := 0.3 // X extent only
		assert.Less(t, (xyArc/0.70)*180/math.Pi, fullROM*0.75)
	})
}

func TestArcROMDiscardBelowThreshold(t *testing.T) {
	t.Parallel()
	c := NewArcCalculator(DefaultArcConfig(), 0.70)

	// 3 cm of total travel: below the 5 cm minimum arc.
	for i := 0; i <= 10; i++ {
		c.Observe(geom.Vec3{X: 0.003 * float64(i)})
	}
	rom, accepted := c.CompleteRep()
	assert.False(t, accepted)
	assert.Zero(t, rom)
}

func TestArcROMNoCrossRepLeakage(t *testing.T) {
	t.Parallel()
	c := NewArcCalculator(DefaultArcConfig(), 0.70)

	feed(c, testutil.PendulumX(0.5, 2, 25, 1.0/60))
	first, accepted := c.CompleteRep()
	require.True(t, accepted)

	// The second rep travels half as far; its ROM must not inherit the
	// first rep's arc.
	feed(c, testutil.PendulumX(0.25, 2, 25, 1.0/60))
	second, accepted := c.CompleteRep()
	require.True(t, accepted)
	assert.InDelta(t, first/2, second, 1.0)
}

func TestArcROMResetAfterDiscard(t *testing.T) {
	t.Parallel()
	c := NewArcCalculator(DefaultArcConfig(), 0.70)

	c.Observe(geom.Vec3{})
	c.Observe(geom.Vec3{X: 0.01})
	_, accepted := c.CompleteRep()
	require.False(t, accepted)

	// Discarded rep still cleared the buffer.
	assert.Zero(t, c.RawArcMeters())
	_, accepted = c.CompleteRep()
	assert.False(t, accepted)
}

func TestArcROMNoiseFloor(t *testing.T) {
	t.Parallel()
	c := NewArcCalculator(DefaultArcConfig(), 0.70)

	// Sub-floor jitter accumulates no arc length.
	for i := 0; i < 100; i++ {
		c.Observe(geom.Vec3{X: 0.0002 * float64(i%2)})
	}
	assert.Zero(t, c.RawArcMeters())
}

func TestArcROMSkipsBadSamples(t *testing.T) {
	t.Parallel()
	c := NewArcCalculator(DefaultArcConfig(), 0.70)

	c.Observe(geom.Vec3{})
	c.Observe(geom.Vec3{X: math.NaN()})
	c.Observe(geom.Vec3{X: math.Inf(-1), Y: 1})
	c.Observe(geom.Vec3{X: 0.1})
	assert.InDelta(t, 0.1, c.RawArcMeters(), 1e-12)
}

func TestArcROMClampUpper(t *testing.T) {
	t.Parallel()
	c := NewArcCalculator(DefaultArcConfig(), 0.70)

	// 10 m of arc at 0.7 m arm length is > 360°; the report clamps.
	for i := 0; i <= 100; i++ {
		c.Observe(geom.Vec3{X: 0.1 * float64(i)})
	}
	rom, accepted := c.CompleteRep()
	require.True(t, accepted)
	assert.Equal(t, 360.0, rom)
}

func TestRadiusROM(t *testing.T) {
	t.Parallel()

	t.Run("converged center yields asin model", func(t *testing.T) {
		t.Parallel()
		c := NewRadiusCalculator(0.70)

		// Symmetric points converge the incremental mean onto the true
		// center, so the peak radius settles at 0.15.
		for rev := 0; rev < 4; rev++ {
			for _, p := range testutil.CircleXY(0.25, 0, 0.15, 1, 36, 1.0/30) {
				c.Observe(geom.Vec3{X: p.X, Y: p.Y})
			}
			c.CompleteRep()
		}
		for _, p := range testutil.CircleXY(0.25, 0, 0.15, 1, 36, 1.0/30) {
			c.Observe(geom.Vec3{X: p.X, Y: p.Y})
		}
		rom, accepted := c.CompleteRep()
		require.True(t, accepted)
		assert.InDelta(t, math.Asin(0.15/0.70)*180/math.Pi, rom, 1.0)
	})

	t.Run("peak radius resets per repetition", func(t *testing.T) {
		t.Parallel()
		c := NewRadiusCalculator(0.70)
		c.Observe(geom.Vec3{})
		c.Observe(geom.Vec3{X: 0.4})
		first, _ := c.CompleteRep()

		// A tighter second rep must report a smaller ROM, not the
		// session-wide maximum.
		c.Observe(geom.Vec3{X: 0.21})
		second, _ := c.CompleteRep()
		assert.Less(t, second, first)
	})

	t.Run("radius beyond arm length saturates at 90", func(t *testing.T) {
		t.Parallel()
		c := NewRadiusCalculator(0.70)
		c.Observe(geom.Vec3{})
		c.Observe(geom.Vec3{X: 5})
		rom, accepted := c.CompleteRep()
		require.True(t, accepted)
		assert.Equal(t, 90.0, rom)
	})

	t.Run("empty rep is not accepted", func(t *testing.T) {
		t.Parallel()
		c := NewRadiusCalculator(0.70)
		_, accepted := c.CompleteRep()
		assert.False(t, accepted)
	})
}
