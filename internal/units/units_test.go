package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRadDegRoundTrip(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 180.0, RadToDeg(math.Pi), 1e-12)
	assert.InDelta(t, math.Pi/2, DegToRad(90), 1e-12)
	assert.InDelta(t, 57.2957795, RadToDeg(1), 1e-6)
}

func TestClampDeg(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.0, ClampDeg(-5, 0, 360))
	assert.Equal(t, 360.0, ClampDeg(400, 0, 360))
	assert.Equal(t, 123.4, ClampDeg(123.4, 0, 360))
	// NaN must never escape into reported ROM.
	assert.Equal(t, 0.0, ClampDeg(math.NaN(), 0, 90))
}

func TestNormToPixels(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 640.0, NormToPixels(0.5, 1280), 1e-12)
}
