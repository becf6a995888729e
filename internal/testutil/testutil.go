// Package testutil provides shared test fixtures for the motion engine.
//
// The helpers here generate the synthetic trajectories used across detector
// and calculator tests so individual test files do not each reinvent them.
package testutil

import (
	"math"
	"testing"
)

// TimedPosition is a timestamped 3D sample used by trajectory generators.
// It mirrors the engine's sample shape without importing engine packages,
// so any package can consume the fixtures.
type TimedPosition struct {
	T       float64 // seconds
	X, Y, Z float64 // meters
}

// PendulumX generates cycles of back-and-forth motion along the X axis:
// each half-cycle travels from 0 to amplitude (or back) in steps samples.
// Samples are spaced dt seconds apart; halfCycles half-cycles are produced.
func PendulumX(amplitude float64, halfCycles, steps int, dt float64) []TimedPosition {
	var out []TimedPosition
	t := 0.0
	pos := 0.0
	for h := 0; h < halfCycles; h++ {
		target := amplitude
		if h%2 == 1 {
			target = 0
		}
		start := pos
		for s := 1; s <= steps; s++ {
			frac := float64(s) / float64(steps)
			pos = start + (target-start)*frac
			t += dt
			out = append(out, TimedPosition{T: t, X: pos})
		}
	}
	return out
}

// CircleXY generates revolutions of circular motion of the given radius in
// the X-Y plane around (cx, cy), sampled stepsPerRev times per revolution.
func CircleXY(cx, cy, radius float64, revolutions float64, stepsPerRev int, dt float64) []TimedPosition {
	total := int(revolutions * float64(stepsPerRev))
	out := make([]TimedPosition, 0, total)
	t := 0.0
	for i := 0; i <= total; i++ {
		theta := 2 * math.Pi * float64(i) / float64(stepsPerRev)
		t += dt
		out = append(out, TimedPosition{
			T: t,
			X: cx + radius*math.Cos(theta),
			Y: cy + radius*math.Sin(theta),
		})
	}
	return out
}

// AssertNoError fails the test immediately if err is non-nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
