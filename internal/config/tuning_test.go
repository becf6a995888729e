package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motusrehab/motus/internal/motion/profile"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestEmptyConfigUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg := EmptyTuningConfig()
	assert.InDelta(t, 0.7, cfg.GetArmLengthMeters(), 1e-9)
	assert.Equal(t, 300*time.Millisecond, cfg.GetCooldown())

	arc := cfg.ArcConfig()
	assert.InDelta(t, 0.0008, arc.NoiseFloorMeters, 1e-9)
	assert.InDelta(t, 0.05, arc.MinArcMeters, 1e-9)

	dir := cfg.DirectionConfig()
	assert.InDelta(t, 2.0, dir.WindowSeconds, 1e-9)
	assert.InDelta(t, 0.05, dir.MinDisplacementMeters, 1e-9)
	assert.InDelta(t, 0.3, dir.CooldownSeconds, 1e-9)

	circ := cfg.CircularConfig()
	assert.InDelta(t, 0.05, circ.CenterBlend, 1e-9)
	assert.InDelta(t, 0.15, circ.BasisBlend, 1e-9)
	assert.InDelta(t, 0.02, circ.MinRadiusMeters, 1e-9)
}

func TestLoadPartialConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `{"arm_length_meters": 0.55, "cooldown": "450ms"}`)
	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.55, cfg.GetArmLengthMeters(), 1e-9)
	assert.Equal(t, 450*time.Millisecond, cfg.GetCooldown())
	// Unspecified fields keep their defaults.
	assert.InDelta(t, 0.05, cfg.ArcConfig().MinArcMeters, 1e-9)
	assert.InDelta(t, 2.0, cfg.DirectionConfig().WindowSeconds, 1e-9)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	t.Parallel()

	t.Run("wrong extension", func(t *testing.T) {
		t.Parallel()
		_, err := LoadTuningConfig("tuning.yaml")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadTuningConfig(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()
		_, err := LoadTuningConfig(writeConfig(t, `{"arm_length_meters": `))
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Parallel()
		_, err := LoadTuningConfig(writeConfig(t, `{"arm_length_meters": -1}`))
		assert.Error(t, err)
		_, err = LoadTuningConfig(writeConfig(t, `{"cooldown": "soon"}`))
		assert.Error(t, err)
		_, err = LoadTuningConfig(writeConfig(t, `{"center_blend": 1.5}`))
		assert.Error(t, err)
		_, err = LoadTuningConfig(writeConfig(t, `{"min_confidence": 2}`))
		assert.Error(t, err)
	})
}

func TestValidateRanges(t *testing.T) {
	t.Parallel()

	cfg := EmptyTuningConfig()
	require.NoError(t, cfg.Validate())

	cfg.WindowSeconds = ptrFloat64(0)
	assert.Error(t, cfg.Validate())

	cfg = EmptyTuningConfig()
	cfg.Cooldown = ptrString("250ms")
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 250*time.Millisecond, cfg.GetCooldown())
}

func TestApplyToProfile(t *testing.T) {
	t.Parallel()

	base, err := profile.Builtin("pendulum-swing")
	require.NoError(t, err)

	cfg := EmptyTuningConfig()
	cfg.ArmLengthMeters = ptrFloat64(0.62)
	cfg.MinDisplacementMeters = ptrFloat64(0.08)
	cfg.Cooldown = ptrString("500ms")

	p := cfg.ApplyToProfile(base)
	assert.InDelta(t, 0.62, p.ArmLengthMeters, 1e-9)
	assert.InDelta(t, 0.08, p.Direction.MinDisplacementMeters, 1e-9)
	assert.InDelta(t, 0.5, p.Direction.CooldownSeconds, 1e-9)
	// The input profile is not mutated.
	assert.Zero(t, base.ArmLengthMeters)
	assert.InDelta(t, 0.05, base.Direction.MinDisplacementMeters, 1e-9)
}
