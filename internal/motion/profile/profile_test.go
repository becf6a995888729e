package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinsValidate(t *testing.T) {
	t.Parallel()

	for _, name := range Names() {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p, err := Builtin(name)
			require.NoError(t, err)
			assert.Equal(t, name, p.Name)
			assert.NoError(t, p.Validate())
		})
	}
}

func TestBuiltinUnknown(t *testing.T) {
	t.Parallel()

	_, err := Builtin("jumping-jacks")
	assert.Error(t, err)
}

func TestValidateRejectsMismatches(t *testing.T) {
	t.Parallel()

	base, err := Builtin("pendulum-swing")
	require.NoError(t, err)

	t.Run("missing name", func(t *testing.T) {
		t.Parallel()
		p := base
		p.Name = ""
		assert.Error(t, p.Validate())
	})

	t.Run("direction change with detector ROM", func(t *testing.T) {
		t.Parallel()
		p := base
		p.ROMModel = ROMModelDetector
		assert.Error(t, p.Validate())
	})

	t.Run("phase threshold with arc ROM", func(t *testing.T) {
		t.Parallel()
		p, err := Builtin("overhead-reach")
		require.NoError(t, err)
		p.ROMModel = ROMModelArcLength
		assert.Error(t, p.Validate())
	})

	t.Run("camera mode required", func(t *testing.T) {
		t.Parallel()
		p, err := Builtin("overhead-reach")
		require.NoError(t, err)
		p.Camera.Mode = ""
		assert.Error(t, p.Validate())
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		t.Parallel()
		p := base
		p.Algorithm = "imu-velocity"
		assert.Error(t, p.Validate())
	})

	t.Run("bad pattern kind", func(t *testing.T) {
		t.Parallel()
		p, err := Builtin("triangle-trace")
		require.NoError(t, err)
		p.Pattern = &PatternSettings{Kind: "hexagon"}
		assert.Error(t, p.Validate())
	})
}

func TestNamesSorted(t *testing.T) {
	t.Parallel()

	names := Names()
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}
