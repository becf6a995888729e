package posesource

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motusrehab/motus/internal/motion/geom"
)

type sample struct {
	t float64
	p geom.Vec3
}

func collect(samples *[]sample) Handler {
	return func(t float64, p geom.Vec3) {
		*samples = append(*samples, sample{t: t, p: p})
	}
}

func TestParseLine(t *testing.T) {
	t.Parallel()

	ts, p, err := parseLine("1.25, 0.1, -0.2, 0.3")
	require.NoError(t, err)
	assert.InDelta(t, 1.25, ts, 1e-9)
	assert.Equal(t, geom.Vec3{X: 0.1, Y: -0.2, Z: 0.3}, p)

	_, _, err = parseLine("1.25,0.1,-0.2")
	assert.Error(t, err)
	_, _, err = parseLine("1.25,0.1,-0.2,abc")
	assert.Error(t, err)
}

func TestReplayDeliversSamplesInOrder(t *testing.T) {
	t.Parallel()

	rec := strings.Join([]string{
		"# tracker recording",
		"0.000,0.00,0.00,0.00",
		"0.016,0.02,0.00,0.00",
		"",
		"not,a,sample,line,at,all",
		"0.033,0.04,0.00,0.00",
	}, "\n")

	var got []sample
	err := NewReplay(strings.NewReader(rec)).Run(context.Background(), collect(&got))
	require.NoError(t, err)

	want := []sample{
		{t: 0.000, p: geom.Vec3{}},
		{t: 0.016, p: geom.Vec3{X: 0.02}},
		{t: 0.033, p: geom.Vec3{X: 0.04}},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(sample{})); diff != "" {
		t.Errorf("replayed samples mismatch (-want +got):\n%s", diff)
	}
}

func TestReplayHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var got []sample
	err := NewReplay(strings.NewReader("0,1,2,3\n0.1,1,2,3\n")).Run(ctx, collect(&got))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, got)
}

func TestSerialSourceReadsUntilPortCloses(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	src := NewSerialSource(pr)

	var got []sample
	done := make(chan error, 1)
	go func() {
		done <- src.Run(context.Background(), collect(&got))
	}()

	_, err := pw.Write([]byte("0.000,0.10,0.00,0.00\n0.016,0.12,0.00,0.00\n"))
	require.NoError(t, err)
	require.NoError(t, pw.Close())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serial source did not stop after port close")
	}
	require.Len(t, got, 2)
	assert.InDelta(t, 0.12, got[1].p.X, 1e-9)
}

func TestSerialSourceStopsOnCancel(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	defer pw.Close()
	src := NewSerialSource(pr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- src.Run(ctx, func(float64, geom.Vec3) {})
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("serial source did not stop after cancellation")
	}
}
