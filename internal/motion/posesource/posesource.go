// Package posesource feeds timestamped 3D tracker samples into a session.
//
// Two sources are provided: a serial port carrying live "t,x,y,z" CSV lines
// from an inside-out tracker, and a replay source reading the same format
// from a file. Malformed lines are logged and skipped; the stream keeps
// going.
package posesource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.bug.st/serial"

	"github.com/motusrehab/motus/internal/monitoring"
	"github.com/motusrehab/motus/internal/motion/geom"
)

// Handler receives each decoded sample in arrival order.
type Handler func(t float64, p geom.Vec3)

// parseLine decodes one "t,x,y,z" CSV line.
func parseLine(line string) (float64, geom.Vec3, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 4 {
		return 0, geom.Vec3{}, fmt.Errorf("want 4 fields, got %d", len(fields))
	}
	vals := make([]float64, 4)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return 0, geom.Vec3{}, fmt.Errorf("field %d: %w", i, err)
		}
		vals[i] = v
	}
	return vals[0], geom.Vec3{X: vals[1], Y: vals[2], Z: vals[3]}, nil
}

// pump scans CSV lines from r and delivers decoded samples until EOF or
// context cancellation.
func pump(ctx context.Context, r io.Reader, h Handler) error {
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		t, p, err := parseLine(line)
		if err != nil {
			monitoring.Logf("posesource: skipping line %q: %v", line, err)
			continue
		}
		h(t, p)
	}
	return scan.Err()
}

// SerialSource reads tracker samples from a serial port.
type SerialSource struct {
	port io.ReadCloser
}

// OpenSerial opens the named serial port at the given baud rate. The
// tracker uses 8N1 framing.
func OpenSerial(portName string, baudRate int) (*SerialSource, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("posesource: open %s: %w", portName, err)
	}
	return &SerialSource{port: port}, nil
}

// NewSerialSource wraps an already-open port; tests inject pipes here.
func NewSerialSource(port io.ReadCloser) *SerialSource {
	return &SerialSource{port: port}
}

// Run reads samples until the port closes or the context ends. The port is
// closed on return.
func (s *SerialSource) Run(ctx context.Context, h Handler) error {
	defer s.port.Close()

	// A blocked Scan only wakes when the port closes, so cancellation
	// closes it out from under the scanner.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.port.Close()
		case <-done:
		}
	}()

	err := pump(ctx, s.port, h)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Close releases the underlying port.
func (s *SerialSource) Close() error {
	return s.port.Close()
}

// ReplaySource replays recorded tracker samples from a reader.
type ReplaySource struct {
	r io.Reader
}

// NewReplay builds a replay source over recorded "t,x,y,z" CSV data.
func NewReplay(r io.Reader) *ReplaySource {
	return &ReplaySource{r: r}
}

// Run delivers every recorded sample in order, as fast as the consumer
// accepts them. Sample timestamps come from the recording, so detector
// cooldowns behave exactly as they did live.
func (rs *ReplaySource) Run(ctx context.Context, h Handler) error {
	return pump(ctx, rs.r, h)
}
