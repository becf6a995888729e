// Command motus runs the motion engine against a live tracker or a
// recording: it binds an exercise profile, counts repetitions, measures
// ROM, and serves the live monitor while persisting results.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/motusrehab/motus/internal/config"
	"github.com/motusrehab/motus/internal/monitoring"
	"github.com/motusrehab/motus/internal/motion/geom"
	"github.com/motusrehab/motus/internal/motion/monitor"
	"github.com/motusrehab/motus/internal/motion/posesource"
	"github.com/motusrehab/motus/internal/motion/profile"
	"github.com/motusrehab/motus/internal/motion/session"
	"github.com/motusrehab/motus/internal/motion/sparc"
	"github.com/motusrehab/motus/internal/motion/storage/sqlite"
	"github.com/motusrehab/motus/internal/motion/telemetry"
)

var (
	profileName = flag.String("profile", "pendulum-swing", "Exercise profile to run (see -list-profiles)")
	listFlag    = flag.Bool("list-profiles", false, "List available exercise profiles and exit")
	source      = flag.String("source", "serial", "Sample source: serial or replay")
	serialPort  = flag.String("port", "/dev/ttyUSB0", "Tracker serial port")
	baudRate    = flag.Int("baud", 115200, "Tracker serial baud rate")
	replayFile  = flag.String("replay", "", "Recorded t,x,y,z CSV file for -source=replay")
	tuningFile  = flag.String("tuning", "", "Tuning overrides JSON file")
	armLength   = flag.Float64("arm", 0, "Calibrated arm length in meters (0 = default)")
	dbFile      = flag.String("db", "motus.db", "Path to the SQLite database file (empty disables persistence)")
	listen      = flag.String("listen", ":8080", "Monitor HTTP listen address (empty disables the monitor)")
	mqttBroker  = flag.String("mqtt", "", "MQTT broker URL, e.g. tcp://localhost:1883 (empty disables telemetry)")
	mqttTopic   = flag.String("mqtt-topic", "motus", "MQTT topic prefix")
)

func main() {
	flag.Parse()

	if *listFlag {
		fmt.Println(strings.Join(profile.Names(), "\n"))
		return
	}

	if err := run(); err != nil {
		log.Fatalf("motus: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prof, err := profile.Builtin(*profileName)
	if err != nil {
		return err
	}
	tuning := config.EmptyTuningConfig()
	if *tuningFile != "" {
		tuning, err = config.LoadTuningConfig(*tuningFile)
		if err != nil {
			return err
		}
	}
	prof = tuning.ApplyToProfile(prof)
	if *armLength != 0 {
		prof.ArmLengthMeters = *armLength
	}

	var store *sqlite.Store
	if *dbFile != "" {
		store, err = sqlite.Open(*dbFile)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var publisher *telemetry.Publisher
	if *mqttBroker != "" {
		publisher, err = telemetry.Connect(telemetry.Config{
			BrokerURL:   *mqttBroker,
			ClientID:    "motus-" + *profileName,
			TopicPrefix: *mqttTopic,
		})
		if err != nil {
			return err
		}
		defer publisher.Close()
	}

	scorer := sparc.NewScorer(sparc.DefaultConfig())

	var sess *session.Session
	callbacks := session.Callbacks{
		OnRepDetected: func(index int, rom float64) {
			monitoring.Logf("rep %d: ROM %.1f°", index, rom)
			if store != nil {
				err := store.SaveRep(ctx, sqlite.RepRecord{
					SessionID:  sess.ID(),
					RepIndex:   index,
					ROMDegrees: rom,
				})
				if err != nil {
					monitoring.Logf("persist rep %d: %v", index, err)
				}
			}
			if publisher != nil {
				publisher.PublishRep(telemetry.RepEvent{
					SessionID:  sess.ID(),
					Profile:    prof.Name,
					RepIndex:   index,
					ROMDegrees: rom,
				})
			}
		},
	}

	sess, err = session.New(prof,
		session.WithCallbacks(callbacks),
		session.WithSmoothnessSink(scorer))
	if err != nil {
		return err
	}

	if *listen != "" {
		server := monitor.NewWebServer(monitor.Config{
			Address:  *listen,
			Provider: sess,
			Store:    store,
		})
		go server.Start(ctx)
	}

	if err := sess.Start(); err != nil {
		return err
	}
	if store != nil {
		snap := sess.Snapshot()
		err := store.SaveSession(ctx, sqlite.SessionRecord{
			ID:        snap.ID,
			Profile:   snap.Profile,
			StartedAt: snap.StartedAt,
		})
		if err != nil {
			return err
		}
	}

	if err := feedSamples(ctx, sess); err != nil && ctx.Err() == nil {
		monitoring.Logf("sample source stopped: %v", err)
	}

	final := sess.End()
	snap := sess.Snapshot()
	monitoring.Logf("session %s finished: %d reps, max ROM %.1f°", snap.ID, final, snap.MaxROMDegrees)

	var smoothness *float64
	if score, err := scorer.Score(); err == nil {
		smoothness = &score
		monitoring.Logf("smoothness (spectral arc length): %.3f", score)
	} else {
		monitoring.Logf("smoothness unavailable: %v", err)
	}

	if store != nil {
		// Persist with a fresh context; ctx is likely already cancelled.
		err := store.SaveSession(context.Background(), sqlite.SessionRecord{
			ID:              snap.ID,
			Profile:         snap.Profile,
			StartedAt:       snap.StartedAt,
			EndedAt:         snap.StartedAt.Add(durationOf(snap)),
			FinalRepCount:   final,
			MaxROMDegrees:   snap.MaxROMDegrees,
			SmoothnessScore: smoothness,
		})
		if err != nil {
			return err
		}
	}
	if publisher != nil {
		publisher.PublishSummary(snap, smoothness)
	}
	return nil
}

func durationOf(snap session.Snapshot) time.Duration {
	return time.Duration(snap.DurationSec * float64(time.Second))
}

// feedSamples streams samples from the selected source into the session.
func feedSamples(ctx context.Context, sess *session.Session) error {
	handler := func(t float64, p geom.Vec3) {
		sess.ProcessPosition(t, p)
	}

	switch *source {
	case "serial":
		src, err := posesource.OpenSerial(*serialPort, *baudRate)
		if err != nil {
			return err
		}
		return src.Run(ctx, handler)
	case "replay":
		if *replayFile == "" {
			return fmt.Errorf("-source=replay requires -replay <file>")
		}
		f, err := os.Open(*replayFile)
		if err != nil {
			return err
		}
		defer f.Close()
		return posesource.NewReplay(f).Run(ctx, handler)
	default:
		return fmt.Errorf("unknown source %q (want serial or replay)", *source)
	}
}
