// Command report renders an offline summary of a recorded exercise
// session: an interactive HTML chart of ROM per repetition and a static
// PNG suitable for embedding in a clinical note.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/motusrehab/motus/internal/motion/storage/sqlite"
)

var (
	dbFile    = flag.String("db", "motus.db", "Path to the SQLite database file")
	sessionID = flag.String("session", "", "Session id to report on (empty = most recent)")
	htmlOut   = flag.String("html", "report.html", "Output HTML report path (empty disables)")
	pngOut    = flag.String("png", "", "Output PNG chart path (empty disables)")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatalf("report: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	store, err := sqlite.Open(*dbFile)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := resolveSession(ctx, store)
	if err != nil {
		return err
	}
	reps, err := store.RepsForSession(ctx, sess.ID)
	if err != nil {
		return err
	}
	if len(reps) == 0 {
		return fmt.Errorf("session %s has no recorded repetitions", sess.ID)
	}

	if *htmlOut != "" {
		if err := writeHTML(sess, reps, *htmlOut); err != nil {
			return err
		}
		log.Printf("wrote %s", *htmlOut)
	}
	if *pngOut != "" {
		if err := writePNG(sess, reps, *pngOut); err != nil {
			return err
		}
		log.Printf("wrote %s", *pngOut)
	}
	return nil
}

// resolveSession picks the requested session, or the most recent one.
func resolveSession(ctx context.Context, store *sqlite.Store) (sqlite.SessionRecord, error) {
	if *sessionID != "" {
		return store.GetSession(ctx, *sessionID)
	}
	sessions, err := store.ListSessions(ctx, 1)
	if err != nil {
		return sqlite.SessionRecord{}, err
	}
	if len(sessions) == 0 {
		return sqlite.SessionRecord{}, fmt.Errorf("no sessions in %s", *dbFile)
	}
	return sessions[0], nil
}

func subtitle(sess sqlite.SessionRecord) string {
	s := fmt.Sprintf("profile=%s reps=%d max ROM=%.1f°", sess.Profile, sess.FinalRepCount, sess.MaxROMDegrees)
	if sess.SmoothnessScore != nil {
		s += fmt.Sprintf(" smoothness=%.2f", *sess.SmoothnessScore)
	}
	return s
}

func writeHTML(sess sqlite.SessionRecord, reps []sqlite.RepRecord, path string) error {
	labels := make([]string, len(reps))
	data := make([]opts.LineData, len(reps))
	for i, rep := range reps {
		labels[i] = fmt.Sprintf("%d", rep.RepIndex)
		data[i] = opts.LineData{Value: rep.ROMDegrees}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Session report " + sess.ID}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Range of motion per repetition",
			Subtitle: subtitle(sess),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "repetition"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ROM (deg)"}),
	)
	line.SetXAxis(labels).AddSeries("ROM", data)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return line.Render(f)
}

func writePNG(sess sqlite.SessionRecord, reps []sqlite.RepRecord, path string) error {
	pts := make(plotter.XYs, len(reps))
	for i, rep := range reps {
		pts[i].X = float64(rep.RepIndex)
		pts[i].Y = rep.ROMDegrees
	}

	p := plot.New()
	p.Title.Text = "ROM per repetition: " + sess.Profile
	p.X.Label.Text = "repetition"
	p.Y.Label.Text = "ROM (deg)"

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	p.Add(plotter.NewGrid(), line, points)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
