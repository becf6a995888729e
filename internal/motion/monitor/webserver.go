// Package monitor exposes a live HTTP view of a running exercise session:
// JSON snapshots for polling clients, a websocket push feed for the
// clinician dashboard, and a per-rep ROM chart.
package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/gorilla/websocket"

	"github.com/motusrehab/motus/internal/monitoring"
	"github.com/motusrehab/motus/internal/motion/session"
	"github.com/motusrehab/motus/internal/motion/storage/sqlite"
	"github.com/motusrehab/motus/internal/timeutil"
)

// SnapshotProvider supplies the latest published session state.
type SnapshotProvider interface {
	Snapshot() session.Snapshot
}

// Config contains configuration options for the monitor server.
type Config struct {
	// Address is the listen address, e.g. ":8080".
	Address string

	// Provider supplies session snapshots. Required.
	Provider SnapshotProvider

	// Store, when non-nil, backs the session history endpoint.
	Store *sqlite.Store

	// Clock drives the websocket push cadence; nil means the real clock.
	Clock timeutil.Clock

	// PushInterval is the websocket snapshot cadence; zero means 250ms.
	PushInterval time.Duration
}

// WebServer handles the HTTP interface for monitoring a session.
type WebServer struct {
	cfg      Config
	server   *http.Server
	upgrader websocket.Upgrader
}

// NewWebServer creates a monitor server with the provided configuration.
func NewWebServer(cfg Config) *WebServer {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.PushInterval <= 0 {
		cfg.PushInterval = 250 * time.Millisecond
	}
	ws := &WebServer{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	ws.server = &http.Server{
		Addr:    cfg.Address,
		Handler: ws.Handler(),
	}
	return ws
}

// Handler returns the route tree, usable without a listening server.
func (ws *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/session/snapshot", ws.handleSnapshot)
	mux.HandleFunc("/api/session/live", ws.handleLive)
	mux.HandleFunc("/api/sessions", ws.handleSessions)
	mux.HandleFunc("/charts/rom", ws.handleROMChart)
	return mux
}

// Start runs the server until the context ends, then shuts down.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		monitoring.Logf("monitor: listening on %s", ws.cfg.Address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("monitor: server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("monitor: shutdown error: %v", err)
		return ws.server.Close()
	}
	return nil
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (ws *WebServer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ws.cfg.Provider.Snapshot())
}

// handleLive upgrades to a websocket and pushes snapshots on the configured
// cadence until the client goes away.
func (ws *WebServer) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("monitor: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	// Reads only serve to detect the peer closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := ws.cfg.Clock.NewTicker(ws.cfg.PushInterval)
	defer ticker.Stop()

	if err := conn.WriteJSON(ws.cfg.Provider.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-ticker.C():
			if err := conn.WriteJSON(ws.cfg.Provider.Snapshot()); err != nil {
				return
			}
		}
	}
}

func (ws *WebServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if ws.cfg.Store == nil {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "session store not configured")
		return
	}
	records, err := ws.cfg.Store.ListSessions(r.Context(), 50)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// handleROMChart renders the current session's per-rep ROM as a bar chart.
func (ws *WebServer) handleROMChart(w http.ResponseWriter, r *http.Request) {
	snap := ws.cfg.Provider.Snapshot()

	labels := make([]string, len(snap.RepROMs))
	data := make([]opts.BarData, len(snap.RepROMs))
	for i, rom := range snap.RepROMs {
		labels[i] = fmt.Sprintf("rep %d", i+1)
		data[i] = opts.BarData{Value: rom}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Session ROM"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Range of motion per repetition",
			Subtitle: fmt.Sprintf("profile=%s session=%s", snap.Profile, snap.ID),
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ROM (deg)"}),
	)
	bar.SetXAxis(labels).AddSeries("ROM", data)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
