package monitor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motusrehab/motus/internal/motion/session"
	"github.com/motusrehab/motus/internal/motion/storage/sqlite"
	"github.com/motusrehab/motus/internal/timeutil"
)

type fakeProvider struct {
	mu   sync.Mutex
	snap session.Snapshot
}

func (f *fakeProvider) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeProvider) set(snap session.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = snap
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewWebServer(cfg).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{Provider: &fakeProvider{}})
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSnapshotEndpoint(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	provider.set(session.Snapshot{
		ID:             "sess-42",
		Profile:        "pendulum-swing",
		Active:         true,
		RepCount:       4,
		LiveROMDegrees: 31.5,
		RepROMs:        []float64{80.1, 82.4, 79.8, 81.0},
	})
	srv := newTestServer(t, Config{Provider: provider})

	resp, err := http.Get(srv.URL + "/api/session/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()

	var snap session.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "sess-42", snap.ID)
	assert.Equal(t, 4, snap.RepCount)
	assert.Len(t, snap.RepROMs, 4)
}

func TestLiveFeedPushesSnapshots(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	provider.set(session.Snapshot{ID: "live-1", RepCount: 1})
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	srv := newTestServer(t, Config{
		Provider:     provider,
		Clock:        clock,
		PushInterval: 100 * time.Millisecond,
	})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/session/live"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	// The first snapshot arrives immediately on connect.
	var first session.Snapshot
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "live-1", first.ID)

	// Later pushes follow the clock's cadence.
	provider.set(session.Snapshot{ID: "live-1", RepCount: 2})
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				clock.Advance(100 * time.Millisecond)
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()

	var second session.Snapshot
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, 2, second.RepCount)
}

func TestSessionsEndpoint(t *testing.T) {
	t.Parallel()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "motus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.SaveSession(context.Background(), sqlite.SessionRecord{
		ID:        "hist-1",
		Profile:   "stirring",
		StartedAt: time.Now().UTC(),
	}))

	srv := newTestServer(t, Config{Provider: &fakeProvider{}, Store: store})
	resp, err := http.Get(srv.URL + "/api/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()

	var records []sqlite.SessionRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "hist-1", records[0].ID)
}

func TestSessionsEndpointWithoutStore(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{Provider: &fakeProvider{}})
	resp, err := http.Get(srv.URL + "/api/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestROMChartRenders(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	provider.set(session.Snapshot{
		ID:      "chart-1",
		Profile: "pendulum-swing",
		RepROMs: []float64{78.2, 80.9, 82.0},
	})
	srv := newTestServer(t, Config{Provider: provider})

	resp, err := http.Get(srv.URL + "/charts/rom")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "echarts")
}
