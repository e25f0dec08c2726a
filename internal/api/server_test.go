package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/virtualloop/internal/analysis"
	"github.com/banshee-data/virtualloop/internal/annotation"
	"github.com/banshee-data/virtualloop/internal/configstore"
	"github.com/banshee-data/virtualloop/internal/pointcloud"
	"github.com/banshee-data/virtualloop/internal/render"
	"github.com/banshee-data/virtualloop/internal/timeutil"
)

var testStart = time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC)

// newTestServer builds a server with real stores in a temp directory, a mock
// clock and a small renderer. Tests needing a custom Config build their own.
func newTestServer(t *testing.T) (*Server, *timeutil.MockClock) {
	t.Helper()

	dir := t.TempDir()
	files, err := configstore.NewFileStore(dir, "lane_config.json")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	snaps, err := configstore.Open(filepath.Join(dir, "snapshots.db"))
	if err != nil {
		t.Fatalf("Open snapshot store: %v", err)
	}
	t.Cleanup(func() { snaps.Close() })

	clock := timeutil.NewMockClock(testStart)
	holder := render.NewFrameHolder()
	decoder := pointcloud.NewStreamDecoder(pointcloud.DecoderConfig{Sink: holder.HandleFrame})
	t.Cleanup(decoder.Stop)

	s := NewServer(Config{
		Files:        files,
		Snapshots:    snaps,
		SnapshotKeep: 10,
		Decoder:      decoder,
		Holder:       holder,
		BEV:          render.NewBEVRenderer(64, 10),
		Matcher:      analysis.NewTriggerMatcher(analysis.MatcherConfig{Clock: clock}),
		Clock:        clock,
	})
	return s, clock
}

func postJSON(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func getPath(t *testing.T, h http.HandlerFunc, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) statusResponse {
	t.Helper()
	var resp statusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return resp
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) annotation.Snapshot {
	t.Helper()
	var snap annotation.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot %q: %v", w.Body.String(), err)
	}
	return snap
}

func testFrame(points int) *pointcloud.Frame {
	f := pointcloud.NewFrame(points)
	for i := 0; i < points; i++ {
		f.Append(float32(i), float32(-i), 0.5, uint16(100+i))
	}
	return f
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t)

	w := getPath(t, s.healthCheck, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected %d got %d", http.StatusOK, w.Code)
	}

	var resp healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status: expected ok, got %q", resp.Status)
	}
	if resp.Service != ServiceName {
		t.Errorf("service: expected %q, got %q", ServiceName, resp.Service)
	}
	if resp.Timestamp != testStart.Format(time.RFC3339) {
		t.Errorf("timestamp: expected %q, got %q", testStart.Format(time.RFC3339), resp.Timestamp)
	}
}

func TestShowStats(t *testing.T) {
	s, clock := newTestServer(t)

	s.holder.HandleFrame(testFrame(3))
	s.decoder.Stats().AddFrame(3)
	clock.Advance(90 * time.Second)

	w := getPath(t, s.showStats, "/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("expected %d got %d body=%s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp statsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Service != ServiceName {
		t.Errorf("service: expected %q, got %q", ServiceName, resp.Service)
	}
	if resp.Version == "" {
		t.Error("version should not be empty")
	}
	if resp.UptimeSeconds != 90 {
		t.Errorf("uptimeSeconds: expected 90, got %v", resp.UptimeSeconds)
	}
	if resp.StreamRunning {
		t.Error("streamRunning: no stream was started")
	}
	if resp.FrameSeq != 1 {
		t.Errorf("frameSeq: expected 1, got %d", resp.FrameSeq)
	}
	if resp.Stream.TotalFrames != 1 || resp.Stream.TotalPoints != 3 {
		t.Errorf("stream counters: expected 1 frame / 3 points, got %+v", resp.Stream)
	}
	if resp.Events == nil {
		t.Error("events should decode as an empty list, not null")
	}
	if !strings.Contains(w.Body.String(), `"events":[]`) {
		t.Errorf("expected empty events array in body, got %s", w.Body.String())
	}
}

func TestServeMuxRoutes(t *testing.T) {
	s, _ := newTestServer(t)
	mux := s.ServeMux()

	for _, path := range []string{"/api/health", "/api/stats", "/api/editor/state"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s: expected %d got %d", path, http.StatusOK, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown route: expected %d got %d", http.StatusNotFound, w.Code)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	})

	req := httptest.NewRequest(http.MethodGet, "/teapot", nil)
	w := httptest.NewRecorder()
	LoggingMiddleware(inner).ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Fatalf("expected %d got %d", http.StatusTeapot, w.Code)
	}
	if w.Body.String() != "short and stout" {
		t.Fatalf("body passed through wrong: %q", w.Body.String())
	}
}

func TestStatusCodeColor(t *testing.T) {
	cases := []struct {
		code int
		want string
	}{
		{200, colorBoldGreen + "200" + colorReset},
		{302, colorYellow + "302" + colorReset},
		{404, colorBoldRed + "404" + colorReset},
		{503, colorBoldRed + "503" + colorReset},
		{99, "99"},
	}
	for _, c := range cases {
		if got := statusCodeColor(c.code); got != c.want {
			t.Errorf("statusCodeColor(%d): expected %q got %q", c.code, c.want, got)
		}
	}
}
