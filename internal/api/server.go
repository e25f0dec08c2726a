// Package api serves the HTTP surface: config persistence, the annotation
// editor bridge, stream control, the multipart point feed, object analysis
// ingest and the debug render pages.
package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/virtualloop/internal/analysis"
	"github.com/banshee-data/virtualloop/internal/annotation"
	"github.com/banshee-data/virtualloop/internal/configstore"
	"github.com/banshee-data/virtualloop/internal/pointcloud"
	"github.com/banshee-data/virtualloop/internal/render"
	"github.com/banshee-data/virtualloop/internal/timeutil"
)

// ServiceName identifies this daemon in health and stats responses.
const ServiceName = "virtualloop"

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Config wires the server's collaborators. Editor, Decoder, Holder, BEV and
// Matcher default to fresh instances when nil; Files and Snapshots are
// optional persistence backends and the config routes report their absence.
type Config struct {
	Editor       *annotation.Editor
	Files        *configstore.FileStore
	Snapshots    *configstore.Store
	SnapshotKeep int
	Decoder      *pointcloud.StreamDecoder
	Holder       *render.FrameHolder
	BEV          *render.BEVRenderer
	Matcher      *analysis.TriggerMatcher

	// NewSource builds the stream source for a URL. Defaults to the HTTP
	// multipart source.
	NewSource func(url string) pointcloud.Source
	// Cleanup, when set, runs after the stream is stopped by /api/cleanup.
	Cleanup func() error
	Clock   timeutil.Clock
}

// Server handles the HTTP API.
type Server struct {
	editor    *annotation.Editor
	files     *configstore.FileStore
	snapshots *configstore.Store
	keep      int
	decoder   *pointcloud.StreamDecoder
	holder    *render.FrameHolder
	bev       *render.BEVRenderer
	matcher   *analysis.TriggerMatcher
	newSource func(url string) pointcloud.Source
	cleanup   func() error
	clock     timeutil.Clock
	started   time.Time
}

// NewServer creates a server from the given wiring.
func NewServer(cfg Config) *Server {
	if cfg.Editor == nil {
		cfg.Editor = annotation.NewEditor()
	}
	if cfg.Holder == nil {
		cfg.Holder = render.NewFrameHolder()
	}
	if cfg.BEV == nil {
		cfg.BEV = render.NewBEVRenderer(0, 0)
	}
	if cfg.Decoder == nil {
		cfg.Decoder = pointcloud.NewStreamDecoder(pointcloud.DecoderConfig{Sink: cfg.Holder.HandleFrame})
	}
	if cfg.Matcher == nil {
		cfg.Matcher = analysis.NewTriggerMatcher(analysis.MatcherConfig{})
	}
	if cfg.NewSource == nil {
		cfg.NewSource = func(url string) pointcloud.Source {
			return pointcloud.NewHTTPSource(url)
		}
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	return &Server{
		editor:    cfg.Editor,
		files:     cfg.Files,
		snapshots: cfg.Snapshots,
		keep:      cfg.SnapshotKeep,
		decoder:   cfg.Decoder,
		holder:    cfg.Holder,
		bev:       cfg.BEV,
		matcher:   cfg.Matcher,
		newSource: cfg.NewSource,
		cleanup:   cfg.Cleanup,
		clock:     cfg.Clock,
		started:   cfg.Clock.Now(),
	}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/config/save", s.saveConfig)
	mux.HandleFunc("/api/config/load", s.loadConfig)
	mux.HandleFunc("/api/config/export", s.exportConfig)
	mux.HandleFunc("/api/editor/event", s.editorEvent)
	mux.HandleFunc("/api/editor/view", s.editorView)
	mux.HandleFunc("/api/editor/video-size", s.editorVideoSize)
	mux.HandleFunc("/api/editor/tool", s.editorTool)
	mux.HandleFunc("/api/editor/select", s.editorSelect)
	mux.HandleFunc("/api/editor/property", s.editorProperty)
	mux.HandleFunc("/api/editor/delete", s.editorDelete)
	mux.HandleFunc("/api/editor/clear", s.editorClear)
	mux.HandleFunc("/api/editor/state", s.editorState)
	mux.HandleFunc("/api/stream/start", s.startStream)
	mux.HandleFunc("/api/stream/stop", s.stopStream)
	mux.HandleFunc("/api/cleanup", s.runCleanup)
	mux.HandleFunc("/api/analysis/objects", s.analyseObjects)
	mux.HandleFunc("/api/stats", s.showStats)
	mux.HandleFunc("/api/health", s.healthCheck)
	mux.HandleFunc("/points", s.servePoints)
	mux.HandleFunc("/debug/frame.png", s.debugFramePNG)
	mux.HandleFunc("/debug/scatter", s.debugScatter)
	mux.HandleFunc("/debug/rate.png", s.debugRatePNG)
	return mux
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400 && statusCode < 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// statusResponse is the plain success/message envelope.
type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// configResponse carries a config document alongside the envelope.
type configResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Config  *annotation.Document `json:"config,omitempty"`
}
