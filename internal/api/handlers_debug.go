package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/banshee-data/virtualloop/internal/analysis"
	"github.com/banshee-data/virtualloop/internal/httputil"
	"github.com/banshee-data/virtualloop/internal/pointcloud"
	"github.com/banshee-data/virtualloop/internal/render"
	"github.com/banshee-data/virtualloop/internal/version"
)

type statsResponse struct {
	Service       string             `json:"service"`
	Version       string             `json:"version"`
	UptimeSeconds float64            `json:"uptimeSeconds"`
	StreamRunning bool               `json:"streamRunning"`
	Stream        pointcloud.Summary `json:"stream"`
	FrameSeq      uint64             `json:"frameSeq"`
	Events        []analysis.Event   `json:"events"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// showStats reports ingest counters, the frame sequence and the most recent
// crossing events in one document.
func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	events := s.matcher.RecentEvents(20)
	if events == nil {
		events = []analysis.Event{}
	}

	httputil.WriteJSONOK(w, statsResponse{
		Service:       ServiceName,
		Version:       version.String(),
		UptimeSeconds: s.clock.Since(s.started).Seconds(),
		StreamRunning: s.decoder.Running(),
		Stream:        s.decoder.Stats().Summarize(),
		FrameSeq:      s.holder.Seq(),
		Events:        events,
	})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	httputil.WriteJSONOK(w, healthResponse{
		Status:    "ok",
		Service:   ServiceName,
		Timestamp: s.clock.Now().UTC().Format(time.RFC3339),
	})
}

// debugFramePNG renders the latest frame as a bird's eye view PNG with the
// current annotations overlaid.
func (s *Server) debugFramePNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	frame, _ := s.holder.Latest()
	if frame == nil {
		httputil.NotFound(w, "no frame decoded yet")
		return
	}

	doc := s.editor.Serialize()
	var buf bytes.Buffer
	if err := s.bev.EncodePNG(&buf, frame, &doc); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render frame: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

// debugScatter serves an interactive 3D scatter of the latest frame.
func (s *Server) debugScatter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	frame, _ := s.holder.Latest()
	if frame == nil {
		httputil.NotFound(w, "no frame decoded yet")
		return
	}

	var buf bytes.Buffer
	if err := render.ScatterPage(&buf, frame, 0); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render scatter: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// debugRatePNG plots the retained points-per-frame series.
func (s *Server) debugRatePNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	var buf bytes.Buffer
	if err := render.RatePlotPNG(&buf, s.decoder.Stats().WindowCounts()); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render rate plot: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}
