package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/banshee-data/virtualloop/internal/httputil"
	"github.com/banshee-data/virtualloop/internal/monitoring"
	"github.com/banshee-data/virtualloop/internal/pointcloud"
)

type startStreamRequest struct {
	URL string `json:"url"`
}

// startStream connects the decoder to a point stream. Starting while a
// stream is already running reports success without disturbing it.
func (s *Server) startStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req startStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.URL == "" {
		httputil.BadRequest(w, "Stream URL is required")
		return
	}

	if s.decoder.Running() {
		httputil.WriteJSONOK(w, statusResponse{Success: true, Message: "Stream already running"})
		return
	}

	// The stream outlives the request; it stops via /api/stream/stop or
	// daemon shutdown.
	err := s.decoder.Start(context.Background(), s.newSource(req.URL))
	if errors.Is(err, pointcloud.ErrAlreadyRunning) {
		httputil.WriteJSONOK(w, statusResponse{Success: true, Message: "Stream already running"})
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to start stream: %v", err))
		return
	}

	monitoring.Logf("api: stream started from %s", req.URL)
	httputil.WriteJSONOK(w, statusResponse{Success: true, Message: "Stream started"})
}

// stopStream halts the running stream. Stopping an idle decoder is a no-op.
func (s *Server) stopStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	s.decoder.Stop()
	monitoring.Logf("api: stream stopped")
	httputil.WriteJSONOK(w, statusResponse{Success: true, Message: "Stream stopped"})
}

// runCleanup stops the stream and releases whatever the daemon registered:
// recorders, serial ports, capture handles.
func (s *Server) runCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	s.decoder.Stop()
	if s.cleanup != nil {
		if err := s.cleanup(); err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("cleanup failed: %v", err))
			return
		}
	}

	monitoring.Logf("api: cleanup complete")
	httputil.WriteJSONOK(w, statusResponse{Success: true, Message: "Resources released"})
}

// servePoints streams decoded frames to the client in the same multipart
// format the decoder consumes, one section per frame as frames arrive. The
// connection stays open until the client goes away.
func (s *Server) servePoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.InternalServerError(w, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Cache-Control", "no-store")

	monitoring.Logf("api: points client %s connected", r.RemoteAddr)
	defer monitoring.Logf("api: points client %s disconnected", r.RemoteAddr)

	enc := pointcloud.NewEncoder(w)
	var after uint64
	for {
		frame, seq, err := s.holder.Next(r.Context(), after)
		if err != nil {
			return
		}
		if err := enc.WriteFrame(frame); err != nil {
			return
		}
		flusher.Flush()
		after = seq
	}
}
