package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/banshee-data/virtualloop/internal/annotation"
	"github.com/banshee-data/virtualloop/internal/configstore"
	"github.com/banshee-data/virtualloop/internal/httputil"
	"github.com/banshee-data/virtualloop/internal/monitoring"
)

// maxConfigBody bounds how much of a save request is read.
const maxConfigBody = 1 << 20

// saveConfig applies the posted document to the editor, persists the
// normalized result and appends a history snapshot. An empty body saves the
// editor's current state unchanged.
func (s *Server) saveConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBody))
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("failed to read request body: %v", err))
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		var doc annotation.Document
		if err := json.Unmarshal(body, &doc); err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid config payload: %v", err))
			return
		}
		s.editor.Deserialize(doc)
	}

	if s.files == nil {
		httputil.InternalServerError(w, "config store not configured")
		return
	}

	doc := s.editor.Serialize()
	if err := s.files.Save(doc); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to save config: %v", err))
		return
	}

	// History is best effort: the authoritative save already succeeded.
	if s.snapshots != nil {
		label := r.URL.Query().Get("label")
		if _, err := s.snapshots.Append(doc, label); err != nil {
			monitoring.Logf("api: snapshot append failed: %v", err)
		} else if s.keep > 0 {
			if _, err := s.snapshots.Prune(s.keep); err != nil {
				monitoring.Logf("api: snapshot prune failed: %v", err)
			}
		}
	}

	s.matcher.SetAnnotations(doc)

	httputil.WriteJSONOK(w, statusResponse{Success: true, Message: "Configuration saved"})
}

// loadConfig reads the saved document, applies it to the editor and returns
// the normalized result. A missing file is a successful empty config.
func (s *Server) loadConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	if s.files == nil {
		httputil.InternalServerError(w, "config store not configured")
		return
	}

	doc, err := s.files.Load()
	if errors.Is(err, configstore.ErrNotFound) {
		vw, vh := s.editor.VideoSize()
		empty := annotation.Document{
			Lanes:     []annotation.Lane{},
			Triggers:  []annotation.Trigger{},
			VideoSize: annotation.Size{Width: vw, Height: vh},
		}
		httputil.WriteJSONOK(w, configResponse{Success: true, Message: "No saved config", Config: &empty})
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load config: %v", err))
		return
	}

	s.editor.Deserialize(doc)
	out := s.editor.Serialize()
	s.matcher.SetAnnotations(out)

	httputil.WriteJSONOK(w, configResponse{Success: true, Config: &out})
}

// exportConfig serves the current editor state as a download. The store is
// not touched.
func (s *Server) exportConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	doc := s.editor.Export()
	filename := fmt.Sprintf("lane_config_%s.json", s.clock.Now().UTC().Format("20060102_150405"))
	httputil.WriteJSONAttachment(w, filename, doc)
}
