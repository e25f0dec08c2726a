package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/banshee-data/virtualloop/internal/annotation"
	"github.com/banshee-data/virtualloop/internal/httputil"
)

type editorEventRequest struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type sizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type toolRequest struct {
	Tool string `json:"tool"`
}

type selectRequest struct {
	ID int64 `json:"id"`
}

type propertyRequest struct {
	Name        *string `json:"name,omitempty"`
	Color       *string `json:"color,omitempty"`
	StrokeWidth *int    `json:"strokeWidth,omitempty"`
	Number      *int    `json:"number,omitempty"`
}

type deleteRequest struct {
	Confirm bool  `json:"confirm"`
	ID      int64 `json:"id,omitempty"`
}

type clearRequest struct {
	Confirm bool `json:"confirm"`
}

// editorEvent feeds one pointer event into the drawing state machine and
// returns the updated snapshot so the client can redraw in a single round
// trip. Event names follow the browser events the frontend forwards.
func (s *Server) editorEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req editorEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request: %v", err))
		return
	}

	switch req.Type {
	case "pointerdown":
		s.editor.PrimaryClick(req.X, req.Y)
	case "pointermove":
		s.editor.PointerMove(req.X, req.Y)
	case "pointerup":
		s.editor.PointerRelease()
	case "dblclick", "contextmenu":
		s.editor.Complete()
	default:
		httputil.BadRequest(w, fmt.Sprintf("unknown event type %q", req.Type))
		return
	}

	httputil.WriteJSONOK(w, s.editor.Snapshot())
}

// editorView records the size of the canvas the client draws on.
func (s *Server) editorView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req sizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request: %v", err))
		return
	}

	s.editor.SetViewSize(req.Width, req.Height)
	httputil.WriteJSONOK(w, statusResponse{Success: true})
}

// editorVideoSize records the native resolution annotations are stored in.
func (s *Server) editorVideoSize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req sizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request: %v", err))
		return
	}

	s.editor.SetVideoSize(req.Width, req.Height)
	httputil.WriteJSONOK(w, statusResponse{Success: true})
}

// editorTool switches which annotation kind new clicks draw.
func (s *Server) editorTool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req toolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request: %v", err))
		return
	}

	kind, err := annotation.ParseKind(req.Tool)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	s.editor.SetTool(kind)
	httputil.WriteJSONOK(w, statusResponse{Success: true})
}

// editorSelect selects an annotation by id. An id of zero clears the
// selection.
func (s *Server) editorSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request: %v", err))
		return
	}

	if req.ID == 0 {
		s.editor.ClearSelection()
		httputil.WriteJSONOK(w, statusResponse{Success: true})
		return
	}
	if !s.editor.Select(req.ID) {
		httputil.NotFound(w, "annotation not found")
		return
	}
	httputil.WriteJSONOK(w, statusResponse{Success: true})
}

// editorProperty updates styling on the current selection. At least one
// property must be present; each provided property must apply cleanly.
func (s *Server) editorProperty(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req propertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.Name == nil && req.Color == nil && req.StrokeWidth == nil && req.Number == nil {
		httputil.BadRequest(w, "no property provided")
		return
	}

	if req.Name != nil && !s.editor.SetName(*req.Name) {
		httputil.BadRequest(w, "no annotation selected")
		return
	}
	if req.Color != nil && !s.editor.SetColor(*req.Color) {
		httputil.BadRequest(w, "color rejected or no annotation selected")
		return
	}
	if req.StrokeWidth != nil && !s.editor.SetStrokeWidth(*req.StrokeWidth) {
		httputil.BadRequest(w, "stroke width rejected or no annotation selected")
		return
	}
	if req.Number != nil && !s.editor.SetLaneNumber(*req.Number) {
		httputil.BadRequest(w, "lane number requires a selected lane")
		return
	}

	httputil.WriteJSONOK(w, statusResponse{Success: true})
}

// editorDelete removes one annotation. The confirm flag guards against a
// stray click wiping out geometry; without an id the current selection is
// removed.
func (s *Server) editorDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if !req.Confirm {
		httputil.BadRequest(w, "confirmation required")
		return
	}

	deleted := false
	if req.ID != 0 {
		deleted = s.editor.Delete(req.ID)
	} else {
		deleted = s.editor.DeleteSelected()
	}
	if !deleted {
		httputil.NotFound(w, "annotation not found")
		return
	}

	httputil.WriteJSONOK(w, statusResponse{Success: true, Message: "Annotation deleted"})
}

// editorClear wipes every annotation after an explicit confirmation.
func (s *Server) editorClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req clearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if !req.Confirm {
		httputil.BadRequest(w, "confirmation required")
		return
	}

	s.editor.Clear()
	httputil.WriteJSONOK(w, statusResponse{Success: true, Message: "All annotations cleared"})
}

// editorState reports the full drawing state for clients that want to resync.
func (s *Server) editorState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.editor.Snapshot())
}
