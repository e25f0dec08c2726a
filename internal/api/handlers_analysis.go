package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/banshee-data/virtualloop/internal/analysis"
	"github.com/banshee-data/virtualloop/internal/httputil"
)

type analysisObject struct {
	TrackID int64     `json:"track_id"`
	Class   string    `json:"class_name,omitempty"`
	Box     []float64 `json:"box"`
}

type analysisRequest struct {
	Objects []analysisObject `json:"objects"`
}

type analysisResponse struct {
	Success bool             `json:"success"`
	Events  []analysis.Event `json:"events"`
}

// analyseObjects runs one batch of tracked boxes through the trigger matcher
// and returns the contacts found in this batch. Boxes are pixel coordinates
// in the annotation resolution, ordered [x1, y1, x2, y2].
func (s *Server) analyseObjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request: %v", err))
		return
	}

	objects := make([]analysis.Object, 0, len(req.Objects))
	for i, o := range req.Objects {
		if len(o.Box) != 4 {
			httputil.BadRequest(w, fmt.Sprintf("object %d: box must be [x1, y1, x2, y2]", i))
			return
		}
		objects = append(objects, analysis.Object{
			ID:    o.TrackID,
			Class: o.Class,
			Box:   analysis.Box{X1: o.Box[0], Y1: o.Box[1], X2: o.Box[2], Y2: o.Box[3]},
		})
	}

	events := s.matcher.Process(objects)
	if events == nil {
		events = []analysis.Event{}
	}

	httputil.WriteJSONOK(w, analysisResponse{Success: true, Events: events})
}
