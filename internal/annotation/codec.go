package annotation

import (
	"fmt"
	"time"

	"github.com/banshee-data/virtualloop/internal/geometry"
	"github.com/banshee-data/virtualloop/internal/monitoring"
)

// Size is a natural video size in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Lane is the persisted form of a lane annotation.
type Lane struct {
	Name        string           `json:"name"`
	Number      int              `json:"number"`
	Color       string           `json:"color"`
	StrokeWidth int              `json:"strokeWidth"`
	Points      []geometry.Point `json:"points"`
}

// Trigger is the persisted form of a trigger annotation.
type Trigger struct {
	Name        string           `json:"name"`
	Color       string           `json:"color"`
	StrokeWidth int              `json:"strokeWidth"`
	Points      []geometry.Point `json:"points"`
}

// Document is the save payload: both annotation collections plus the natural
// video size they were drawn against. Transient editor state (selection,
// in-progress shape, preview vertex) never appears here.
type Document struct {
	Lanes     []Lane    `json:"lanes"`
	Triggers  []Trigger `json:"triggers"`
	VideoSize Size      `json:"videoSize"`
}

// ExportDocument is a Document stamped with the time it was produced.
type ExportDocument struct {
	Document
	ExportedAt string `json:"exportedAt"`
}

// Serialize deep-copies the committed annotations into a save payload. The
// preview vertex and any shape still under two committed points are left out,
// so a save taken mid-draw never persists a degenerate entry.
func (e *Editor) Serialize() Document {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc := Document{
		Lanes:     []Lane{},
		Triggers:  []Trigger{},
		VideoSize: Size{Width: e.videoW, Height: e.videoH},
	}
	for _, a := range e.lanes {
		if len(a.Points) < 2 {
			continue
		}
		doc.Lanes = append(doc.Lanes, Lane{
			Name:        a.Name,
			Number:      a.Number,
			Color:       a.Color,
			StrokeWidth: a.StrokeWidth,
			Points:      clonePoints(a.Points),
		})
	}
	for _, a := range e.triggers {
		if len(a.Points) < 2 {
			continue
		}
		doc.Triggers = append(doc.Triggers, Trigger{
			Name:        a.Name,
			Color:       a.Color,
			StrokeWidth: a.StrokeWidth,
			Points:      clonePoints(a.Points),
		})
	}
	return doc
}

// Deserialize replaces the editor contents with the given payload. The
// replacement is wholesale, never a merge: prior annotations, the selection
// and any in-progress shape are dropped first. Missing names, colors and
// widths are backfilled deterministically, and entries with fewer than two
// points are skipped with a log line.
//
// The payload's videoSize is adopted only while the live size is still
// unknown. A load can race stream negotiation, and real media metadata must
// win over whatever size the document was drawn against.
func (e *Editor) Deserialize(doc Document) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lanes = nil
	e.triggers = nil
	e.selected = nil
	e.inProgress = nil
	e.dragTarget = nil
	e.dragIndex = -1
	e.state = StateIdle

	for i, l := range doc.Lanes {
		if len(l.Points) < 2 {
			monitoring.Logf("annotation: skipping stored lane %d with %d point(s)", i, len(l.Points))
			continue
		}
		number := l.Number
		if number == 0 {
			number = i + 1
		}
		name := l.Name
		if name == "" {
			name = fmt.Sprintf("Lane %d", number)
		}
		e.lanes = append(e.lanes, &Annotation{
			ID:          e.allocIDLocked(),
			Kind:        KindLane,
			Name:        name,
			Number:      number,
			Color:       backfillColor(l.Color, KindLane),
			StrokeWidth: backfillWidth(l.StrokeWidth),
			Points:      clonePoints(l.Points),
		})
	}
	for i, t := range doc.Triggers {
		if len(t.Points) < 2 {
			monitoring.Logf("annotation: skipping stored trigger %d with %d point(s)", i, len(t.Points))
			continue
		}
		name := t.Name
		if name == "" {
			name = fmt.Sprintf("Trigger %d", i+1)
		}
		e.triggers = append(e.triggers, &Annotation{
			ID:          e.allocIDLocked(),
			Kind:        KindTrigger,
			Name:        name,
			Color:       backfillColor(t.Color, KindTrigger),
			StrokeWidth: backfillWidth(t.StrokeWidth),
			Points:      clonePoints(t.Points),
		})
	}

	if e.videoW == 0 && e.videoH == 0 && (doc.VideoSize.Width > 0 || doc.VideoSize.Height > 0) {
		e.videoW = doc.VideoSize.Width
		e.videoH = doc.VideoSize.Height
		e.rebuildMapperLocked()
	}
}

// Export returns the save payload stamped with the export time for download.
func (e *Editor) Export() ExportDocument {
	return ExportDocument{
		Document:   e.Serialize(),
		ExportedAt: e.clock.Now().UTC().Format(time.RFC3339),
	}
}

func backfillColor(c string, k Kind) string {
	if c == "" {
		return defaultColor(k)
	}
	return c
}

func backfillWidth(w int) int {
	if w <= 0 {
		return DefaultStrokeWidth
	}
	return w
}
