package annotation

import (
	"fmt"
	"sync"

	"github.com/banshee-data/virtualloop/internal/geometry"
	"github.com/banshee-data/virtualloop/internal/monitoring"
	"github.com/banshee-data/virtualloop/internal/timeutil"
)

// State is the editor's drawing state. The editor starts Idle and returns to
// Idle after every completion or cancellation; there is no terminal state.
type State int

const (
	StateIdle State = iota
	StateDrawing
)

func (s State) String() string {
	if s == StateDrawing {
		return "drawing"
	}
	return "idle"
}

// Editor owns both annotation collections and applies pointer, tool and
// property input to them. Pointer coordinates arrive in display space and are
// converted to natural video space at this boundary, so stored geometry is
// stable across container resizes.
//
// A single mutex serialises every entry point. Callers therefore observe the
// same one-event-at-a-time ordering a browser main loop would provide, which
// is what the state machine's transitions assume.
type Editor struct {
	mu    sync.Mutex
	clock timeutil.Clock

	containerW, containerH float64
	videoW, videoH         float64
	mapper                 geometry.Mapper

	tool  Kind
	state State

	lanes    []*Annotation
	triggers []*Annotation

	selected   *Annotation
	inProgress *Annotation
	preview    geometry.Point // pointer-tracking vertex, meaningful only while drawing

	dragTarget *Annotation // control-point drag, a sub-mode of Idle
	dragIndex  int

	nextID int64
}

// NewEditor returns an empty editor with the lane tool active. Annotation ids
// are seeded from the wall clock so they stay unique across process restarts
// that reuse the same persisted document.
func NewEditor() *Editor {
	return newEditor(timeutil.RealClock{})
}

func newEditor(clock timeutil.Clock) *Editor {
	return &Editor{
		clock:     clock,
		mapper:    geometry.NewMapper(0, 0, 0, 0),
		tool:      KindLane,
		dragIndex: -1,
		nextID:    clock.Now().UnixMilli(),
	}
}

// SetViewSize records the display container size and rebuilds the mapping.
func (e *Editor) SetViewSize(w, h float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.containerW, e.containerH = w, h
	e.rebuildMapperLocked()
}

// SetVideoSize records the natural media size once stream metadata arrives.
// Live metadata always wins over a size adopted from a loaded document.
func (e *Editor) SetVideoSize(w, h float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.videoW, e.videoH = w, h
	e.rebuildMapperLocked()
}

// VideoSize returns the natural media size, zero until known.
func (e *Editor) VideoSize() (w, h float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.videoW, e.videoH
}

// Mapper returns the current display mapping as an immutable value.
func (e *Editor) Mapper() geometry.Mapper {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mapper
}

func (e *Editor) rebuildMapperLocked() {
	e.mapper = geometry.NewMapper(e.containerW, e.containerH, e.videoW, e.videoH)
}

// SetTool switches the active drawing tool. Switching while a shape is in
// progress cancels that shape, discarding it exactly as if completion had
// failed the two-point rule.
func (e *Editor) SetTool(tool Kind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDrawing && e.inProgress != nil {
		monitoring.Logf("annotation: tool switch cancels in-progress %s", e.inProgress.Kind)
		e.removeLocked(e.inProgress.ID)
	}
	e.tool = tool
}

// Tool returns the active drawing tool.
func (e *Editor) Tool() Kind {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tool
}

// State returns the current drawing state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// PrimaryClick applies a primary-button press at display coordinates.
//
// While drawing, the click pins the pointer position as a permanent vertex
// and restarts the preview from the same spot, so each click nets exactly one
// committed vertex. While idle, hits are tested in priority order: control
// points across every annotation first, then strokes; a miss on both starts a
// new shape with the active tool.
func (e *Editor) PrimaryClick(dx, dy float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateDrawing {
		e.preview = e.mapper.ToNaturalPoint(geometry.Point{X: dx, Y: dy})
		e.inProgress.Points = append(e.inProgress.Points, e.preview)
		return
	}

	click := geometry.Point{X: dx, Y: dy}
	if ann, idx := e.hitControlLocked(click); ann != nil {
		e.selected = ann
		e.dragTarget = ann
		e.dragIndex = idx
		return
	}
	if ann := e.hitStrokeLocked(click); ann != nil {
		e.selected = ann
		return
	}
	e.startDrawingLocked(click)
}

func (e *Editor) startDrawingLocked(click geometry.Point) {
	seed := e.mapper.ToNaturalPoint(click)
	ann := &Annotation{
		ID:          e.allocIDLocked(),
		Kind:        e.tool,
		Color:       defaultColor(e.tool),
		StrokeWidth: DefaultStrokeWidth,
		Points:      []geometry.Point{seed},
	}
	if e.tool == KindTrigger {
		ann.Name = fmt.Sprintf("Trigger %d", len(e.triggers)+1)
		e.triggers = append(e.triggers, ann)
	} else {
		ann.Number = e.nextLaneNumberLocked()
		ann.Name = fmt.Sprintf("Lane %d", ann.Number)
		e.lanes = append(e.lanes, ann)
	}
	e.preview = seed
	e.inProgress = ann
	e.selected = ann
	e.state = StateDrawing
}

// PointerMove applies pointer motion at display coordinates. While drawing it
// repositions the preview vertex in place; during a control-point drag it
// moves the grabbed vertex. Hover motion outside either mode is ignored.
func (e *Editor) PointerMove(dx, dy float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.mapper.ToNaturalPoint(geometry.Point{X: dx, Y: dy})
	switch {
	case e.state == StateDrawing:
		e.preview = p
	case e.dragTarget != nil && e.dragIndex >= 0 && e.dragIndex < len(e.dragTarget.Points):
		e.dragTarget.Points[e.dragIndex] = p
	}
}

// PointerRelease ends a control-point drag. Releases outside a drag are
// ignored.
func (e *Editor) PointerRelease() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dragTarget = nil
	e.dragIndex = -1
}

// Complete finishes the in-progress shape, entered from a secondary click or
// a double click. The preview vertex is dropped, never committed; a shape
// left with fewer than two committed vertices is removed from its collection.
func (e *Editor) Complete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateDrawing {
		return
	}
	ann := e.inProgress
	e.inProgress = nil
	e.state = StateIdle
	if ann != nil && len(ann.Points) < 2 {
		monitoring.Logf("annotation: discarding %s with %d committed point(s)", ann.Kind, len(ann.Points))
		e.removeLocked(ann.ID)
	}
}

// Select marks the annotation with the given id as selected.
func (e *Editor) Select(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ann := e.findLocked(id); ann != nil {
		e.selected = ann
		return true
	}
	return false
}

// ClearSelection drops the current selection without touching geometry.
func (e *Editor) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = nil
}

// SelectedID returns the id of the selected annotation, or zero when nothing
// is selected.
func (e *Editor) SelectedID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selected == nil {
		return 0
	}
	return e.selected.ID
}

// Delete removes the annotation with the given id and clears any selection,
// drag or in-progress reference pointing at it. Asking the user to confirm is
// the caller's concern.
func (e *Editor) Delete(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removeLocked(id)
}

// DeleteSelected removes the current selection, if any.
func (e *Editor) DeleteSelected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selected == nil {
		return false
	}
	return e.removeLocked(e.selected.ID)
}

// Clear discards every lane and trigger along with all transient state.
func (e *Editor) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lanes = nil
	e.triggers = nil
	e.selected = nil
	e.inProgress = nil
	e.dragTarget = nil
	e.dragIndex = -1
	e.state = StateIdle
}

// SetName renames the selected annotation.
func (e *Editor) SetName(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selected == nil {
		return false
	}
	e.selected.Name = name
	return true
}

// SetColor restyles the selected annotation.
func (e *Editor) SetColor(color string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selected == nil || color == "" {
		return false
	}
	e.selected.Color = color
	return true
}

// SetStrokeWidth restyles the selected annotation. Widths below one are
// rejected.
func (e *Editor) SetStrokeWidth(w int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selected == nil || w < 1 {
		return false
	}
	e.selected.StrokeWidth = w
	return true
}

// SetLaneNumber sets the badge number on a selected lane. Selections of any
// other kind are left untouched.
func (e *Editor) SetLaneNumber(n int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selected == nil || e.selected.Kind != KindLane {
		return false
	}
	e.selected.Number = n
	return true
}

func (e *Editor) allocIDLocked() int64 {
	e.nextID++
	return e.nextID
}

func (e *Editor) nextLaneNumberLocked() int {
	highest := 0
	for _, l := range e.lanes {
		if l.Number > highest {
			highest = l.Number
		}
	}
	return highest + 1
}

func (e *Editor) findLocked(id int64) *Annotation {
	for _, a := range e.lanes {
		if a.ID == id {
			return a
		}
	}
	for _, a := range e.triggers {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (e *Editor) removeLocked(id int64) bool {
	removed := false
	filter := func(list []*Annotation) []*Annotation {
		for i, a := range list {
			if a.ID != id {
				continue
			}
			removed = true
			if e.selected == a {
				e.selected = nil
			}
			if e.inProgress == a {
				e.inProgress = nil
				e.state = StateIdle
			}
			if e.dragTarget == a {
				e.dragTarget = nil
				e.dragIndex = -1
			}
			return append(list[:i], list[i+1:]...)
		}
		return list
	}
	e.lanes = filter(e.lanes)
	e.triggers = filter(e.triggers)
	return removed
}

// annotationsLocked returns lanes followed by triggers, the hit-test priority
// order.
func (e *Editor) annotationsLocked() []*Annotation {
	out := make([]*Annotation, 0, len(e.lanes)+len(e.triggers))
	out = append(out, e.lanes...)
	out = append(out, e.triggers...)
	return out
}

func (e *Editor) displayPointsLocked(ann *Annotation) []geometry.Point {
	out := make([]geometry.Point, len(ann.Points))
	for i, p := range ann.Points {
		out[i] = e.mapper.ToDisplayPoint(p)
	}
	return out
}

// hitControlLocked scans committed vertices across every annotation in
// display space and returns the first one within the control-point radius.
// Control points win over strokes everywhere, so this runs to completion
// before any stroke test.
func (e *Editor) hitControlLocked(click geometry.Point) (*Annotation, int) {
	for _, ann := range e.annotationsLocked() {
		if i := geometry.HitControlPoint(e.displayPointsLocked(ann), click, geometry.ControlPointRadius); i >= 0 {
			return ann, i
		}
	}
	return nil, -1
}

func (e *Editor) hitStrokeLocked(click geometry.Point) *Annotation {
	for _, ann := range e.annotationsLocked() {
		if geometry.HitPolyline(e.displayPointsLocked(ann), ann.Closed(), click, ann.strokeThreshold()) {
			return ann
		}
	}
	return nil
}

// View is a deep copy of one annotation prepared for rendering or listing.
// For the in-progress shape the preview vertex is appended so the rubber-band
// edge can draw.
type View struct {
	ID          int64            `json:"id"`
	Kind        string           `json:"kind"`
	Name        string           `json:"name"`
	Number      int              `json:"number,omitempty"`
	Color       string           `json:"color"`
	StrokeWidth int              `json:"strokeWidth"`
	Closed      bool             `json:"closed"`
	Selected    bool             `json:"selected"`
	InProgress  bool             `json:"inProgress"`
	Points      []geometry.Point `json:"points"`
}

// Snapshot is a deep copy of the full editor state for rendering or listing.
type Snapshot struct {
	Lanes      []View `json:"lanes"`
	Triggers   []View `json:"triggers"`
	State      string `json:"state"`
	Tool       string `json:"tool"`
	VideoSize  Size   `json:"videoSize"`
	SelectedID int64  `json:"selectedId,omitempty"`
}

// Snapshot returns the current editor state with the preview vertex folded
// into the in-progress shape.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := Snapshot{
		Lanes:     e.viewsLocked(e.lanes),
		Triggers:  e.viewsLocked(e.triggers),
		State:     e.state.String(),
		Tool:      e.tool.String(),
		VideoSize: Size{Width: e.videoW, Height: e.videoH},
	}
	if e.selected != nil {
		snap.SelectedID = e.selected.ID
	}
	return snap
}

func (e *Editor) viewsLocked(list []*Annotation) []View {
	out := make([]View, 0, len(list))
	for _, a := range list {
		v := View{
			ID:          a.ID,
			Kind:        a.Kind.String(),
			Name:        a.Name,
			Number:      a.Number,
			Color:       a.Color,
			StrokeWidth: a.StrokeWidth,
			Closed:      a.Closed(),
			Selected:    a == e.selected,
			Points:      clonePoints(a.Points),
		}
		if a == e.inProgress && e.state == StateDrawing {
			v.InProgress = true
			v.Points = append(v.Points, e.preview)
		}
		out = append(out, v)
	}
	return out
}
