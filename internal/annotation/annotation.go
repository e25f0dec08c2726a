// Package annotation holds the lane and trigger overlays drawn over a
// point-cloud stream, and the editor state machine that mutates them.
//
// Lanes are polygons that close automatically once they have three or more
// vertices; triggers are open polylines. All committed geometry is stored in
// natural video coordinates so that annotations survive container resizes;
// pointer input arrives in display coordinates and is converted through a
// geometry.Mapper at the editor boundary.
package annotation

import (
	"fmt"

	"github.com/banshee-data/virtualloop/internal/geometry"
)

// Kind discriminates the two annotation shapes. It doubles as the editor's
// active drawing tool.
type Kind int

const (
	KindLane Kind = iota
	KindTrigger
)

func (k Kind) String() string {
	switch k {
	case KindLane:
		return "lane"
	case KindTrigger:
		return "trigger"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps the wire names used by the HTTP bridge back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "lane":
		return KindLane, nil
	case "trigger":
		return KindTrigger, nil
	default:
		return 0, fmt.Errorf("unknown annotation kind %q", s)
	}
}

// Default styling applied to newly drawn annotations and backfilled on load
// when a stored entry omits its style fields.
const (
	DefaultLaneColor    = "#00ff00"
	DefaultTriggerColor = "#ff0000"
	DefaultStrokeWidth  = 2
)

// Annotation is a single committed lane or trigger. Points are ordered in
// drawing order and number at least two for anything that survived
// completion; the in-progress preview point is owned by the Editor and never
// stored here.
type Annotation struct {
	ID          int64
	Kind        Kind
	Name        string
	Number      int // lane badge; zero for triggers
	Color       string
	StrokeWidth int
	Points      []geometry.Point
}

// Closed reports whether the annotation renders with an implicit edge from
// its last vertex back to its first. Only lanes close, and only with at
// least three vertices.
func (a *Annotation) Closed() bool {
	return a.Kind == KindLane && len(a.Points) >= 3
}

// strokeThreshold is the hit-test slack around the rendered stroke.
func (a *Annotation) strokeThreshold() float64 {
	return float64(a.StrokeWidth) + geometry.StrokeSlack
}

func defaultColor(k Kind) string {
	if k == KindTrigger {
		return DefaultTriggerColor
	}
	return DefaultLaneColor
}

func clonePoints(pts []geometry.Point) []geometry.Point {
	if pts == nil {
		return nil
	}
	out := make([]geometry.Point, len(pts))
	copy(out, pts)
	return out
}
