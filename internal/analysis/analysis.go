// Package analysis locates tracked objects in annotated lanes and detects
// trigger-line crossings. Objects arrive as bounding boxes in the annotation
// canvas space; lanes and triggers come from the editor's saved document.
package analysis

import (
	"fmt"

	"github.com/banshee-data/virtualloop/internal/annotation"
	"github.com/banshee-data/virtualloop/internal/geometry"
)

// LocationMode selects which point of an object's box represents it for lane
// containment tests.
type LocationMode int

const (
	LocateCenter LocationMode = iota
	LocateTopCenter
	LocateBottomCenter
)

// String returns the wire name of the mode.
func (m LocationMode) String() string {
	switch m {
	case LocateCenter:
		return "center"
	case LocateTopCenter:
		return "top_center"
	case LocateBottomCenter:
		return "bottom_center"
	default:
		return fmt.Sprintf("LocationMode(%d)", int(m))
	}
}

// ParseLocationMode converts a wire name to a LocationMode.
func ParseLocationMode(s string) (LocationMode, error) {
	switch s {
	case "center":
		return LocateCenter, nil
	case "top_center":
		return LocateTopCenter, nil
	case "bottom_center":
		return LocateBottomCenter, nil
	default:
		return 0, fmt.Errorf("unknown location mode %q (want center, top_center or bottom_center)", s)
	}
}

// Box is an axis-aligned bounding box in canvas pixels.
type Box struct {
	X1, Y1, X2, Y2 float64
}

// Center returns the box centre.
func (b Box) Center() geometry.Point {
	return geometry.Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// TopCenter returns the midpoint of the top edge.
func (b Box) TopCenter() geometry.Point {
	return geometry.Point{X: (b.X1 + b.X2) / 2, Y: b.Y1}
}

// BottomCenter returns the midpoint of the bottom edge.
func (b Box) BottomCenter() geometry.Point {
	return geometry.Point{X: (b.X1 + b.X2) / 2, Y: b.Y2}
}

// Reference returns the box point selected by the mode.
func (b Box) Reference(mode LocationMode) geometry.Point {
	switch mode {
	case LocateTopCenter:
		return b.TopCenter()
	case LocateBottomCenter:
		return b.BottomCenter()
	default:
		return b.Center()
	}
}

// Object is one tracked detection handed to the matcher.
type Object struct {
	ID    int64
	Class string
	Box   Box
}

// Locator resolves which lane polygon an object's box falls in. The
// configured reference point is tested first; on a miss the other reference
// points are tried in center, top-center, bottom-center order, so an object
// whose preferred point sits just outside every lane still resolves when any
// edge midpoint is inside one.
type Locator struct {
	lanes []annotation.Lane
	chain []LocationMode
}

// NewLocator builds a locator over the given lanes.
func NewLocator(lanes []annotation.Lane, mode LocationMode) *Locator {
	chain := []LocationMode{mode}
	for _, fallback := range []LocationMode{LocateCenter, LocateTopCenter, LocateBottomCenter} {
		if fallback != mode {
			chain = append(chain, fallback)
		}
	}
	return &Locator{lanes: lanes, chain: chain}
}

// Locate returns the first lane containing one of the box's reference
// points. Lanes with fewer than three points cannot contain anything and are
// skipped.
func (l *Locator) Locate(b Box) (annotation.Lane, bool) {
	for _, mode := range l.chain {
		p := b.Reference(mode)
		for _, lane := range l.lanes {
			if len(lane.Points) < 3 {
				continue
			}
			if geometry.PointInPolygon(p, lane.Points) {
				return lane, true
			}
		}
	}
	return annotation.Lane{}, false
}
