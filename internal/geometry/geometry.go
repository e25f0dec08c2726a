// Package geometry implements the 2D primitives behind the annotation
// editor: letterbox coordinate mapping between the displayed canvas and the
// video's native resolution, distance-based hit testing for control points
// and strokes, and polygon containment.
//
// Two coordinate spaces appear throughout: "display space" is pixels in the
// on-screen canvas, "natural space" is pixels in the video's true resolution.
// Annotation points are stored in natural space only; display space exists
// transiently while handling pointer input and drawing.
package geometry

import "math"

// Point is a position in either display or natural space. Which space is in
// play is determined by context; the two never mix inside one value.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between two points.
func Dist(p, q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}
