package geometry

// Hit-testing thresholds, in display pixels. Control points win over strokes,
// so their radius is tested across every annotation before any stroke is.
const (
	// ControlPointRadius is the pick radius around a vertex marker.
	ControlPointRadius = 10.0

	// StrokeSlack widens a stroke's hit zone beyond its drawn width so thin
	// lines remain selectable.
	StrokeSlack = 5.0
)

// PointToSegmentDistance returns the distance from p to the segment a-b. The
// point is projected onto the infinite line through a and b, the projection
// parameter clamped to [0,1], and the distance taken to the clamped point. A
// zero-length segment reduces to plain point distance.
func PointToSegmentDistance(p, a, b Point) float64 {
	abx := b.X - a.X
	aby := b.Y - a.Y

	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return Dist(p, a)
	}

	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / lenSq
	t = clamp(t, 0, 1)

	closest := Point{X: a.X + t*abx, Y: a.Y + t*aby}
	return Dist(p, closest)
}

// HitControlPoint returns the index of the first vertex within radius of p,
// or -1. Points and p must share a coordinate space.
func HitControlPoint(points []Point, p Point, radius float64) int {
	for i, v := range points {
		if Dist(p, v) <= radius {
			return i
		}
	}
	return -1
}

// HitPolyline reports whether p lies within threshold of any edge of the
// polyline. When closed is true and the polyline has at least three vertices,
// the implicit last-to-first edge is tested too. Fewer than two vertices can
// never produce a stroke hit.
func HitPolyline(points []Point, closed bool, p Point, threshold float64) bool {
	if len(points) < 2 {
		return false
	}

	for i := 0; i < len(points)-1; i++ {
		if PointToSegmentDistance(p, points[i], points[i+1]) <= threshold {
			return true
		}
	}

	if closed && len(points) >= 3 {
		if PointToSegmentDistance(p, points[len(points)-1], points[0]) <= threshold {
			return true
		}
	}

	return false
}
