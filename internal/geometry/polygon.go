package geometry

// PointInPolygon reports whether p lies inside the polygon using an even-odd
// ray cast. The polygon closes implicitly (last vertex connects to first).
// Points on an edge may land on either side; lane polygons are drawn loosely
// enough that boundary ambiguity does not matter in practice.
func PointInPolygon(p Point, polygon []Point) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	inside := false
	a := polygon[n-1]
	for _, b := range polygon {
		if (b.Y > p.Y) != (a.Y > p.Y) {
			xCross := (a.X-b.X)*(p.Y-b.Y)/(a.Y-b.Y) + b.X
			if p.X < xCross {
				inside = !inside
			}
		}
		a = b
	}
	return inside
}
