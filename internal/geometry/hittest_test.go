package geometry

import (
	"math"
	"testing"
)

func TestPointToSegmentDistance(t *testing.T) {
	tests := []struct {
		name    string
		p, a, b Point
		want    float64
	}{
		{
			name: "perpendicular drop onto mid-segment",
			p:    Point{X: 5, Y: 3},
			a:    Point{X: 0, Y: 0},
			b:    Point{X: 10, Y: 0},
			want: 3,
		},
		{
			name: "projection clamps to start",
			p:    Point{X: -4, Y: 3},
			a:    Point{X: 0, Y: 0},
			b:    Point{X: 10, Y: 0},
			want: 5,
		},
		{
			name: "projection clamps to end",
			p:    Point{X: 13, Y: 4},
			a:    Point{X: 0, Y: 0},
			b:    Point{X: 10, Y: 0},
			want: 5,
		},
		{
			name: "point on the segment",
			p:    Point{X: 4, Y: 0},
			a:    Point{X: 0, Y: 0},
			b:    Point{X: 10, Y: 0},
			want: 0,
		},
		{
			name: "diagonal segment",
			p:    Point{X: 0, Y: 10},
			a:    Point{X: 0, Y: 0},
			b:    Point{X: 10, Y: 10},
			want: math.Sqrt(50),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PointToSegmentDistance(tt.p, tt.a, tt.b)
			if math.Abs(got-tt.want) > eps {
				t.Errorf("distance = %v, want %v", got, tt.want)
			}
		})
	}
}

// A zero-length segment must behave exactly like point-to-point distance.
func TestPointToSegmentDistanceDegenerate(t *testing.T) {
	a := Point{X: 7, Y: -2}
	for _, p := range []Point{
		{X: 7, Y: -2},
		{X: 10, Y: 2},
		{X: -1, Y: -1},
		{X: 7.5, Y: -2},
	} {
		got := PointToSegmentDistance(p, a, a)
		want := Dist(p, a)
		if math.Abs(got-want) > eps {
			t.Errorf("degenerate distance for %+v = %v, want %v", p, got, want)
		}
	}
}

func TestHitControlPoint(t *testing.T) {
	points := []Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}

	if idx := HitControlPoint(points, Point{X: 3, Y: 4}, ControlPointRadius); idx != 0 {
		t.Errorf("near-origin pick = %d, want 0", idx)
	}
	if idx := HitControlPoint(points, Point{X: 104, Y: 97}, ControlPointRadius); idx != 2 {
		t.Errorf("pick = %d, want 2", idx)
	}
	if idx := HitControlPoint(points, Point{X: 50, Y: 50}, ControlPointRadius); idx != -1 {
		t.Errorf("mid-air pick = %d, want -1", idx)
	}

	// First match wins when two vertices overlap within the radius.
	stacked := []Point{{X: 0, Y: 0}, {X: 1, Y: 1}}
	if idx := HitControlPoint(stacked, Point{X: 0.5, Y: 0.5}, ControlPointRadius); idx != 0 {
		t.Errorf("overlapping pick = %d, want 0", idx)
	}
}

func TestHitPolylineOpen(t *testing.T) {
	line := []Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}

	if !HitPolyline(line, false, Point{X: 50, Y: 4}, 5) {
		t.Error("point 4px from the first edge should hit with threshold 5")
	}
	if HitPolyline(line, false, Point{X: 50, Y: 8}, 5) {
		t.Error("point 8px away should miss with threshold 5")
	}
	// The implicit closing edge does not exist for open polylines.
	if HitPolyline(line, false, Point{X: 50, Y: 50}, 5) {
		t.Error("open polyline must not test the closing edge")
	}
}

func TestHitPolylineClosed(t *testing.T) {
	square := []Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}

	// On the closing edge (last vertex back to the first).
	if !HitPolyline(square, true, Point{X: 2, Y: 50}, 5) {
		t.Error("closing edge should be hit-testable for closed polylines")
	}

	// Two points cannot close; the pair has only its one real edge.
	segment := []Point{{X: 0, Y: 0}, {X: 100, Y: 0}}
	if HitPolyline(segment, true, Point{X: 50, Y: 30}, 5) {
		t.Error("two-point polyline has no closing edge")
	}
}

func TestHitPolylineDegenerate(t *testing.T) {
	if HitPolyline(nil, false, Point{}, 5) {
		t.Error("empty polyline can never hit")
	}
	if HitPolyline([]Point{{X: 1, Y: 1}}, true, Point{X: 1, Y: 1}, 5) {
		t.Error("single point renders no stroke and must not hit")
	}
}
