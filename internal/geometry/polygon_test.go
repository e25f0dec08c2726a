package geometry

import "testing"

func TestPointInPolygonSquare(t *testing.T) {
	square := []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}

	inside := []Point{{X: 5, Y: 5}, {X: 1, Y: 1}, {X: 9.9, Y: 9.9}}
	for _, p := range inside {
		if !PointInPolygon(p, square) {
			t.Errorf("%+v should be inside", p)
		}
	}

	outside := []Point{{X: -1, Y: 5}, {X: 11, Y: 5}, {X: 5, Y: -0.5}, {X: 5, Y: 10.5}}
	for _, p := range outside {
		if PointInPolygon(p, square) {
			t.Errorf("%+v should be outside", p)
		}
	}
}

func TestPointInPolygonConcave(t *testing.T) {
	// L-shape: the notch at the top right is outside.
	l := []Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5},
		{X: 5, Y: 5}, {X: 5, Y: 10}, {X: 0, Y: 10},
	}

	if !PointInPolygon(Point{X: 2, Y: 8}, l) {
		t.Error("point in the vertical arm should be inside")
	}
	if !PointInPolygon(Point{X: 8, Y: 2}, l) {
		t.Error("point in the horizontal arm should be inside")
	}
	if PointInPolygon(Point{X: 8, Y: 8}, l) {
		t.Error("point in the notch should be outside")
	}
}

func TestPointInPolygonDegenerate(t *testing.T) {
	if PointInPolygon(Point{X: 0, Y: 0}, nil) {
		t.Error("empty polygon contains nothing")
	}
	if PointInPolygon(Point{X: 1, Y: 1}, []Point{{X: 0, Y: 0}, {X: 2, Y: 2}}) {
		t.Error("two vertices do not enclose area")
	}
}
