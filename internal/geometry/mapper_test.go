package geometry

import (
	"math"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestNewMapperWidthBound(t *testing.T) {
	// 1920x1080 video in a 800x800 container: video aspect (1.78) beats the
	// container's (1.0), so the width is the binding edge.
	m := NewMapper(800, 800, 1920, 1080)

	if !almostEqual(m.Scale(), 800.0/1920.0) {
		t.Errorf("scale = %v, want %v", m.Scale(), 800.0/1920.0)
	}

	x, y, w, h := m.DisplayRect()
	wantH := 800.0 / (1920.0 / 1080.0)
	if !almostEqual(x, 0) || !almostEqual(w, 800) {
		t.Errorf("display rect x=%v w=%v, want 0 and 800", x, w)
	}
	if !almostEqual(h, wantH) {
		t.Errorf("display height = %v, want %v", h, wantH)
	}
	if !almostEqual(y, (800-wantH)/2) {
		t.Errorf("vertical offset = %v, want %v", y, (800-wantH)/2)
	}
}

func TestNewMapperHeightBound(t *testing.T) {
	// 640x480 video in a 1600x480 container: container is wider, so the
	// height binds and pillarboxing centres horizontally.
	m := NewMapper(1600, 480, 640, 480)

	if !almostEqual(m.Scale(), 1.0) {
		t.Errorf("scale = %v, want 1", m.Scale())
	}

	x, y, w, h := m.DisplayRect()
	if !almostEqual(w, 640) || !almostEqual(h, 480) {
		t.Errorf("display rect %vx%v, want 640x480", w, h)
	}
	if !almostEqual(x, (1600-640)/2.0) || !almostEqual(y, 0) {
		t.Errorf("offsets x=%v y=%v", x, y)
	}
}

func TestMapperDegenerateIdentity(t *testing.T) {
	for _, m := range []Mapper{
		NewMapper(800, 600, 0, 0),
		NewMapper(800, 600, 1920, 0),
		NewMapper(800, 600, 0, 1080),
		NewMapper(0, 0, 1920, 1080),
	} {
		if !m.Degenerate() {
			t.Fatal("expected degenerate mapper")
		}
		nx, ny := m.ToNatural(123.5, 77.25)
		if !almostEqual(nx, 123.5) || !almostEqual(ny, 77.25) {
			t.Errorf("degenerate ToNatural(123.5, 77.25) = (%v, %v)", nx, ny)
		}
		dx, dy := m.ToDisplay(9, 4)
		if !almostEqual(dx, 9) || !almostEqual(dy, 4) {
			t.Errorf("degenerate ToDisplay(9, 4) = (%v, %v)", dx, dy)
		}
		if m.Scale() != 1 {
			t.Errorf("degenerate scale = %v", m.Scale())
		}
	}
}

// ToDisplay(ToNatural(x,y)) must reproduce any display point that falls
// inside the letterboxed rectangle, across both aspect regimes.
func TestMapperRoundTripInsideDisplayRect(t *testing.T) {
	mappers := []struct {
		name string
		m    Mapper
	}{
		{"width-bound", NewMapper(800, 800, 1920, 1080)},
		{"height-bound", NewMapper(1600, 480, 640, 480)},
		{"exact-fit", NewMapper(1920, 1080, 1920, 1080)},
		{"upscaled", NewMapper(3840, 2160, 1280, 720)},
	}

	for _, tc := range mappers {
		t.Run(tc.name, func(t *testing.T) {
			rx, ry, rw, rh := tc.m.DisplayRect()
			// Sample a grid of interior points plus the rect corners.
			for _, fx := range []float64{0, 0.1, 0.5, 0.9, 1} {
				for _, fy := range []float64{0, 0.25, 0.5, 0.75, 1} {
					dx := rx + fx*rw
					dy := ry + fy*rh

					nx, ny := tc.m.ToNatural(dx, dy)
					backX, backY := tc.m.ToDisplay(nx, ny)

					if math.Abs(backX-dx) > 1e-6 || math.Abs(backY-dy) > 1e-6 {
						t.Errorf("round trip (%v,%v) -> (%v,%v) -> (%v,%v)",
							dx, dy, nx, ny, backX, backY)
					}
				}
			}
		})
	}
}

func TestToNaturalClampsLetterboxClicks(t *testing.T) {
	// Width-bound fit leaves bars above and below; clicking in a bar must
	// land on the nearest video edge, never outside the natural bounds.
	m := NewMapper(800, 800, 1920, 1080)
	_, ry, _, rh := m.DisplayRect()

	// Top bar.
	nx, ny := m.ToNatural(400, ry/2)
	if ny != 0 {
		t.Errorf("top bar click mapped to y=%v, want 0", ny)
	}
	if nx < 0 || nx > 1920 {
		t.Errorf("x clamped badly: %v", nx)
	}

	// Bottom bar.
	_, ny = m.ToNatural(400, ry+rh+(800-(ry+rh))/2)
	if ny != 1080 {
		t.Errorf("bottom bar click mapped to y=%v, want 1080", ny)
	}

	// Far off the left edge.
	nx, _ = m.ToNatural(-500, 400)
	if nx != 0 {
		t.Errorf("off-left click mapped to x=%v, want 0", nx)
	}
}

func TestToDisplayDoesNotClamp(t *testing.T) {
	m := NewMapper(800, 800, 1920, 1080)

	// A natural point beyond the frame maps outside the display box and is
	// returned untouched.
	dx, _ := m.ToDisplay(2500, 540)
	_, _, w, _ := m.DisplayRect()
	if dx <= w {
		t.Errorf("out-of-frame natural x mapped inside the box: %v <= %v", dx, w)
	}
}
