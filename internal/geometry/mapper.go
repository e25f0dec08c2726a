package geometry

// Mapper converts between display-space and natural-space coordinates for a
// video rendered with an aspect-preserving "contain" fit. The fit letterboxes:
// the video is scaled to the largest rectangle that fits the container while
// keeping its aspect ratio, centred on the leftover axis.
//
// A Mapper is an immutable value. Callers rebuild it whenever the container is
// resized or the video's natural size becomes known.
type Mapper struct {
	naturalW, naturalH float64
	scale              float64
	offsetX, offsetY   float64
	degenerate         bool
}

// NewMapper computes the letterboxed display rectangle for a video of the
// given natural size inside the given container. If the natural size is not
// yet known (either dimension zero), or the container has not been laid out
// yet, the mapper is an identity: scale 1, offset 0, and no clamping. That
// guarantees pointer math never divides by zero or collapses to scale zero
// before both sizes are known.
func NewMapper(containerW, containerH, naturalW, naturalH float64) Mapper {
	if naturalW == 0 || naturalH == 0 || containerW == 0 || containerH == 0 {
		return Mapper{scale: 1, degenerate: true}
	}

	m := Mapper{naturalW: naturalW, naturalH: naturalH}

	naturalAspect := naturalW / naturalH
	containerAspect := containerW / containerH

	if naturalAspect > containerAspect {
		// Width-bound: video spans the full container width, bars above and below.
		displayH := containerW / naturalAspect
		m.scale = containerW / naturalW
		m.offsetY = (containerH - displayH) / 2
	} else {
		// Height-bound: video spans the full container height, bars at the sides.
		displayW := containerH * naturalAspect
		m.scale = containerH / naturalH
		m.offsetX = (containerW - displayW) / 2
	}

	return m
}

// ToNatural converts a display-space position into natural space, clamping
// the result into [0, naturalW] x [0, naturalH]. Clicks on the letterbox bars
// therefore land on the nearest video edge.
func (m Mapper) ToNatural(dx, dy float64) (float64, float64) {
	if m.degenerate {
		return dx, dy
	}

	nx := (dx - m.offsetX) / m.scale
	ny := (dy - m.offsetY) / m.scale

	nx = clamp(nx, 0, m.naturalW)
	ny = clamp(ny, 0, m.naturalH)
	return nx, ny
}

// ToDisplay converts a natural-space position into display space. No
// clamping: a natural point may legitimately map outside the visible box
// during resize transients, and callers draw it wherever it lands.
func (m Mapper) ToDisplay(nx, ny float64) (float64, float64) {
	if m.degenerate {
		return nx, ny
	}
	return nx*m.scale + m.offsetX, ny*m.scale + m.offsetY
}

// ToNaturalPoint is ToNatural over a Point value.
func (m Mapper) ToNaturalPoint(p Point) Point {
	x, y := m.ToNatural(p.X, p.Y)
	return Point{X: x, Y: y}
}

// ToDisplayPoint is ToDisplay over a Point value.
func (m Mapper) ToDisplayPoint(p Point) Point {
	x, y := m.ToDisplay(p.X, p.Y)
	return Point{X: x, Y: y}
}

// Scale returns the display pixels per natural pixel. 1 for a degenerate
// mapper.
func (m Mapper) Scale() float64 {
	return m.scale
}

// DisplayRect returns the letterboxed video rectangle in display space as
// (x, y, w, h). For a degenerate mapper everything is zero.
func (m Mapper) DisplayRect() (x, y, w, h float64) {
	if m.degenerate {
		return 0, 0, 0, 0
	}
	return m.offsetX, m.offsetY, m.naturalW * m.scale, m.naturalH * m.scale
}

// Degenerate reports whether the mapper was built without a known natural
// size.
func (m Mapper) Degenerate() bool {
	return m.degenerate
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
