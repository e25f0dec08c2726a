package render

import (
	"encoding/hex"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/banshee-data/virtualloop/internal/annotation"
	"github.com/banshee-data/virtualloop/internal/geometry"
	"github.com/banshee-data/virtualloop/internal/pointcloud"
)

const (
	// DefaultBEVSize is the square canvas edge in pixels.
	DefaultBEVSize = 800
	// DefaultBEVExtent is the half-width of the rendered area in metres; the
	// canvas covers [-extent, extent] on both axes.
	DefaultBEVExtent = 60.0
)

var (
	laneFallback    = color.RGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff}
	triggerFallback = color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}
)

// BEVRenderer draws frames top-down: world X right, world Y up, sensor at
// the centre, points on black with lane and trigger overlays on top.
// The zero value is not usable; construct with NewBEVRenderer.
type BEVRenderer struct {
	size   int
	extent float64
}

// NewBEVRenderer returns a renderer with the given canvas edge and metre
// extent; zero or negative arguments select the defaults.
func NewBEVRenderer(size int, extent float64) *BEVRenderer {
	if size <= 0 {
		size = DefaultBEVSize
	}
	if extent <= 0 {
		extent = DefaultBEVExtent
	}
	return &BEVRenderer{size: size, extent: extent}
}

// Size returns the canvas edge in pixels.
func (r *BEVRenderer) Size() int { return r.size }

// Extent returns the half-width of the rendered area in metres.
func (r *BEVRenderer) Extent() float64 { return r.extent }

// WorldToImage maps a world position in metres to canvas pixels. Points
// outside the extent map outside [0, size).
func (r *BEVRenderer) WorldToImage(x, y float64) geometry.Point {
	half := float64(r.size) / 2
	return geometry.Point{
		X: half + x/r.extent*half,
		Y: half - y/r.extent*half,
	}
}

// Render rasterises the frame and overlays the annotation document. Either
// argument may be nil: a nil frame draws overlays on an empty canvas, a nil
// document draws points alone.
func (r *BEVRenderer) Render(f *pointcloud.Frame, doc *annotation.Document) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.size, r.size))
	for i := range img.Pix {
		if i%4 == 3 {
			img.Pix[i] = 0xff
		}
	}

	if f != nil {
		r.drawPoints(img, f)
	}
	if doc != nil {
		r.drawOverlays(img, doc)
	}
	return img
}

// EncodePNG renders and writes the PNG encoding to w.
func (r *BEVRenderer) EncodePNG(w io.Writer, f *pointcloud.Frame, doc *annotation.Document) error {
	return png.Encode(w, r.Render(f, doc))
}

func (r *BEVRenderer) drawPoints(img *image.RGBA, f *pointcloud.Frame) {
	var max uint16
	for _, v := range f.Intensity {
		if v > max {
			max = v
		}
	}

	for i := 0; i < f.Len(); i++ {
		p := r.WorldToImage(float64(f.X[i]), float64(f.Y[i]))
		px, py := int(p.X), int(p.Y)
		if px < 0 || px >= r.size || py < 0 || py >= r.size {
			continue
		}
		level := uint8(255)
		if max > 0 {
			level = uint8(40 + int(215*uint32(f.Intensity[i])/uint32(max)))
		}
		img.SetRGBA(px, py, color.RGBA{R: level, G: level, B: level, A: 0xff})
	}
}

func (r *BEVRenderer) drawOverlays(img *image.RGBA, doc *annotation.Document) {
	sx, sy := 1.0, 1.0
	if doc.VideoSize.Width > 0 {
		sx = float64(r.size) / doc.VideoSize.Width
	}
	if doc.VideoSize.Height > 0 {
		sy = float64(r.size) / doc.VideoSize.Height
	}

	for _, l := range doc.Lanes {
		closed := len(l.Points) >= 3
		r.drawShape(img, l.Points, sx, sy, parseHexColor(l.Color, laneFallback), l.StrokeWidth, closed)
	}
	for _, t := range doc.Triggers {
		r.drawShape(img, t.Points, sx, sy, parseHexColor(t.Color, triggerFallback), t.StrokeWidth, false)
	}
}

func (r *BEVRenderer) drawShape(img *image.RGBA, pts []geometry.Point, sx, sy float64, col color.RGBA, strokeWidth int, closed bool) {
	if len(pts) < 2 {
		return
	}
	width := float64(strokeWidth) * math.Min(sx, sy)
	if width < 1 {
		width = 1
	}
	for i := 1; i < len(pts); i++ {
		drawSegment(img, pts[i-1].X*sx, pts[i-1].Y*sy, pts[i].X*sx, pts[i].Y*sy, width, col)
	}
	if closed {
		last := len(pts) - 1
		drawSegment(img, pts[last].X*sx, pts[last].Y*sy, pts[0].X*sx, pts[0].Y*sy, width, col)
	}
}

// drawSegment walks the segment parametrically, stamping pixels across the
// perpendicular to make up the stroke width.
func drawSegment(img *image.RGBA, x1, y1, x2, y2, width float64, col color.RGBA) {
	dx := x2 - x1
	dy := y2 - y1
	dist := math.Hypot(dx, dy)
	half := width / 2

	if dist < 1 {
		for oy := -half; oy <= half; oy++ {
			for ox := -half; ox <= half; ox++ {
				setClipped(img, int(x1+ox), int(y1+oy), col)
			}
		}
		return
	}

	perpX := -dy / dist
	perpY := dx / dist
	steps := math.Max(math.Abs(dx), math.Abs(dy))

	for i := 0.0; i <= steps; i++ {
		t := i / steps
		cx := x1 + dx*t
		cy := y1 + dy*t
		for off := -half; off <= half; off += 0.5 {
			setClipped(img, int(cx+perpX*off), int(cy+perpY*off), col)
		}
	}
}

func setClipped(img *image.RGBA, x, y int, col color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(img.Rect) {
		return
	}
	img.SetRGBA(x, y, col)
}

// parseHexColor decodes a #rrggbb string, returning fallback on anything
// else.
func parseHexColor(s string, fallback color.RGBA) color.RGBA {
	if len(s) != 7 || s[0] != '#' {
		return fallback
	}
	raw, err := hex.DecodeString(s[1:])
	if err != nil {
		return fallback
	}
	return color.RGBA{R: raw[0], G: raw[1], B: raw[2], A: 0xff}
}
