// Package render hands decoded frames to rendering surfaces. The
// RenderAdapter interface is the seam an embedding application implements
// with whatever rendering technology it has; the package ships a latest-frame
// holder for pull-based consumers, a top-down raster renderer, and the debug
// chart endpoints' drawing code.
package render

import (
	"github.com/banshee-data/virtualloop/internal/pointcloud"
)

// Point3 is one render-space position in metres.
type Point3 struct {
	X, Y, Z float32
}

// Color is an RGB triple with channels in [0, 1].
type Color struct {
	R, G, B float32
}

// RenderAdapter receives one decoded frame per call, converted to flat
// position and color vectors. The slices are shared by every adapter in a
// delivery and must be treated as read-only; Dispatch allocates them fresh
// per frame, so retaining them is safe.
type RenderAdapter interface {
	RenderPoints(positions []Point3, colors []Color)
}

// FramePositions converts a frame's coordinate arrays to render positions.
func FramePositions(f *pointcloud.Frame) []Point3 {
	out := make([]Point3, f.Len())
	for i := range out {
		out[i] = Point3{X: f.X[i], Y: f.Y[i], Z: f.Z[i]}
	}
	return out
}

// IntensityColors maps a frame's intensities onto a white ramp, normalised to
// the frame's own maximum so both 8-bit and full-scale sensors span the ramp.
// A frame with no intensity data renders flat white.
func IntensityColors(f *pointcloud.Frame) []Color {
	out := make([]Color, f.Len())

	var max uint16
	for _, v := range f.Intensity {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		for i := range out {
			out[i] = Color{R: 1, G: 1, B: 1}
		}
		return out
	}

	for i, v := range f.Intensity {
		level := 0.25 + 0.75*float32(v)/float32(max)
		out[i] = Color{R: level, G: level, B: level}
	}
	return out
}

// Dispatch converts a frame once and delivers it to every adapter.
func Dispatch(f *pointcloud.Frame, adapters ...RenderAdapter) {
	if len(adapters) == 0 {
		return
	}
	positions := FramePositions(f)
	colors := IntensityColors(f)
	for _, a := range adapters {
		a.RenderPoints(positions, colors)
	}
}
