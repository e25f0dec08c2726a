// Package pointcloud implements the multipart point-cloud stream feeding the
// virtual-loop editor: the binary record format, an incremental stream
// decoder tolerant of arbitrary transport chunking, the matching encoder, and
// the byte sources (HTTP, recorded file, serial, synthetic) that drive a
// decoder.
//
// Frames use a structure-of-arrays layout so renderers and statistics can
// walk coordinates without per-point allocation.
package pointcloud

import "time"

// Frame is one decoded point-cloud frame. Positions are metres in the
// sensor's frame; Intensity carries the raw 16-bit return strength. The
// parallel slices are always the same length.
type Frame struct {
	Seq       uint64    // assigned by the decoder, strictly increasing per stream
	Timestamp time.Time // reception time
	X         []float32
	Y         []float32
	Z         []float32
	Intensity []uint16
}

// Len returns the number of points in the frame.
func (f *Frame) Len() int {
	return len(f.X)
}

// NewFrame returns a frame with capacity for n points.
func NewFrame(n int) *Frame {
	return &Frame{
		X:         make([]float32, 0, n),
		Y:         make([]float32, 0, n),
		Z:         make([]float32, 0, n),
		Intensity: make([]uint16, 0, n),
	}
}

// Append adds one point to the frame.
func (f *Frame) Append(x, y, z float32, intensity uint16) {
	f.X = append(f.X, x)
	f.Y = append(f.Y, y)
	f.Z = append(f.Z, z)
	f.Intensity = append(f.Intensity, intensity)
}
