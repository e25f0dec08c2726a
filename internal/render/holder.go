package render

import (
	"context"
	"sync"

	"github.com/banshee-data/virtualloop/internal/pointcloud"
)

// FrameHolder is a single-slot latest-frame store. Writers overwrite, last
// write wins; there is no queue and no backpressure. Readers either grab the
// newest frame immediately or block in Next until a frame newer than the one
// they have seen arrives.
type FrameHolder struct {
	mu        sync.Mutex
	frame     *pointcloud.Frame
	positions []Point3
	colors    []Color
	seq       uint64
	changed   chan struct{}
}

// NewFrameHolder returns an empty holder at sequence zero.
func NewFrameHolder() *FrameHolder {
	return &FrameHolder{changed: make(chan struct{})}
}

// HandleFrame stores the frame as the newest, converting it for render
// consumers. The signature matches the decoder sink.
func (h *FrameHolder) HandleFrame(f *pointcloud.Frame) {
	positions := FramePositions(f)
	colors := IntensityColors(f)

	h.mu.Lock()
	h.frame = f
	h.positions = positions
	h.colors = colors
	h.seq++
	close(h.changed)
	h.changed = make(chan struct{})
	h.mu.Unlock()
}

// RenderPoints stores converted vectors directly, advancing the sequence.
// This is the RenderAdapter contract path; the raw frame slot is left as-is.
func (h *FrameHolder) RenderPoints(positions []Point3, colors []Color) {
	h.mu.Lock()
	h.positions = positions
	h.colors = colors
	h.seq++
	close(h.changed)
	h.changed = make(chan struct{})
	h.mu.Unlock()
}

// Latest returns the newest frame and its sequence number. The frame is nil
// until the first HandleFrame.
func (h *FrameHolder) Latest() (*pointcloud.Frame, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame, h.seq
}

// LatestVectors returns the newest converted positions and colors with their
// sequence number.
func (h *FrameHolder) LatestVectors() ([]Point3, []Color, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.positions, h.colors, h.seq
}

// Seq returns the current sequence number.
func (h *FrameHolder) Seq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

// Next blocks until a frame with sequence greater than after is available,
// then returns it. Intermediate frames are skipped, not queued: a slow caller
// always gets the newest frame, never a backlog.
func (h *FrameHolder) Next(ctx context.Context, after uint64) (*pointcloud.Frame, uint64, error) {
	for {
		h.mu.Lock()
		if h.seq > after && h.frame != nil {
			f, seq := h.frame, h.seq
			h.mu.Unlock()
			return f, seq, nil
		}
		ch := h.changed
		h.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		case <-ch:
		}
	}
}
