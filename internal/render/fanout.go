package render

import (
	"sync"

	"github.com/banshee-data/virtualloop/internal/pointcloud"
)

// Fanout delivers each decoded frame to every registered sink, in
// registration order, on the decoder's goroutine. Sinks must be quick; a
// sink that can fall behind should hand off internally the way FrameHolder
// does rather than block the stream.
type Fanout struct {
	mu    sync.RWMutex
	sinks []func(*pointcloud.Frame)
}

// NewFanout returns an empty fan-out.
func NewFanout() *Fanout {
	return &Fanout{}
}

// Add registers a frame sink.
func (fo *Fanout) Add(sink func(*pointcloud.Frame)) {
	fo.mu.Lock()
	defer fo.mu.Unlock()
	fo.sinks = append(fo.sinks, sink)
}

// AddAdapter registers a RenderAdapter, converting each frame once at
// delivery time.
func (fo *Fanout) AddAdapter(a RenderAdapter) {
	fo.Add(func(f *pointcloud.Frame) {
		Dispatch(f, a)
	})
}

// HandleFrame delivers the frame to every sink. The signature matches the
// decoder sink so the fan-out slots directly into DecoderConfig.
func (fo *Fanout) HandleFrame(f *pointcloud.Frame) {
	fo.mu.RLock()
	defer fo.mu.RUnlock()
	for _, sink := range fo.sinks {
		sink(f)
	}
}
