package pointcloud

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"github.com/banshee-data/virtualloop/internal/monitoring"
)

// Recorder tees decoded frames into a wire-format file. The resulting file
// replays through FileSource, frame for frame, with no conversion step.
type Recorder struct {
	mu     sync.Mutex
	path   string
	f      *os.File
	w      *bufio.Writer
	enc    *Encoder
	frames int64
	err    error
	closed bool
}

// NewRecorder creates (or truncates) the file at path and returns a recorder
// writing to it.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create recording %s: %w", path, err)
	}
	w := bufio.NewWriterSize(f, 256*1024)
	return &Recorder{
		path: path,
		f:    f,
		w:    w,
		enc:  NewEncoder(w),
	}, nil
}

// HandleFrame appends one frame to the recording. The signature matches the
// decoder sink so a recorder can sit directly on the frame fan-out. After the
// first write error the recorder goes inert; the error resurfaces from Close.
func (r *Recorder) HandleFrame(f *Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.err != nil {
		return
	}
	if err := r.enc.WriteFrame(f); err != nil {
		r.err = err
		monitoring.Logf("recorder: suspending after write error on %s: %v", r.path, err)
		return
	}
	r.frames++
}

// Frames returns the number of frames written so far.
func (r *Recorder) Frames() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Path returns the recording file path.
func (r *Recorder) Path() string {
	return r.path
}

// Close flushes and closes the recording, returning the first error seen
// across writing, flushing and closing. Close is idempotent.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.err
	}
	r.closed = true

	if err := r.w.Flush(); err != nil && r.err == nil {
		r.err = fmt.Errorf("flush recording %s: %w", r.path, err)
	}
	if err := r.f.Close(); err != nil && r.err == nil {
		r.err = fmt.Errorf("close recording %s: %w", r.path, err)
	}
	monitoring.Logf("recorder: wrote %d frames to %s", r.frames, r.path)
	return r.err
}
