package pointcloud

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/virtualloop/internal/monitoring"
)

// ErrAlreadyRunning is returned by Start while a previous stream is still
// being consumed. The running stream is left untouched.
var ErrAlreadyRunning = errors.New("stream decoder already running")

// Source delivers raw stream bytes into a feed until EOF, a transport error
// or context cancellation. Implementations must return promptly once the
// context is cancelled.
type Source interface {
	Stream(ctx context.Context, feed func([]byte)) error
}

// DecoderConfig configures a StreamDecoder.
type DecoderConfig struct {
	// Boundary overrides the section marker. Defaults to DefaultBoundary.
	Boundary string
	// Sink receives every decoded frame, including valid zero-point frames.
	Sink func(*Frame)
	// Stats, when set, aggregates stream counters.
	Stats *StreamStats
}

// StreamDecoder splits a multipart byte stream into framed sections and
// decodes each payload into a Frame.
//
// The transport may chunk the stream arbitrarily: markers, headers and
// payloads can straddle any number of reads. The decoder accumulates bytes
// and only emits a section once both of its delimiting markers have arrived,
// so a marker is never consumed twice and a partial tail is never decoded.
//
// One decoder owns at most one in-flight stream. Start is guarded so a
// concurrent second call cannot attach a duplicate reader.
type StreamDecoder struct {
	boundary []byte
	sink     func(*Frame)
	stats    *StreamStats

	running atomic.Bool
	wg      sync.WaitGroup

	mu     sync.Mutex
	cancel context.CancelFunc
	buf    []byte
	synced bool
	seq    uint64
}

// NewStreamDecoder returns a decoder ready to Feed or Start.
func NewStreamDecoder(cfg DecoderConfig) *StreamDecoder {
	boundary := cfg.Boundary
	if boundary == "" {
		boundary = DefaultBoundary
	}
	stats := cfg.Stats
	if stats == nil {
		stats = NewStreamStats(0)
	}
	return &StreamDecoder{
		boundary: []byte(boundary),
		sink:     cfg.Sink,
		stats:    stats,
	}
}

// Stats returns the decoder's counter set.
func (d *StreamDecoder) Stats() *StreamStats {
	return d.stats
}

// Running reports whether a stream is currently being consumed.
func (d *StreamDecoder) Running() bool {
	return d.running.Load()
}

// Start consumes the source on a new goroutine until EOF, a transport error
// or cancellation of ctx or Stop. A second Start while running returns
// ErrAlreadyRunning without touching the in-flight stream.
func (d *StreamDecoder) Start(ctx context.Context, src Source) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.buf = nil
	d.synced = false
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.running.Store(false)
		defer cancel()
		err := src.Stream(runCtx, d.Feed)
		switch {
		case err == nil:
			monitoring.Logf("pointcloud: stream ended after %d frames", d.stats.TotalFrames())
		case runCtx.Err() != nil:
			monitoring.Logf("pointcloud: stream stopped")
		default:
			monitoring.Logf("pointcloud: stream failed: %v", err)
		}
	}()
	return nil
}

// Stop cancels the in-flight stream, if any, and waits for the read loop to
// return. Safe to call at any time, including before any Start.
func (d *StreamDecoder) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.wg.Wait()
}

// Feed appends a chunk to the accumulation buffer and emits every complete
// framed section it now holds. Bytes preceding the first marker ever seen are
// discarded; after that the buffer always begins at a marker.
func (d *StreamDecoder) Feed(chunk []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.buf = append(d.buf, chunk...)
	d.stats.AddBytes(len(chunk))

	if !d.synced {
		i := bytes.Index(d.buf, d.boundary)
		if i < 0 {
			// Keep only a potential marker prefix so junk cannot grow the
			// buffer without bound.
			if keep := len(d.boundary) - 1; len(d.buf) > keep {
				d.stats.AddDiscarded(len(d.buf) - keep)
				d.buf = append(d.buf[:0], d.buf[len(d.buf)-keep:]...)
			}
			return
		}
		if i > 0 {
			d.stats.AddDiscarded(i)
			monitoring.Logf("pointcloud: discarded %d bytes before first boundary", i)
		}
		d.buf = d.buf[i:]
		d.synced = true
	}

	for {
		rest := d.buf[len(d.boundary):]
		next := bytes.Index(rest, d.boundary)
		if next < 0 {
			return
		}
		section := rest[:next]
		d.buf = rest[next:]
		d.handleSectionLocked(section)
	}
}

func (d *StreamDecoder) handleSectionLocked(section []byte) {
	sep := bytes.Index(section, []byte(headerEnd))
	if sep < 0 {
		d.stats.AddDroppedSection()
		monitoring.Logf("pointcloud: dropped section without header separator (%d bytes)", len(section))
		return
	}

	payload := section[sep+len(headerEnd):]
	payload = trimTrailingBreak(payload)

	frame, remainder := DecodeRecords(payload)
	if remainder > 0 {
		d.stats.AddTruncated(remainder)
	}

	d.seq++
	frame.Seq = d.seq
	frame.Timestamp = time.Now()
	d.stats.AddFrame(frame.Len())
	if frame.Len() == 0 {
		monitoring.Logf("pointcloud: frame %d carries no points", frame.Seq)
	}
	if d.sink != nil {
		d.sink(frame)
	}
}

// trimTrailingBreak removes the single line break separating a payload from
// the next marker. Payload bytes that merely look like a line break deeper in
// the body are untouched.
func trimTrailingBreak(payload []byte) []byte {
	if bytes.HasSuffix(payload, []byte("\r\n")) {
		return payload[:len(payload)-2]
	}
	if bytes.HasSuffix(payload, []byte("\n")) {
		return payload[:len(payload)-1]
	}
	return payload
}
