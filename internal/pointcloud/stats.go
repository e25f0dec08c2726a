package pointcloud

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultStatsWindow is the number of recent frames retained for the
// points-per-frame distribution, about 30 seconds at the usual 10 fps.
const DefaultStatsWindow = 300

// StreamStats aggregates decoder counters. Interval counters accumulate until
// GetAndReset, which the daemon's periodic reporter calls; lifetime totals
// and the retained per-frame window survive resets.
type StreamStats struct {
	mu sync.Mutex

	// Interval counters.
	frameCount      int64
	pointCount      int64
	byteCount       int64
	droppedSections int64
	discardedBytes  int64
	truncatedBytes  int64
	zeroPointFrames int64
	lastReset       time.Time

	// Lifetime totals.
	totalFrames    int64
	totalPoints    int64
	totalBytes     int64
	totalDropped   int64
	totalDiscarded int64
	totalTruncated int64

	// Retained per-frame point counts, newest overwriting oldest.
	window []float64
	pos    int
	filled int
}

// NewStreamStats returns a counter set retaining the given number of frames
// for quantile summaries; window <= 0 selects DefaultStatsWindow.
func NewStreamStats(window int) *StreamStats {
	if window <= 0 {
		window = DefaultStatsWindow
	}
	return &StreamStats{
		window:    make([]float64, window),
		lastReset: time.Now(),
	}
}

// AddBytes records raw stream bytes received.
func (s *StreamStats) AddBytes(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byteCount += int64(n)
	s.totalBytes += int64(n)
}

// AddFrame records one decoded frame and its point count.
func (s *StreamStats) AddFrame(points int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameCount++
	s.totalFrames++
	s.pointCount += int64(points)
	s.totalPoints += int64(points)
	if points == 0 {
		s.zeroPointFrames++
	}

	s.window[s.pos] = float64(points)
	s.pos = (s.pos + 1) % len(s.window)
	if s.filled < len(s.window) {
		s.filled++
	}
}

// AddDroppedSection records a section discarded for lacking a header
// separator.
func (s *StreamStats) AddDroppedSection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.droppedSections++
	s.totalDropped++
}

// AddDiscarded records bytes dropped before the first boundary was found.
func (s *StreamStats) AddDiscarded(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardedBytes += int64(n)
	s.totalDiscarded += int64(n)
}

// AddTruncated records trailing payload bytes that did not fill a whole
// record.
func (s *StreamStats) AddTruncated(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.truncatedBytes += int64(n)
	s.totalTruncated += int64(n)
}

// TotalFrames returns the lifetime frame count.
func (s *StreamStats) TotalFrames() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalFrames
}

// IntervalSnapshot holds the counters accumulated since the previous reset.
type IntervalSnapshot struct {
	Frames          int64         `json:"frames"`
	Points          int64         `json:"points"`
	Bytes           int64         `json:"bytes"`
	DroppedSections int64         `json:"droppedSections"`
	DiscardedBytes  int64         `json:"discardedBytes"`
	TruncatedBytes  int64         `json:"truncatedBytes"`
	ZeroPointFrames int64         `json:"zeroPointFrames"`
	Duration        time.Duration `json:"-"`
}

// GetAndReset returns the interval counters and starts a new interval. The
// retained frame window and lifetime totals are unaffected.
func (s *StreamStats) GetAndReset() IntervalSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	snap := IntervalSnapshot{
		Frames:          s.frameCount,
		Points:          s.pointCount,
		Bytes:           s.byteCount,
		DroppedSections: s.droppedSections,
		DiscardedBytes:  s.discardedBytes,
		TruncatedBytes:  s.truncatedBytes,
		ZeroPointFrames: s.zeroPointFrames,
		Duration:        now.Sub(s.lastReset),
	}
	s.frameCount = 0
	s.pointCount = 0
	s.byteCount = 0
	s.droppedSections = 0
	s.discardedBytes = 0
	s.truncatedBytes = 0
	s.zeroPointFrames = 0
	s.lastReset = now
	return snap
}

// Summary describes the stream since startup plus the points-per-frame
// distribution over the retained window.
type Summary struct {
	TotalFrames     int64   `json:"totalFrames"`
	TotalPoints     int64   `json:"totalPoints"`
	TotalBytes      int64   `json:"totalBytes"`
	WindowFrames    int     `json:"windowFrames"`
	MeanPoints      float64 `json:"meanPoints"`
	P50Points       float64 `json:"p50Points"`
	P90Points       float64 `json:"p90Points"`
	P99Points       float64 `json:"p99Points"`
	DroppedSections int64   `json:"droppedSections"`
	TruncatedBytes  int64   `json:"truncatedBytes"`
	DiscardedBytes  int64   `json:"discardedBytes"`
}

// Summarize computes the distribution summary. Quantiles are empirical over
// the retained window; an empty window reports zeros.
func (s *StreamStats) Summarize() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Summary{
		TotalFrames:     s.totalFrames,
		TotalPoints:     s.totalPoints,
		TotalBytes:      s.totalBytes,
		WindowFrames:    s.filled,
		DroppedSections: s.totalDropped,
		TruncatedBytes:  s.totalTruncated,
		DiscardedBytes:  s.totalDiscarded,
	}
	if s.filled == 0 {
		return out
	}

	data := make([]float64, s.filled)
	copy(data, s.window[:s.filled])
	sort.Float64s(data)

	out.MeanPoints = stat.Mean(data, nil)
	out.P50Points = stat.Quantile(0.5, stat.Empirical, data, nil)
	out.P90Points = stat.Quantile(0.9, stat.Empirical, data, nil)
	out.P99Points = stat.Quantile(0.99, stat.Empirical, data, nil)
	return out
}

// WindowCounts returns the retained per-frame point counts oldest first, for
// the rate plot.
func (s *StreamStats) WindowCounts() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]float64, 0, s.filled)
	if s.filled < len(s.window) {
		out = append(out, s.window[:s.filled]...)
		return out
	}
	out = append(out, s.window[s.pos:]...)
	out = append(out, s.window[:s.pos]...)
	return out
}
