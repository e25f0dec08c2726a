package pointcloud

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/banshee-data/virtualloop/internal/monitoring"
	"github.com/banshee-data/virtualloop/internal/timeutil"
)

// FileSourceConfig configures a recorded-stream replay.
type FileSourceConfig struct {
	Path     string
	Boundary string         // defaults to DefaultBoundary
	FPS      float64        // sections per second, defaults to 10
	Rate     float64        // playback multiplier, defaults to 1.0
	Loop     bool           // restart from the top at EOF
	Clock    timeutil.Clock // defaults to the real clock
}

// FileSource replays a recorded multipart stream from disk, emitting one
// framed section per tick so the decoder sees live-like cadence instead of
// one giant chunk.
type FileSource struct {
	cfg      FileSourceConfig
	boundary []byte
}

// NewFileSource returns a replay source for the given recording.
func NewFileSource(cfg FileSourceConfig) *FileSource {
	if cfg.Boundary == "" {
		cfg.Boundary = DefaultBoundary
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 10
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1.0
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	return &FileSource{cfg: cfg, boundary: []byte(cfg.Boundary)}
}

// Stream feeds the recording section by section at the configured pace. When
// not looping, a final lone marker is fed so the decoder can close out the
// recording's last frame.
func (s *FileSource) Stream(ctx context.Context, feed func([]byte)) error {
	data, err := os.ReadFile(s.cfg.Path)
	if err != nil {
		return fmt.Errorf("read recording: %w", err)
	}

	sections := splitSections(data, s.boundary)
	if len(sections) == 0 {
		return fmt.Errorf("recording %s contains no %q sections", s.cfg.Path, string(bytes.TrimSpace(s.boundary)))
	}
	monitoring.Logf("pointcloud: replaying %d sections from %s at %.1f fps x%.2g",
		len(sections), s.cfg.Path, s.cfg.FPS, s.cfg.Rate)

	interval := time.Duration(float64(time.Second) / (s.cfg.FPS * s.cfg.Rate))
	for {
		for _, section := range sections {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			feed(section)
			s.cfg.Clock.Sleep(interval)
		}
		if !s.cfg.Loop {
			// The decoder frames on marker pairs; one more marker closes the
			// final section.
			feed(s.boundary)
			return nil
		}
	}
}

// splitSections cuts the recording at each marker. Every chunk starts with
// the marker and runs to the next one; leading junk before the first marker
// is dropped here rather than left for the decoder to resync over on every
// loop pass.
func splitSections(data, boundary []byte) [][]byte {
	first := bytes.Index(data, boundary)
	if first < 0 {
		return nil
	}
	data = data[first:]

	var out [][]byte
	for len(data) > 0 {
		next := bytes.Index(data[len(boundary):], boundary)
		if next < 0 {
			out = append(out, data)
			break
		}
		out = append(out, data[:len(boundary)+next])
		data = data[len(boundary)+next:]
	}
	return out
}
