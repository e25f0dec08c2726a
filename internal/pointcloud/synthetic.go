package pointcloud

import (
	"bytes"
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/banshee-data/virtualloop/internal/timeutil"
)

// SyntheticGenerator produces frames with a disc-distributed static scene and
// a few clusters orbiting through it, close enough to road traffic for demos,
// recordings and tests. A fixed seed makes the output reproducible.
type SyntheticGenerator struct {
	// Configuration, adjustable before the first NextFrame.
	PointCount    int     // background points per frame
	ClusterCount  int     // moving clusters
	ClusterPoints int     // points per cluster
	AreaRadius    float64 // metres, radius of the scene disc
	TrackRadius   float64 // metres, radius of the cluster orbits
	TrackSpeedMPS float64 // metres per second along the orbit

	rng     *rand.Rand
	seq     uint64
	elapsed float64 // synthetic seconds advanced per frame
	step    float64
}

// NewSyntheticGenerator returns a generator with defaults suitable for a
// 10 fps stream. seed zero selects a time-based seed.
func NewSyntheticGenerator(seed int64) *SyntheticGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SyntheticGenerator{
		PointCount:    4000,
		ClusterCount:  4,
		ClusterPoints: 120,
		AreaRadius:    50.0,
		TrackRadius:   20.0,
		TrackSpeedMPS: 5.0,
		rng:           rand.New(rand.NewSource(seed)),
		step:          0.1,
	}
}

// NextFrame generates the next frame, advancing the synthetic clock one step.
func (g *SyntheticGenerator) NextFrame() *Frame {
	g.seq++
	f := NewFrame(g.PointCount + g.ClusterCount*g.ClusterPoints)
	f.Seq = g.seq
	f.Timestamp = time.Now()

	// Static scene: uniform disc with mostly ground-level points.
	for i := 0; i < g.PointCount; i++ {
		angle := g.rng.Float64() * 2 * math.Pi
		r := math.Sqrt(g.rng.Float64()) * g.AreaRadius
		x := r * math.Cos(angle)
		y := r * math.Sin(angle)

		z := g.rng.Float64()*0.2 - 0.1
		if g.rng.Float64() < 0.1 {
			z = g.rng.Float64() * 2.0
		}
		f.Append(float32(x), float32(y), float32(z), g.intensityFor(r))
	}

	// Clusters orbit at constant speed, spaced evenly around the track.
	for c := 0; c < g.ClusterCount; c++ {
		baseAngle := float64(c) * 2 * math.Pi / float64(g.ClusterCount)
		angle := baseAngle + g.elapsed*g.TrackSpeedMPS/g.TrackRadius
		cx := g.TrackRadius * math.Cos(angle)
		cy := g.TrackRadius * math.Sin(angle)

		for i := 0; i < g.ClusterPoints; i++ {
			x := cx + g.rng.NormFloat64()*0.6
			y := cy + g.rng.NormFloat64()*0.4
			z := 0.3 + g.rng.Float64()*1.5
			f.Append(float32(x), float32(y), float32(z), g.intensityFor(math.Hypot(x, y)))
		}
	}

	g.elapsed += g.step
	return f
}

// intensityFor maps distance to a return strength: closer is brighter, with
// a little noise, spread across the 16-bit range.
func (g *SyntheticGenerator) intensityFor(dist float64) uint16 {
	base := 200 - int(dist*3)
	if base < 50 {
		base = 50
	}
	base += g.rng.Intn(30)
	if base > 255 {
		base = 255
	}
	return uint16(base * 257)
}

// SyntheticSource paces generated frames through the encoder into a decoder
// feed, so the daemon can run end to end with no upstream at all.
type SyntheticSource struct {
	gen   *SyntheticGenerator
	fps   float64
	clock timeutil.Clock
}

// NewSyntheticSource wraps a generator as a Source at the given frame rate;
// fps <= 0 selects 10.
func NewSyntheticSource(gen *SyntheticGenerator, fps float64) *SyntheticSource {
	if fps <= 0 {
		fps = 10
	}
	return &SyntheticSource{gen: gen, fps: fps, clock: timeutil.RealClock{}}
}

// Stream encodes frames at the configured rate until cancellation.
func (s *SyntheticSource) Stream(ctx context.Context, feed func([]byte)) error {
	interval := time.Duration(float64(time.Second) / s.fps)
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		buf.Reset()
		if err := enc.WriteFrame(s.gen.NextFrame()); err != nil {
			return err
		}
		feed(buf.Bytes())
		s.clock.Sleep(interval)
	}
}
