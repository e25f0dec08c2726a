package pointcloud

import (
	"bytes"
	"fmt"
	"math"
	"testing"
)

func TestWriteFrameWireLayout(t *testing.T) {
	f := NewFrame(1)
	f.Append(1.0, 2.0, 3.0, 500)

	var buf bytes.Buffer
	if err := NewEncoder(&buf).WriteFrame(f); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	wantHead := fmt.Sprintf("--frame\r\nContent-Type: application/octet-stream\r\nContent-Length: %d\r\n\r\n", RECORD_STRIDE)
	raw := buf.Bytes()
	if !bytes.HasPrefix(raw, []byte(wantHead)) {
		t.Fatalf("Unexpected section head:\n%q", raw[:min(len(raw), len(wantHead)+8)])
	}
	if !bytes.HasSuffix(raw, []byte("\r\n")) {
		t.Error("Section missing trailing line break")
	}
	if got, want := len(raw), len(wantHead)+RECORD_STRIDE+2; got != want {
		t.Errorf("Expected %d section bytes, got %d", want, got)
	}
}

// The encoder's output must be directly consumable by the decoder; this is
// the compatibility law the producer endpoint and the recorder rely on.
func TestEncoderDecoderLoop(t *testing.T) {
	gen := NewSyntheticGenerator(42)
	gen.PointCount = 200
	gen.ClusterCount = 2
	gen.ClusterPoints = 20

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	want := make([]*Frame, 0, 3)
	for i := 0; i < 3; i++ {
		f := gen.NextFrame()
		want = append(want, f)
		if err := enc.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame %d failed: %v", i, err)
		}
	}
	buf.WriteString(DefaultBoundary)

	d, c := newCollectingDecoder()
	d.Feed(buf.Bytes())

	if c.count() != 3 {
		t.Fatalf("Expected 3 frames back, got %d", c.count())
	}
	for i, w := range want {
		g := c.frame(i)
		if g.Len() != w.Len() {
			t.Fatalf("Frame %d: expected %d points, got %d", i, w.Len(), g.Len())
		}
		for p := 0; p < w.Len(); p++ {
			if math.Abs(float64(g.X[p]-w.X[p])) > 1e-4 ||
				math.Abs(float64(g.Y[p]-w.Y[p])) > 1e-4 ||
				math.Abs(float64(g.Z[p]-w.Z[p])) > 1e-4 {
				t.Fatalf("Frame %d point %d drifted: (%f,%f,%f) != (%f,%f,%f)",
					i, p, g.X[p], g.Y[p], g.Z[p], w.X[p], w.Y[p], w.Z[p])
			}
			if g.Intensity[p] != w.Intensity[p] {
				t.Fatalf("Frame %d point %d intensity %d != %d", i, p, g.Intensity[p], w.Intensity[p])
			}
		}
	}
}
