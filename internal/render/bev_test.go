package render

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/banshee-data/virtualloop/internal/annotation"
	"github.com/banshee-data/virtualloop/internal/geometry"
	"github.com/banshee-data/virtualloop/internal/pointcloud"
)

func TestWorldToImageMapping(t *testing.T) {
	r := NewBEVRenderer(800, 60)

	cases := []struct {
		wx, wy float64
		px, py float64
	}{
		{0, 0, 400, 400},
		{60, 0, 800, 400},
		{-60, 0, 0, 400},
		{0, 60, 400, 0},
		{0, -60, 400, 800},
		{30, 30, 600, 200},
	}
	for _, c := range cases {
		got := r.WorldToImage(c.wx, c.wy)
		if got.X != c.px || got.Y != c.py {
			t.Errorf("WorldToImage(%v, %v) = (%v, %v), want (%v, %v)", c.wx, c.wy, got.X, got.Y, c.px, c.py)
		}
	}
}

func TestNewBEVRendererDefaults(t *testing.T) {
	r := NewBEVRenderer(0, 0)
	if r.Size() != DefaultBEVSize {
		t.Errorf("Size = %d, want %d", r.Size(), DefaultBEVSize)
	}
	if r.Extent() != DefaultBEVExtent {
		t.Errorf("Extent = %f, want %f", r.Extent(), DefaultBEVExtent)
	}
}

func TestRenderDrawsPointsOnBlack(t *testing.T) {
	r := NewBEVRenderer(100, 10)

	f := pointcloud.NewFrame(3)
	f.Append(0, 0, 0, 200)  // centre, brightest
	f.Append(5, 0, 0, 100)  // right of centre
	f.Append(50, 0, 0, 200) // beyond the extent, clipped

	img := r.Render(f, nil)

	centre := img.RGBAAt(50, 50)
	if centre.R != 255 || centre.G != 255 || centre.B != 255 {
		t.Errorf("centre point = %v, want full white", centre)
	}

	right := img.RGBAAt(75, 50)
	if right.R == 0 || right.R >= centre.R {
		t.Errorf("half-intensity point = %v, want dimmer than centre but lit", right)
	}

	empty := img.RGBAAt(10, 10)
	if empty.R != 0 || empty.G != 0 || empty.B != 0 || empty.A != 255 {
		t.Errorf("background pixel = %v, want opaque black", empty)
	}
}

func TestRenderOverlays(t *testing.T) {
	r := NewBEVRenderer(400, 60)

	doc := &annotation.Document{
		Lanes: []annotation.Lane{
			{
				Name:        "Lane 1",
				Number:      1,
				Color:       "#00ff00",
				StrokeWidth: 2,
				Points: []geometry.Point{
					{X: 100, Y: 100}, {X: 300, Y: 100}, {X: 200, Y: 300},
				},
			},
			{
				// Too few points to draw.
				Name:   "Lane 2",
				Number: 2,
				Points: []geometry.Point{{X: 10, Y: 10}},
			},
		},
		Triggers: []annotation.Trigger{
			{
				Name:        "Trigger 1",
				Color:       "#ff0000",
				StrokeWidth: 2,
				Points:      []geometry.Point{{X: 50, Y: 350}, {X: 350, Y: 350}},
			},
		},
	}

	img := r.Render(nil, doc)

	green := color.RGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff}
	red := color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}

	if got := img.RGBAAt(200, 100); got != green {
		t.Errorf("lane edge pixel = %v, want %v", got, green)
	}
	// The implicit last-to-first edge of a three-point lane.
	if got := img.RGBAAt(150, 200); got != green {
		t.Errorf("lane closing edge pixel = %v, want %v", got, green)
	}
	if got := img.RGBAAt(200, 350); got != red {
		t.Errorf("trigger line pixel = %v, want %v", got, red)
	}
	if got := img.RGBAAt(10, 10); got.G != 0 {
		t.Errorf("single-point lane must not draw, got %v", got)
	}
}

func TestRenderOverlaysScaleFromVideoSize(t *testing.T) {
	r := NewBEVRenderer(400, 60)

	// Annotations recorded against an 800x800 canvas rendered at 400x400:
	// everything shrinks by half.
	doc := &annotation.Document{
		Triggers: []annotation.Trigger{
			{Color: "#ff0000", StrokeWidth: 2, Points: []geometry.Point{{X: 200, Y: 400}, {X: 600, Y: 400}}},
		},
		VideoSize: annotation.Size{Width: 800, Height: 800},
	}

	img := r.Render(nil, doc)
	red := color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}
	if got := img.RGBAAt(200, 200); got != red {
		t.Errorf("scaled trigger pixel = %v, want %v", got, red)
	}
	if got := img.RGBAAt(200, 400); got == red {
		t.Error("unscaled position must stay empty")
	}
}

func TestEncodePNGSignature(t *testing.T) {
	r := NewBEVRenderer(64, 10)
	var buf bytes.Buffer
	if err := r.EncodePNG(&buf, nil, nil); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	magic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	if !bytes.HasPrefix(buf.Bytes(), magic) {
		t.Errorf("output does not start with the PNG signature: % x", buf.Bytes()[:8])
	}
}

func TestParseHexColor(t *testing.T) {
	fallback := color.RGBA{R: 1, G: 2, B: 3, A: 0xff}

	got := parseHexColor("#00a1ff", fallback)
	want := color.RGBA{R: 0x00, G: 0xa1, B: 0xff, A: 0xff}
	if got != want {
		t.Errorf("parseHexColor(#00a1ff) = %v, want %v", got, want)
	}

	for _, bad := range []string{"", "green", "#00ff0", "#00ff0g0", "00ff00"} {
		if got := parseHexColor(bad, fallback); got != fallback {
			t.Errorf("parseHexColor(%q) = %v, want fallback", bad, got)
		}
	}
}
