package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/banshee-data/virtualloop/internal/pointcloud"
)

func TestScatterPageRendersHTML(t *testing.T) {
	gen := pointcloud.NewSyntheticGenerator(5)
	gen.PointCount = 120
	gen.ClusterCount = 0
	f := gen.NextFrame()

	var buf bytes.Buffer
	if err := ScatterPage(&buf, f, 0); err != nil {
		t.Fatalf("ScatterPage: %v", err)
	}

	page := buf.String()
	if !strings.Contains(page, "echarts") {
		t.Error("page does not reference echarts")
	}
	if !strings.Contains(page, "Latest Frame") {
		t.Error("page is missing the chart title")
	}
}

func TestScatterPageDownsamples(t *testing.T) {
	f := pointcloud.NewFrame(100)
	for i := 0; i < 100; i++ {
		f.Append(float32(i), 0, 0, 1)
	}

	var buf bytes.Buffer
	if err := ScatterPage(&buf, f, 10); err != nil {
		t.Fatalf("ScatterPage: %v", err)
	}
	if !strings.Contains(buf.String(), "stride=10") {
		t.Error("subtitle does not report the downsampling stride")
	}
}

func TestRatePlotPNG(t *testing.T) {
	counts := make([]float64, 50)
	for i := range counts {
		counts[i] = float64(1000 + i*10)
	}

	var buf bytes.Buffer
	if err := RatePlotPNG(&buf, counts); err != nil {
		t.Fatalf("RatePlotPNG: %v", err)
	}
	magic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	if !bytes.HasPrefix(buf.Bytes(), magic) {
		t.Error("output does not start with the PNG signature")
	}
}

func TestRatePlotPNGEmptySeries(t *testing.T) {
	var buf bytes.Buffer
	if err := RatePlotPNG(&buf, nil); err != nil {
		t.Fatalf("RatePlotPNG with no data: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("empty series still draws an empty plot")
	}
}
