package render

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/virtualloop/internal/pointcloud"
)

// viridis ramp used for intensity colouring in the debug charts.
var scatterRamp = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// ScatterPage renders the frame's X/Y positions as a self-contained ECharts
// HTML page, coloured by intensity. Frames larger than maxPoints are
// downsampled by stride to keep the payload workable in a browser;
// maxPoints <= 0 selects 8000.
func ScatterPage(w io.Writer, f *pointcloud.Frame, maxPoints int) error {
	if maxPoints <= 0 {
		maxPoints = 8000
	}

	stride := 1
	if f.Len() > maxPoints {
		stride = int(math.Ceil(float64(f.Len()) / float64(maxPoints)))
	}

	data := make([]opts.ScatterData, 0, f.Len()/stride+1)
	maxAbs := 0.0
	maxIntensity := float64(0)
	for i := 0; i < f.Len(); i += stride {
		x := float64(f.X[i])
		y := float64(f.Y[i])
		if math.Abs(x) > maxAbs {
			maxAbs = math.Abs(x)
		}
		if math.Abs(y) > maxAbs {
			maxAbs = math.Abs(y)
		}
		intensity := float64(f.Intensity[i])
		if intensity > maxIntensity {
			maxIntensity = intensity
		}
		data = append(data, opts.ScatterData{Value: []interface{}{x, y, intensity}})
	}

	// Pad so edge points stay visible, and force symmetric square axes.
	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}
	if maxIntensity == 0 {
		maxIntensity = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Point Cloud Frame", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Latest Frame (Top-Down)", Subtitle: fmt.Sprintf("seq=%d points=%d stride=%d", f.Seq, len(data), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxIntensity),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: scatterRamp},
		}),
	)
	scatter.AddSeries("points", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	return scatter.Render(w)
}
