package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Default PNG size, the 10×5 proportions of the web view's chart.
const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

// ErrNoData is returned when a chart has no points to draw.
var ErrNoData = errors.New("chart has no data")

// WritePNG draws a line chart with point markers and writes it as PNG.
// Zero width or height selects the defaults.
func WritePNG(w io.Writer, chart *ChartConfig, width, height vg.Length) error {
	if chart == nil || !hasPoints(chart) {
		return ErrNoData
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	p := plot.New()
	p.Title.Text = chart.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Title.Padding = vg.Points(10)
	p.X.Label.Text = chart.XAxis
	p.Y.Label.Text = chart.YAxis
	p.X.Tick.Marker = yearTicks{}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	if chart.ShowGrid {
		p.Add(plotter.NewGrid())
	}

	for i, s := range chart.Series {
		if len(s.Data) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(s.Data))
		for j, pt := range s.Data {
			pts[j].X = pt.X
			pts[j].Y = pt.Value
		}

		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return fmt.Errorf("series %q: %w", s.Name, err)
		}
		c := parseHex(seriesColor(chart, i))
		line.Color = c
		line.Width = vg.Points(2.5)
		points.Shape = draw.CircleGlyph{}
		points.Color = c
		points.Radius = vg.Points(4)

		p.Add(line, points)
		if chart.ShowLegend {
			p.Legend.Add(s.Name, line, points)
		}
	}
	p.Legend.Top = true

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func hasPoints(chart *ChartConfig) bool {
	for _, s := range chart.Series {
		if len(s.Data) > 0 {
			return true
		}
	}
	return false
}

func seriesColor(chart *ChartConfig, i int) string {
	if c := chart.Series[i].Color; c != "" {
		return c
	}
	if i < len(chart.Colors) {
		return chart.Colors[i]
	}
	return defaultColors[i%len(defaultColors)]
}

// parseHex reads "#RRGGBB"; anything else is black.
func parseHex(s string) color.Color {
	if len(s) != 7 || s[0] != '#' {
		return color.Black
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// yearTicks labels every whole year, thinning labels on long ranges.
type yearTicks struct{}

func (yearTicks) Ticks(min, max float64) []plot.Tick {
	lo, hi := int(math.Ceil(min)), int(math.Floor(max))
	if hi < lo {
		return nil
	}
	step := 1
	for (hi-lo)/step > 15 {
		step++
	}
	var ticks []plot.Tick
	for y := lo; y <= hi; y++ {
		t := plot.Tick{Value: float64(y)}
		if (y-lo)%step == 0 {
			t.Label = strconv.Itoa(y)
		}
		ticks = append(ticks, t)
	}
	return ticks
}
