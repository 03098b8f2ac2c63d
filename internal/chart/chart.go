// Package chart renders run telemetry as a dual-axis PNG line chart.
package chart

import (
	"bytes"
	"fmt"
	"io"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/Yagna-Patil/Battery-Simulator/internal/generator"
	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
)

const (
	DefaultWidth  = 960
	DefaultHeight = 480

	Title = "Real-Time Voltage and Current vs Time"
)

var (
	voltageColor = drawing.ColorFromHex("2ca02c")
	currentColor = drawing.ColorFromHex("1f77b4")
)

type Options struct {
	Width  int
	Height int
	// Ticks fixes the x-axis extent so the chart does not rescale while a
	// run is still producing samples.
	Ticks int
}

func (o *Options) applyDefaults() {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Ticks <= 0 {
		o.Ticks = generator.DefaultTicks
	}
}

// Build assembles the chart: voltage on the primary y-axis, current on the
// secondary one.
func Build(samples []models.Sample, opts Options) gochart.Chart {
	opts.applyDefaults()

	series := models.SeriesOf(samples)
	volts, amps := series.Voltages, series.Currents
	xs := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = float64(s.Index)
	}

	// go-chart needs at least two points per series to draw a line, and a
	// visible series to render at all. An empty run draws transparent lines.
	voltStroke, ampStroke := voltageColor, currentColor
	switch len(samples) {
	case 0:
		voltStroke, ampStroke = drawing.ColorTransparent, drawing.ColorTransparent
		xs = []float64{0, 0}
		volts = []float64{generator.MinVoltage, generator.MinVoltage}
		amps = []float64{generator.MinCurrent, generator.MinCurrent}
	case 1:
		xs = append(xs, xs[0])
		volts = append(volts, volts[0])
		amps = append(amps, amps[0])
	}

	xMax := float64(opts.Ticks - 1)
	if xMax < 1 {
		xMax = 1
	}

	ch := gochart.Chart{
		Title:      Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: gochart.XAxis{
			Name:  "Time (s)",
			Range: &gochart.ContinuousRange{Min: 0, Max: xMax},
		},
		YAxis: gochart.YAxis{
			Name:      "Voltage (V)",
			NameStyle: gochart.Style{FontColor: voltageColor},
			Style:     gochart.Style{FontColor: voltageColor},
			Range:     &gochart.ContinuousRange{Min: generator.MinVoltage - 0.2, Max: generator.MaxVoltage + 0.2},
		},
		YAxisSecondary: gochart.YAxis{
			Name:      "Current (A)",
			NameStyle: gochart.Style{FontColor: currentColor},
			Style:     gochart.Style{FontColor: currentColor},
			Range:     &gochart.ContinuousRange{Min: 0, Max: generator.MaxCurrent + 0.5},
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    "Voltage (V)",
				XValues: xs,
				YValues: volts,
				Style: gochart.Style{
					StrokeColor: voltStroke,
					StrokeWidth: 2,
				},
			},
			gochart.ContinuousSeries{
				Name:    "Current (A)",
				YAxis:   gochart.YAxisSecondary,
				XValues: xs,
				YValues: amps,
				Style: gochart.Style{
					StrokeColor:     ampStroke,
					StrokeWidth:     2,
					StrokeDashArray: []float64{6, 4},
				},
			},
		},
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	return ch
}

// RenderPNG writes the chart of samples to w.
func RenderPNG(w io.Writer, samples []models.Sample, opts Options) error {
	ch := Build(samples, opts)

	var buf bytes.Buffer
	if err := ch.Render(gochart.PNG, &buf); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
