// Package plot renders the bill length vs bill depth scatter as PNG.
package plot

import (
	"bytes"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"penguindash/pkg/domain"
)

// Default scatter dimensions used by the dashboard card.
const (
	DefaultWidth  = 640
	DefaultHeight = 420
)

var speciesColors = map[domain.Species]drawing.Color{
	domain.SpeciesAdelie:    drawing.Color{R: 31, G: 119, B: 180, A: 255},
	domain.SpeciesGentoo:    drawing.Color{R: 44, G: 160, B: 44, A: 255},
	domain.SpeciesChinstrap: drawing.Color{R: 214, G: 39, B: 40, A: 255},
}

// pointStyle returns a style that renders points only (no connecting line).
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		DotWidth:    4,
		DotColor:    col,
	}
}

// RenderScatter draws one point per row of view, x bill length, y bill
// depth, one series per species. An empty view renders axes with no points.
func RenderScatter(view domain.Table, width, height int) ([]byte, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	xs := make(map[domain.Species][]float64)
	ys := make(map[domain.Species][]float64)
	view.Each(func(p domain.Penguin) {
		xs[p.Species] = append(xs[p.Species], p.BillLengthMM)
		ys[p.Species] = append(ys[p.Species], p.BillDepthMM)
	})

	var series []chart.Series
	for _, sp := range domain.AllSpecies() {
		if len(xs[sp]) == 0 {
			continue
		}
		series = append(series, chart.ContinuousSeries{
			Name:    string(sp),
			XValues: xs[sp],
			YValues: ys[sp],
			Style:   pointStyle(speciesColors[sp]),
		})
	}

	ch := chart.Chart{
		Title:      "Bill Length vs Bill Depth by Species",
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 28}},
		XAxis:      chart.XAxis{Name: "Bill Length (mm)"},
		YAxis:      chart.YAxis{Name: "Bill Depth (mm)"},
		Series:     series,
	}
	if total := view.Len(); total == 1 {
		// A single point has a degenerate axis range go-chart cannot scale;
		// widen the window around it.
		p := view.Row(0)
		ch.XAxis.Range = &chart.ContinuousRange{Min: p.BillLengthMM - 2, Max: p.BillLengthMM + 2}
		ch.YAxis.Range = &chart.ContinuousRange{Min: p.BillDepthMM - 2, Max: p.BillDepthMM + 2}
	}
	if len(series) == 0 {
		// go-chart refuses to render a chart without series; pin the axes to
		// the full measurement range and draw an invisible placeholder.
		ch.XAxis.Range = &chart.ContinuousRange{Min: 30, Max: 60}
		ch.YAxis.Range = &chart.ContinuousRange{Min: 13, Max: 22}
		transparent := drawing.Color{R: 255, G: 255, B: 255, A: 0}
		ch.Series = []chart.Series{chart.ContinuousSeries{
			XValues: []float64{30, 60},
			YValues: []float64{13, 22},
			Style:   chart.Style{StrokeWidth: 1, StrokeColor: transparent, DotWidth: 1, DotColor: transparent},
		}}
	} else {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render scatter: %w", err)
	}
	return buf.Bytes(), nil
}
