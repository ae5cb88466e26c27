// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

// Package preview renders PNG charts for model summaries.
package preview

import (
	"errors"
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/toeirei/fieldviewer/internal/mesh"
	"github.com/toeirei/fieldviewer/internal/model"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("preview: nothing to plot")

const (
	barWidth   = 50
	barSpacing = 60
	height     = 400
)

// CountsChart writes a bar chart of the element counts in s.
func CountsChart(w io.Writer, s model.IFCSummary) error {
	if len(s.Counts) == 0 {
		return ErrNoData
	}
	maxCount := 1
	bars := make([]chart.Value, 0, len(s.Counts))
	for _, c := range s.Counts {
		bars = append(bars, chart.Value{Label: fmt.Sprintf("%s (%d)", c.Type, c.Count), Value: float64(c.Count)})
		maxCount = max(maxCount, c.Count)
	}
	title := s.ProjectName
	if title == "" {
		title = s.Schema
	}
	bc := chart.BarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      len(bars)*(barWidth+barSpacing) + 200,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount)},
		},
		Bars: bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render counts chart: %w", err)
	}
	return nil
}

// pointStyle draws markers only.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		StrokeColor: drawing.ColorTransparent,
		DotWidth:    2,
		DotColor:    col,
	}
}

// ProjectionChart writes a scatter plot of the mesh vertices projected on
// plane p.
func ProjectionChart(w io.Writer, m *mesh.Mesh, p mesh.Plane) error {
	if m == nil || len(m.Vertices) == 0 {
		return ErrNoData
	}
	xs, ys := m.Project(p)
	axisX, axisY := string(p[0]), string(p[1])

	ch := chart.Chart{
		Title:      fmt.Sprintf("%s (%s)", displayName(m), p),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      640,
		Height:     640,
		XAxis:      chart.XAxis{Name: axisX, Range: paddedRange(xs)},
		YAxis:      chart.YAxis{Name: axisY, Range: paddedRange(ys)},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: "vertices", XValues: xs, YValues: ys, Style: pointStyle(chart.ColorBlue)},
		},
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render projection: %w", err)
	}
	return nil
}

func displayName(m *mesh.Mesh) string {
	if m.Name != "" {
		return m.Name
	}
	return "mesh"
}

// paddedRange spans the values with a margin; a degenerate axis gets a unit
// range so the chart never has a zero domain.
func paddedRange(vals []float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 0.5
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
