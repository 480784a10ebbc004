package ui

import (
	"strconv"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/linechart"
	"github.com/charmbracelet/lipgloss"

	"github.com/dhkim0920/coinfolio/internal/api"
)

// chartRanges are the selectable display windows: the tail fraction of the
// fetched series that gets drawn. The backend always returns the full day.
var chartRanges = []struct {
	name     string
	fraction float64
}{
	{"24h", 1.0},
	{"12h", 0.5},
	{"6h", 0.25},
}

func nextChartRange(current string) string {
	for i, r := range chartRanges {
		if r.name == current {
			return chartRanges[(i+1)%len(chartRanges)].name
		}
	}
	return chartRanges[0].name
}

func chartWindow(points []api.HistoryPoint, rangeName string) []api.HistoryPoint {
	fraction := 1.0
	for _, r := range chartRanges {
		if r.name == rangeName {
			fraction = r.fraction
			break
		}
	}
	keep := int(float64(len(points)) * fraction)
	if keep < 2 {
		keep = 2
	}
	if keep >= len(points) {
		return points
	}
	return points[len(points)-keep:]
}

// renderHistoryChart draws the portfolio's combined value series as a
// braille line chart. Returns "" when there is nothing to draw.
func (m Model) renderHistoryChart() string {
	points := chartWindow(m.snapshot.History, m.chartRange)
	if len(points) < 2 {
		return ""
	}

	// Collapse the per-coin columns into one combined series.
	values := make([]float64, len(points))
	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Time
		sum := 0.0
		for _, v := range p.Values {
			f, _ := v.Float64()
			sum += f
		}
		values[i] = sum
	}

	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	margin := (maxV - minV) * 0.05
	if margin == 0 {
		// Flat series; give the axis some room so the line is visible.
		margin = maxV * 0.01
		if margin == 0 {
			margin = 1
		}
	}

	chartWidth := m.width - 4
	if chartWidth > 100 {
		chartWidth = 100
	}
	if chartWidth < 30 {
		chartWidth = 30
	}
	chartHeight := m.contentHeight() / 2
	if chartHeight > 14 {
		chartHeight = 14
	}
	if chartHeight < 6 {
		chartHeight = 6
	}

	lineStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent))

	xLabel := func(idx int, v float64) string {
		i := int(v)
		if i < 0 || i >= len(labels) {
			return ""
		}
		return labels[i]
	}
	yLabel := func(idx int, v float64) string {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}

	lc := linechart.New(chartWidth, chartHeight,
		0, float64(len(values)-1),
		minV-margin, maxV+margin,
		linechart.WithXYSteps(6, 4),
		linechart.WithXLabelFormatter(xLabel),
		linechart.WithYLabelFormatter(yLabel),
		linechart.WithStyles(lipgloss.Style{}, lipgloss.Style{}, lineStyle),
	)

	for i := 0; i < len(values)-1; i++ {
		p1 := canvas.Float64Point{X: float64(i), Y: values[i]}
		p2 := canvas.Float64Point{X: float64(i + 1), Y: values[i+1]}
		lc.DrawBrailleLineWithStyle(p1, p2, lineStyle)
	}
	lc.DrawXYAxisAndLabel()

	return lc.View()
}
