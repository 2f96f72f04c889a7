package chart

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"}

// renderSVG draws the continuous series of fig on one shared chart and
// each bar series as its own bar chart. Partial output is returned with the
// first drawing error.
func renderSVG(fig *Figure, width, height int) (string, error) {
	var lines, bars []Series
	for _, s := range fig.Series {
		if s.Kind == KindBar {
			bars = append(bars, s)
		} else {
			lines = append(lines, s)
		}
	}

	var parts []string
	var errs []error
	if len(lines) > 0 {
		svg, err := renderContinuous(fig, lines, width, height)
		if err != nil {
			errs = append(errs, err)
		} else {
			parts = append(parts, svg)
		}
	}
	for _, s := range bars {
		svg, err := renderBars(fig, s, width, height)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		parts = append(parts, svg)
	}
	return strings.Join(parts, "\n"), errors.Join(errs...)
}

func renderContinuous(fig *Figure, series []Series, width, height int) (string, error) {
	ch := gochart.Chart{
		Title:      fig.Title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: fig.TopMargin, Left: 60, Right: 10, Bottom: 60}},
		YAxis:      gochart.YAxis{Name: fig.YTitle},
		XAxis:      gochart.XAxis{Name: fig.XTitle},
	}

	labels := series[0].X
	if _, ok := parseTimes(labels); ok {
		ch.XAxis.ValueFormatter = gochart.TimeValueFormatter
		for i, s := range series {
			xs, _ := parseTimes(s.X)
			ch.Series = append(ch.Series, gochart.TimeSeries{
				Name:    s.Name,
				Style:   seriesStyle(s.Kind, i),
				XValues: xs,
				YValues: s.Y,
			})
		}
	} else if _, ok := parseFloats(labels); ok {
		for i, s := range series {
			xs, _ := parseFloats(s.X)
			ch.Series = append(ch.Series, gochart.ContinuousSeries{
				Name:    s.Name,
				Style:   seriesStyle(s.Kind, i),
				XValues: xs,
				YValues: s.Y,
			})
		}
	} else {
		// Categorical x: plot against row position and label the ticks.
		for i, l := range labels {
			ch.XAxis.Ticks = append(ch.XAxis.Ticks, gochart.Tick{Value: float64(i), Label: l})
		}
		for i, s := range series {
			ch.Series = append(ch.Series, gochart.ContinuousSeries{
				Name:    s.Name,
				Style:   seriesStyle(s.Kind, i),
				XValues: positions(len(s.Y)),
				YValues: s.Y,
			})
		}
	}
	if r, ok := flatRange(series); ok {
		ch.YAxis.Range = r
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(gochart.SVG, &buf); err != nil {
		return "", fmt.Errorf("chart: drawing %q: %w", fig.Title, err)
	}
	return buf.String(), nil
}

// flatRange returns a padded y range when every value is the same. Left to
// itself go-chart emits a tick per float step of a zero-width range.
func flatRange(series []Series) (*gochart.ContinuousRange, bool) {
	first := true
	var lo, hi float64
	for _, s := range series {
		for _, y := range s.Y {
			if first {
				lo, hi, first = y, y, false
				continue
			}
			lo, hi = min(lo, y), max(hi, y)
		}
	}
	if first || lo != hi {
		return nil, false
	}
	pad := math.Abs(lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}, true
}

func renderBars(fig *Figure, s Series, width, height int) (string, error) {
	if len(s.Y) == 0 {
		return "", fmt.Errorf("chart: drawing %q: series %q has no rows", fig.Title, s.Name)
	}
	bc := gochart.BarChart{
		Title:      fig.Title + " · " + s.Name,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth(width, len(s.Y)),
		Background: gochart.Style{Padding: gochart.Box{Top: fig.TopMargin}},
		YAxis:      gochart.YAxis{Name: s.Name},
	}
	for i, y := range s.Y {
		bc.Bars = append(bc.Bars, gochart.Value{Label: s.X[i], Value: y})
	}

	var buf bytes.Buffer
	if err := bc.Render(gochart.SVG, &buf); err != nil {
		return "", fmt.Errorf("chart: drawing %q: %w", bc.Title, err)
	}
	return buf.String(), nil
}

func seriesStyle(kind Kind, i int) gochart.Style {
	color := gochart.GetDefaultColor(i)
	switch kind {
	case KindScatter:
		return gochart.Style{StrokeWidth: gochart.Disabled, DotWidth: 4, DotColor: color}
	case KindScatterLine:
		return gochart.Style{StrokeColor: color, StrokeWidth: 2, DotWidth: 3, DotColor: color}
	default:
		return gochart.Style{StrokeColor: color, StrokeWidth: 2}
	}
}

// barWidth fits n bars with equal spacing into the plot width.
func barWidth(width, n int) int {
	w := (width - 100) / (n * 2)
	if w < 4 {
		return 4
	}
	if w > 60 {
		return 60
	}
	return w
}

func positions(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func parseFloats(vals []string) ([]float64, bool) {
	out := make([]float64, len(vals))
	for i, v := range vals {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func parseTimes(vals []string) ([]time.Time, bool) {
	if len(vals) == 0 {
		return nil, false
	}
	out := make([]time.Time, len(vals))
	for i, v := range vals {
		t, ok := parseTime(strings.TrimSpace(v))
		if !ok {
			return nil, false
		}
		out[i] = t
	}
	return out, true
}

func parseTime(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
