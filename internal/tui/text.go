package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/smileynet/quickdash/internal/chart"
)

const (
	minTextWidth = 20
	maxBarPoints = 30
	sparkLevels  = "▁▂▃▄▅▆▇█"
)

// RenderText draws an artifact tree as terminal text no wider than width.
func RenderText(a *chart.Artifact, width int) string {
	if a == nil {
		return ""
	}
	if width < minTextWidth {
		width = minTextWidth
	}
	switch a.Kind {
	case chart.ArtifactPanel:
		parts := []string{panelTitleStyle.Render(a.Title)}
		for _, c := range a.Children {
			parts = append(parts, RenderText(c, width))
		}
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	case chart.ArtifactGraph:
		return renderFigure(a.Figure, width)
	case chart.ArtifactTable:
		return renderTable(a.Table, width)
	case chart.ArtifactDropdown:
		return renderDropdown(a.Dropdown, width)
	case chart.ArtifactGrid:
		rows := make([]string, 0, len(a.Children))
		for _, r := range a.Children {
			rows = append(rows, RenderText(r, width))
		}
		return lipgloss.JoinVertical(lipgloss.Left, rows...)
	case chart.ArtifactRow:
		return renderRow(a, width)
	default:
		return ""
	}
}

// renderRow places flex rows side by side and stacks anything else.
func renderRow(a *chart.Artifact, width int) string {
	if len(a.Style) == 0 || len(a.Children) < 2 {
		parts := make([]string, 0, len(a.Children))
		for _, c := range a.Children {
			parts = append(parts, RenderText(c, width))
		}
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}
	const gap = 2
	colWidth := (width - gap*(len(a.Children)-1)) / len(a.Children)
	cols := make([]string, 0, 2*len(a.Children))
	for i, c := range a.Children {
		if i > 0 {
			cols = append(cols, strings.Repeat(" ", gap))
		}
		cols = append(cols, lipgloss.NewStyle().Width(colWidth).Render(RenderText(c, colWidth)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func renderTable(t *chart.Table, width int) string {
	if t == nil {
		return ""
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(t.Columns...).
		Rows(t.Rows...).
		Width(width).
		Render()
}

func renderDropdown(d *chart.Dropdown, width int) string {
	if d == nil {
		return ""
	}
	opts := make([]string, 0, len(d.Options))
	for _, o := range d.Options {
		if o == d.Value {
			opts = append(opts, selectedOptionStyle.Render("["+o+"]"))
		} else {
			opts = append(opts, dimStyle.Render(o))
		}
	}
	selector := lipgloss.NewStyle().Width(width).Render(strings.Join(opts, " "))
	if d.Graph == nil {
		return selector
	}
	return lipgloss.JoinVertical(lipgloss.Left, selector, RenderText(d.Graph, width))
}

func renderFigure(f *chart.Figure, width int) string {
	if f == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(figureTitleStyle.Render(f.Title))
	b.WriteByte('\n')
	for _, s := range f.Series {
		fmt.Fprintf(&b, "%s %s\n", s.Name, dimStyle.Render("("+string(s.Kind)+")"))
		if s.Kind == chart.KindBar {
			b.WriteString(bars(s, width))
		} else {
			b.WriteString(sparkline(s, width))
		}
	}
	if f.Note != "" {
		b.WriteString(errorStyle.Render("note: " + f.Note))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// bars draws one horizontal bar per point, scaled to the largest magnitude.
func bars(s chart.Series, width int) string {
	n := len(s.Y)
	if n > maxBarPoints {
		n = maxBarPoints
	}
	labelWidth, valueWidth := 0, 0
	values := make([]string, n)
	for i := 0; i < n; i++ {
		labelWidth = max(labelWidth, lipgloss.Width(s.X[i]))
		values[i] = formatValue(s.Y[i])
		valueWidth = max(valueWidth, len(values[i]))
	}
	barWidth := width - labelWidth - valueWidth - 4
	if barWidth < 1 {
		barWidth = 1
	}
	top := 0.0
	for _, y := range s.Y[:n] {
		top = math.Max(top, math.Abs(y))
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		size := 0
		if top > 0 {
			size = int(math.Round(math.Abs(s.Y[i]) / top * float64(barWidth)))
		}
		fmt.Fprintf(&b, "  %-*s %s %s\n",
			labelWidth, s.X[i],
			barStyle.Render(strings.Repeat("█", size)),
			values[i])
	}
	if len(s.Y) > n {
		fmt.Fprintf(&b, "  %s\n", dimStyle.Render(fmt.Sprintf("… %d more", len(s.Y)-n)))
	}
	return b.String()
}

// sparkline draws the series as one line of block characters, sampling
// down to the available width, followed by its x range and y extent.
func sparkline(s chart.Series, width int) string {
	if len(s.Y) == 0 {
		return "  " + dimStyle.Render("no data") + "\n"
	}
	lo, hi := s.Y[0], s.Y[0]
	for _, y := range s.Y {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}

	cols := width - 2
	if cols > len(s.Y) {
		cols = len(s.Y)
	}
	levels := []rune(sparkLevels)
	line := make([]rune, cols)
	for i := range line {
		y := s.Y[i*len(s.Y)/cols]
		idx := len(levels) - 1
		if hi > lo {
			idx = int((y - lo) / (hi - lo) * float64(len(levels)-1))
		}
		line[i] = levels[idx]
	}
	return fmt.Sprintf("  %s\n  %s\n",
		barStyle.Render(string(line)),
		dimStyle.Render(fmt.Sprintf("%s … %s   min %s  max %s",
			s.X[0], s.X[len(s.X)-1], formatValue(lo), formatValue(hi))))
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
