package chart

import (
	"fmt"

	"github.com/smileynet/quickdash/internal/dataset"
)

// DefaultTopMargin is the space reserved above a chart's plot area.
const DefaultTopMargin = 80

const (
	defaultWidth  = 720
	defaultHeight = 400
)

// SeriesSpec maps two dataset columns onto a series of the given kind.
type SeriesSpec struct {
	X    string
	Y    string
	Kind Kind
}

// Spec describes a chart to build from a dataset.
type Spec struct {
	ID        string
	Title     string
	Series    []SeriesSpec
	TopMargin int
}

// Builder turns datasets into artifacts.
type Builder struct {
	width  int
	height int
	svg    bool
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSize sets the pixel size of rendered charts.
func WithSize(width, height int) BuilderOption {
	return func(b *Builder) {
		b.width = width
		b.height = height
	}
}

// WithoutSVG skips drawing; figures carry series data only.
func WithoutSVG() BuilderOption {
	return func(b *Builder) { b.svg = false }
}

// NewBuilder creates a Builder that draws SVG charts at the default size.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{width: defaultWidth, height: defaultHeight, svg: true}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Chart builds a graph artifact with one series per spec entry. Axis titles
// come from the first series.
func (b *Builder) Chart(ds *dataset.Dataset, spec Spec) (*Artifact, error) {
	if len(spec.Series) == 0 {
		return nil, fmt.Errorf("chart %s: no series configured", spec.ID)
	}
	fig := &Figure{
		Title:     spec.Title,
		XTitle:    spec.Series[0].X,
		YTitle:    spec.Series[0].Y,
		TopMargin: spec.TopMargin,
	}
	if fig.Title == "" {
		fig.Title = spec.ID
	}
	if fig.TopMargin == 0 {
		fig.TopMargin = DefaultTopMargin
	}

	for _, s := range spec.Series {
		xs, err := ds.Column(s.X)
		if err != nil {
			return nil, fmt.Errorf("chart %s: %w", spec.ID, err)
		}
		ys, err := ds.Floats(s.Y)
		if err != nil {
			return nil, fmt.Errorf("chart %s: %w", spec.ID, err)
		}
		kind := s.Kind
		if kind == "" {
			kind = KindLine
		}
		fig.Series = append(fig.Series, Series{Name: s.Y, Kind: kind, X: xs, Y: ys})
	}

	if b.svg {
		svg, err := renderSVG(fig, b.width, b.height)
		if err != nil {
			fig.Note = err.Error()
		}
		fig.SVG = svg
	}
	return &Artifact{Kind: ArtifactGraph, ID: spec.ID, Figure: fig}, nil
}

// Table builds a table artifact restricted to cols. An empty cols list
// keeps every column.
func (b *Builder) Table(id string, ds *dataset.Dataset, cols []string) (*Artifact, error) {
	projected, err := ds.Project(cols)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", id, err)
	}
	rows := make([][]string, len(projected.Rows))
	for i, r := range projected.Rows {
		rows[i] = append([]string(nil), r...)
	}
	return &Artifact{
		Kind:  ArtifactTable,
		ID:    id,
		Table: &Table{Columns: append([]string(nil), projected.Columns...), Rows: rows},
	}, nil
}
