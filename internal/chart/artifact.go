// Package chart builds renderable artifacts from datasets: charts, data
// tables and the layout containers that arrange them. Artifacts are plain
// data so they can travel inside a client-held store and be rendered again
// as HTML or text without touching the original dataset.
package chart

import (
	"errors"
	"fmt"
)

// ErrKind indicates an unsupported chart kind.
var ErrKind = errors.New("chart: unsupported chart kind")

// Kind is the presentation of a single series.
type Kind string

const (
	KindBar         Kind = "bar"
	KindLine        Kind = "line"
	KindScatter     Kind = "scatter"
	KindScatterLine Kind = "scatter+line"
)

// Kinds lists the supported chart kinds in display order.
func Kinds() []Kind {
	return []Kind{KindBar, KindLine, KindScatter, KindScatterLine}
}

// ParseKind validates a chart kind name. The empty string selects a line chart.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindLine, nil
	}
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrKind, s)
}

// ArtifactKind tags the variant held by an Artifact.
type ArtifactKind string

const (
	ArtifactGraph    ArtifactKind = "graph"
	ArtifactTable    ArtifactKind = "table"
	ArtifactDropdown ArtifactKind = "dropdown"
	ArtifactPanel    ArtifactKind = "panel" // titled container for one tab
	ArtifactRow      ArtifactKind = "row"
	ArtifactGrid     ArtifactKind = "grid"
)

// FlexStyle is applied to layout rows holding more than one child.
var FlexStyle = map[string]string{
	"display":        "flex",
	"flex-direction": "row",
	"width":          "100%",
}

// Artifact is a rendered tab or a fragment of one.
type Artifact struct {
	Kind     ArtifactKind      `json:"kind"`
	ID       string            `json:"id,omitempty"`
	Title    string            `json:"title,omitempty"`
	Style    map[string]string `json:"style,omitempty"`
	Figure   *Figure           `json:"figure,omitempty"`
	Table    *Table            `json:"table,omitempty"`
	Dropdown *Dropdown         `json:"dropdown,omitempty"`
	Children []*Artifact       `json:"children,omitempty"`
}

// Figure is a chart with one or more series sharing axes.
type Figure struct {
	Title     string   `json:"title"`
	XTitle    string   `json:"x_title"`
	YTitle    string   `json:"y_title"`
	TopMargin int      `json:"top_margin"`
	Series    []Series `json:"series"`
	SVG       string   `json:"svg,omitempty"`
	Note      string   `json:"note,omitempty"` // set when the SVG could not be drawn
}

// Series is one x/y trace.
type Series struct {
	Name string    `json:"name"`
	Kind Kind      `json:"kind"`
	X    []string  `json:"x"`
	Y    []float64 `json:"y"`
}

// Table is a projected dataset ready for display.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Dropdown is a selector plus the graph for its current value.
type Dropdown struct {
	ID      string    `json:"id"`
	GraphID string    `json:"graph_id"`
	Options []string  `json:"options"`
	Value   string    `json:"value"`
	Graph   *Artifact `json:"graph,omitempty"`
}

// Panel wraps content under a heading, the way every tab is presented.
func Panel(id, title string, content ...*Artifact) *Artifact {
	return &Artifact{
		Kind:     ArtifactPanel,
		ID:       id,
		Title:    title,
		Style:    map[string]string{"width": "100%"},
		Children: content,
	}
}

// Grid arranges children two per row. Rows holding two children get
// FlexStyle; a trailing single child is left unstyled.
func Grid(id string, children []*Artifact) *Artifact {
	grid := &Artifact{Kind: ArtifactGrid, ID: id}
	for i := 0; i < len(children); i += 2 {
		end := i + 2
		if end > len(children) {
			end = len(children)
		}
		row := &Artifact{Kind: ArtifactRow, Children: children[i:end]}
		if len(row.Children) > 1 {
			row.Style = copyStyle(FlexStyle)
		}
		grid.Children = append(grid.Children, row)
	}
	return grid
}

func copyStyle(s map[string]string) map[string]string {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
