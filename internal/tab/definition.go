// Package tab defines the dashboard's unit of content. A tab owns a data
// source reference and a freshness class, and renders an artifact from its
// data. Tabs are cheap to construct; a fresh instance is built for every
// render that needs one.
package tab

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/smileynet/quickdash/internal/chart"
)

// ErrConfig indicates a tab definition that cannot be served.
var ErrConfig = errors.New("invalid tab configuration")

// Freshness controls whether a tab takes part in periodic refresh.
type Freshness string

const (
	Static  Freshness = "static"  // rendered once, replayed afterwards
	Dynamic Freshness = "dynamic" // re-rendered when the refresh cycle advances
)

// Kind selects the tab variant.
type Kind string

const (
	KindChart    Kind = "chart"
	KindTable    Kind = "table"
	KindDropDown Kind = "dropdown"
	KindMulti    Kind = "multi"
)

// Definition is the declarative description of a tab. Only the fields for
// its Kind are consulted.
type Definition struct {
	ID        string
	Label     string
	Kind      Kind
	Freshness Freshness
	Source    string
	Hidden    bool // addressable by multi tabs but not shown in the tab strip

	// chart
	Series []chart.SeriesSpec

	// table
	Columns []string

	// dropdown
	OptionsColumn string
	StartValue    string
	X             string
	Y             string
	ChartKind     chart.Kind
	DropdownID    string
	GraphID       string

	// multi
	Children []string
}

// EffectiveFreshness returns the freshness used for refresh decisions.
// Multi tabs are always static; an unset value means static.
func (d Definition) EffectiveFreshness() Freshness {
	if d.Kind == KindMulti || d.Freshness == "" {
		return Static
	}
	return d.Freshness
}

// IsDynamic reports whether the tab is subject to periodic refresh.
func (d Definition) IsDynamic() bool {
	return d.EffectiveFreshness() == Dynamic
}

// Validate checks the fields required by the definition's kind. References
// between tabs (multi children) are checked by the dashboard.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: tab %q has no id", ErrConfig, d.Label)
	}
	if d.Label == "" {
		return fmt.Errorf("%w: tab %q has no label", ErrConfig, d.ID)
	}
	switch d.Freshness {
	case "", Static, Dynamic:
	default:
		return fmt.Errorf("%w: tab %q: freshness must be %q or %q, got %q", ErrConfig, d.ID, Static, Dynamic, d.Freshness)
	}
	if _, ok := constructors[d.Kind]; !ok {
		return fmt.Errorf("%w: tab %q: %w", ErrConfig, d.ID, &UnknownKindError{Kind: d.Kind, Available: Kinds()})
	}

	switch d.Kind {
	case KindChart:
		if d.Source == "" {
			return d.missing("csv_path")
		}
		if len(d.Series) == 0 {
			return d.missing("graph_columns")
		}
		for i, s := range d.Series {
			if s.X == "" || s.Y == "" {
				return fmt.Errorf("%w: tab %q: graph_columns[%d] needs both x and y", ErrConfig, d.ID, i)
			}
			if _, err := chart.ParseKind(string(s.Kind)); err != nil {
				return fmt.Errorf("%w: tab %q: %v", ErrConfig, d.ID, err)
			}
		}
	case KindTable:
		if d.Source == "" {
			return d.missing("csv_path")
		}
	case KindDropDown:
		if d.Source == "" {
			return d.missing("csv_path")
		}
		if d.OptionsColumn == "" {
			return d.missing("options_column")
		}
		if d.X == "" || d.Y == "" {
			return d.missing("x and y")
		}
		if _, err := chart.ParseKind(string(d.ChartKind)); err != nil {
			return fmt.Errorf("%w: tab %q: %v", ErrConfig, d.ID, err)
		}
	case KindMulti:
		if len(d.Children) == 0 {
			return d.missing("children")
		}
		if d.Freshness == Dynamic {
			return fmt.Errorf("%w: tab %q: multi tabs are always static", ErrConfig, d.ID)
		}
	}
	return nil
}

func (d Definition) missing(field string) error {
	return fmt.Errorf("%w: %s tab %q requires %s", ErrConfig, d.Kind, d.ID, field)
}

// dropdownID returns the element id of the dropdown selector.
func (d Definition) dropdownID() string {
	if d.DropdownID != "" {
		return d.DropdownID
	}
	return d.ID + "-dropdown"
}

// graphID returns the element id of the dropdown's graph.
func (d Definition) graphID() string {
	if d.GraphID != "" {
		return d.GraphID
	}
	return d.ID + "-graph"
}

// Kinds returns the supported tab kinds in sorted order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(constructors))
	for k := range constructors {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// UnknownKindError indicates a tab kind with no constructor.
type UnknownKindError struct {
	Kind      Kind
	Available []Kind
}

func (e *UnknownKindError) Error() string {
	names := make([]string, len(e.Available))
	for i, k := range e.Available {
		names[i] = string(k)
	}
	return fmt.Sprintf("unknown tab type %q (available: %s)", e.Kind, strings.Join(names, ", "))
}
