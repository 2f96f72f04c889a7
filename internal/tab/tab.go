package tab

import (
	"errors"
	"fmt"

	"github.com/smileynet/quickdash/internal/cache"
	"github.com/smileynet/quickdash/internal/chart"
	"github.com/smileynet/quickdash/internal/dataset"
)

// ErrNotCached indicates a dropdown filter ran before its tab was built.
var ErrNotCached = errors.New("tab: dataset not cached")

// Tab is the capability shared by every variant.
type Tab interface {
	ID() string
	Label() string
	Freshness() Freshness
	Render() (*chart.Artifact, error)
}

// constructor builds one tab variant.
type constructor func(f *Factory, def Definition) (Tab, error)

var constructors map[Kind]constructor

func init() {
	constructors = map[Kind]constructor{
		KindChart:    newChart,
		KindTable:    newTable,
		KindDropDown: newDropDown,
		KindMulti:    newMulti,
	}
}

// Factory constructs tab instances that share one data cache, loader and
// artifact builder.
type Factory struct {
	cache   *cache.Cache
	loader  dataset.Loader
	builder *chart.Builder
	defs    map[string]Definition
}

// NewFactory creates a Factory over defs. Multi tabs resolve their children
// by id among defs.
func NewFactory(c *cache.Cache, loader dataset.Loader, b *chart.Builder, defs []Definition) *Factory {
	f := &Factory{
		cache:   c,
		loader:  loader,
		builder: b,
		defs:    make(map[string]Definition, len(defs)),
	}
	for _, d := range defs {
		f.defs[d.ID] = d
	}
	return f
}

// New constructs a tab for def. Data already in the cache is reused.
func (f *Factory) New(def Definition) (Tab, error) {
	c, ok := constructors[def.Kind]
	if !ok {
		return nil, &UnknownKindError{Kind: def.Kind, Available: Kinds()}
	}
	return c(f, def)
}

// Fresh drops the cached data behind def (including a multi tab's
// children) and constructs a new tab, so rendering it reads the source again.
func (f *Factory) Fresh(def Definition) (Tab, error) {
	f.cache.Invalidate(f.DataIDs(def)...)
	return f.New(def)
}

// DataIDs returns the cache identities a tab reads from.
func (f *Factory) DataIDs(def Definition) []string {
	if def.Kind != KindMulti {
		return []string{def.ID}
	}
	var ids []string
	for _, child := range def.Children {
		if cd, ok := f.defs[child]; ok {
			ids = append(ids, f.DataIDs(cd)...)
		}
	}
	return ids
}

// base carries the fields and data access shared by the data-backed variants.
type base struct {
	def Definition
	f   *Factory
}

func (b base) ID() string           { return b.def.ID }
func (b base) Label() string        { return b.def.Label }
func (b base) Freshness() Freshness { return b.def.EffectiveFreshness() }

// data returns the tab's dataset, loading it on the first access.
func (b base) data() (*dataset.Dataset, error) {
	return b.f.cache.GetOrLoad(b.def.ID, func() (*dataset.Dataset, error) {
		return b.f.loader.Load(b.def.Source)
	})
}

// Chart plots one or more column pairs from its dataset.
type Chart struct {
	base
}

func newChart(f *Factory, def Definition) (Tab, error) {
	return &Chart{base{def: def, f: f}}, nil
}

// Render loads the dataset and composes every configured series into one graph.
func (c *Chart) Render() (*chart.Artifact, error) {
	ds, err := c.data()
	if err != nil {
		return nil, err
	}
	graph, err := c.f.builder.Chart(ds, chart.Spec{
		ID:     c.def.ID + "-graph",
		Title:  c.def.Label,
		Series: c.def.Series,
	})
	if err != nil {
		return nil, err
	}
	return chart.Panel(c.def.ID, c.def.Label, graph), nil
}

// Table shows a column subset of its dataset.
type Table struct {
	base
}

func newTable(f *Factory, def Definition) (Tab, error) {
	return &Table{base{def: def, f: f}}, nil
}

// Render loads the dataset and projects it to the configured columns.
func (t *Table) Render() (*chart.Artifact, error) {
	ds, err := t.data()
	if err != nil {
		return nil, err
	}
	tbl, err := t.f.builder.Table(t.def.ID+"-table", ds, t.def.Columns)
	if err != nil {
		return nil, err
	}
	return chart.Panel(t.def.ID, t.def.Label, tbl), nil
}

// Multi lays out other tabs two per row. It has no data of its own and is
// always static.
type Multi struct {
	def      Definition
	children []Tab
}

func newMulti(f *Factory, def Definition) (Tab, error) {
	m := &Multi{def: def}
	for _, id := range def.Children {
		cd, ok := f.defs[id]
		if !ok {
			return nil, fmt.Errorf("%w: multi tab %q references unknown tab %q", ErrConfig, def.ID, id)
		}
		child, err := f.New(cd)
		if err != nil {
			return nil, err
		}
		m.children = append(m.children, child)
	}
	return m, nil
}

func (m *Multi) ID() string           { return m.def.ID }
func (m *Multi) Label() string        { return m.def.Label }
func (m *Multi) Freshness() Freshness { return Static }

// Render renders every child and arranges the results in a grid.
func (m *Multi) Render() (*chart.Artifact, error) {
	arts := make([]*chart.Artifact, 0, len(m.children))
	for _, c := range m.children {
		a, err := c.Render()
		if err != nil {
			return nil, fmt.Errorf("multi tab %q: %w", m.def.ID, err)
		}
		arts = append(arts, a)
	}
	return chart.Grid(m.def.ID, arts), nil
}
