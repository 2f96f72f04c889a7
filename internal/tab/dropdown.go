package tab

import (
	"fmt"

	"github.com/smileynet/quickdash/internal/cache"
	"github.com/smileynet/quickdash/internal/chart"
)

// DropDown charts the subset of its dataset selected by a dropdown over one
// column. Its dataset is cached when the tab is constructed so that later
// filter requests, which never see this instance, read the same snapshot the
// page was built from.
type DropDown struct {
	base
}

func newDropDown(f *Factory, def Definition) (Tab, error) {
	d := &DropDown{base{def: def, f: f}}
	if _, err := d.data(); err != nil {
		return nil, err
	}
	return d, nil
}

// Options returns the distinct values of the options column in first-seen order.
func (d *DropDown) Options() ([]string, error) {
	ds, err := d.data()
	if err != nil {
		return nil, err
	}
	return ds.Distinct(d.def.OptionsColumn)
}

// Render builds the selector and the graph for the start value. Without a
// configured start value the first option is selected.
func (d *DropDown) Render() (*chart.Artifact, error) {
	opts, err := d.Options()
	if err != nil {
		return nil, fmt.Errorf("dropdown tab %q: %w", d.def.ID, err)
	}
	value := d.def.StartValue
	if value == "" && len(opts) > 0 {
		value = opts[0]
	}
	graph, err := d.FilteredRender(value)
	if err != nil {
		return nil, err
	}
	sel := &chart.Artifact{
		Kind: chart.ArtifactDropdown,
		ID:   d.def.ID,
		Dropdown: &chart.Dropdown{
			ID:      d.def.dropdownID(),
			GraphID: d.def.graphID(),
			Options: opts,
			Value:   value,
			Graph:   graph,
		},
	}
	return chart.Panel(d.def.ID, d.def.Label, sel), nil
}

// FilteredRender charts the rows whose options column equals option.
func (d *DropDown) FilteredRender(option string) (*chart.Artifact, error) {
	return FilteredRender(d.f.cache, d.f.builder, d.def, option)
}

// FilteredRender charts the cached dataset of the dropdown tab def, keeping
// only rows whose options column equals option. It reads the cache only and
// returns ErrNotCached if the tab has not been constructed in this process.
func FilteredRender(c *cache.Cache, b *chart.Builder, def Definition, option string) (*chart.Artifact, error) {
	ds, ok := c.Get(def.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotCached, def.ID)
	}
	subset, err := ds.Filter(def.OptionsColumn, option)
	if err != nil {
		return nil, fmt.Errorf("dropdown tab %q: %w", def.ID, err)
	}
	return b.Chart(subset, chart.Spec{
		ID:     def.graphID(),
		Title:  fmt.Sprintf("%s: %s", def.Label, option),
		Series: []chart.SeriesSpec{{X: def.X, Y: def.Y, Kind: def.ChartKind}},
	})
}
