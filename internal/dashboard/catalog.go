package dashboard

import (
	"fmt"
	"io/fs"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/smileynet/quickdash/internal/cache"
	"github.com/smileynet/quickdash/internal/dataset"
)

// DefaultPattern matches the dashboard files a catalog loads.
const DefaultPattern = "**/*.{yaml,yml,toml}"

// Catalog holds the dashboards being served, addressable by title or slug.
type Catalog struct {
	dashboards []*Dashboard
	byKey      map[string]*Dashboard
}

// NewCatalog indexes dashboards. Two dashboards may not share a title or a
// slug.
func NewCatalog(dashboards ...*Dashboard) (*Catalog, error) {
	c := &Catalog{byKey: make(map[string]*Dashboard, 2*len(dashboards))}
	for _, d := range dashboards {
		for _, key := range []string{d.Title(), d.Slug()} {
			if other, dup := c.byKey[key]; dup && other != d {
				return nil, fmt.Errorf("%w: dashboards %q and %q share the name %q", ErrConfig, other.Title(), d.Title(), key)
			}
			c.byKey[key] = d
		}
		c.dashboards = append(c.dashboards, d)
	}
	sort.SliceStable(c.dashboards, func(i, j int) bool {
		return c.dashboards[i].Title() < c.dashboards[j].Title()
	})
	return c, nil
}

// LoadCatalog parses every file in fsys matching pattern and builds its
// dashboard. Each dashboard gets its own cache, built with cacheOpts, since
// tab ids are only unique within a dashboard. All read through loader.
func LoadCatalog(fsys fs.FS, pattern string, loader dataset.Loader, cacheOpts []cache.Option, opts ...Option) (*Catalog, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	names, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: matching %q: %v", ErrConfig, pattern, err)
	}
	sort.Strings(names)

	dashboards := make([]*Dashboard, 0, len(names))
	for _, name := range names {
		spec, err := ParseFile(fsys, name)
		if err != nil {
			return nil, err
		}
		d, err := New(spec, cache.New(cacheOpts...), loader, opts...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		dashboards = append(dashboards, d)
	}
	return NewCatalog(dashboards...)
}

// Lookup returns the dashboard with the given title or slug.
func (c *Catalog) Lookup(name string) (*Dashboard, bool) {
	d, ok := c.byKey[name]
	if !ok {
		d, ok = c.byKey[Slug(name)]
	}
	return d, ok
}

// All returns the dashboards ordered by title.
func (c *Catalog) All() []*Dashboard {
	return append([]*Dashboard(nil), c.dashboards...)
}

// Len returns the number of dashboards.
func (c *Catalog) Len() int { return len(c.dashboards) }
