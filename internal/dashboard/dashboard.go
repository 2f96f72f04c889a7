// Package dashboard composes tabs into a page and coordinates their
// rendering: which tab artifacts are replayed from the client-held store,
// which are rendered again when the refresh cycle advances, and when the
// client's refresh timer should run at all.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smileynet/quickdash/internal/cache"
	"github.com/smileynet/quickdash/internal/chart"
	"github.com/smileynet/quickdash/internal/dataset"
	"github.com/smileynet/quickdash/internal/tab"
)

// DefaultRefreshMinutes is the refresh period used when none is configured.
const DefaultRefreshMinutes = 15

// Element ids shared by every dashboard page.
const (
	DefaultIntervalID = "interval-component"
	DefaultStoreID    = "tab-data"
)

// warmLimit bounds concurrent source loads in Warm.
const warmLimit = 4

var (
	// ErrUnknownTab indicates a request for a tab the dashboard does not define.
	ErrUnknownTab = errors.New("dashboard: unknown tab")
	// ErrNotDropDown indicates a dropdown operation on another kind of tab.
	ErrNotDropDown = errors.New("dashboard: tab is not a dropdown")
	// ErrConfig indicates a dashboard that cannot be served.
	ErrConfig = tab.ErrConfig
)

// Spec is the declarative description of a dashboard.
type Spec struct {
	Title          string
	RefreshMinutes int
	Tabs           []tab.Definition
	Origin         string // file the spec was read from, for messages
}

// ElementIDs names the page regions the dashboard controls.
type ElementIDs struct {
	Tabs     string `json:"tabs"`
	Content  string `json:"content"`
	Interval string `json:"interval"`
	Store    string `json:"store"`
}

// Dashboard is an ordered set of tabs with a shared refresh period.
type Dashboard struct {
	title          string
	slug           string
	refreshMinutes int
	ids            ElementIDs
	tabs           []tab.Definition
	defs           map[string]tab.Definition
	factory        *tab.Factory
	cache          *cache.Cache
	builder        *chart.Builder
	logger         *zap.Logger
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithLogger sets the logger used for render events.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dashboard) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithBuilder sets the artifact builder.
func WithBuilder(b *chart.Builder) Option {
	return func(d *Dashboard) { d.builder = b }
}

// New validates spec and builds a Dashboard reading data through loader and
// caching it in c. Configuration problems are reported here, before any
// request is served.
func New(spec Spec, c *cache.Cache, loader dataset.Loader, opts ...Option) (*Dashboard, error) {
	if spec.Title == "" {
		return nil, fmt.Errorf("%w: dashboard %s has no title", ErrConfig, spec.Origin)
	}
	if spec.RefreshMinutes < 0 {
		return nil, fmt.Errorf("%w: dashboard %q: refresh_minutes must be non-negative, got %d", ErrConfig, spec.Title, spec.RefreshMinutes)
	}

	d := &Dashboard{
		title:          spec.Title,
		slug:           Slug(spec.Title),
		refreshMinutes: spec.RefreshMinutes,
		defs:           make(map[string]tab.Definition, len(spec.Tabs)),
		cache:          c,
		logger:         zap.NewNop(),
	}
	if d.refreshMinutes == 0 {
		d.refreshMinutes = DefaultRefreshMinutes
	}
	d.ids = ElementIDs{
		Tabs:     d.slug,
		Content:  Slug(spec.Title + "-div"),
		Interval: DefaultIntervalID,
		Store:    DefaultStoreID,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.builder == nil {
		d.builder = chart.NewBuilder()
	}

	if err := d.addTabs(spec.Tabs); err != nil {
		return nil, fmt.Errorf("dashboard %q: %w", spec.Title, err)
	}
	d.factory = tab.NewFactory(c, loader, d.builder, spec.Tabs)
	return d, nil
}

// addTabs validates definitions, enforces unique ids and checks multi tab
// references.
func (d *Dashboard) addTabs(defs []tab.Definition) error {
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return err
		}
		if _, dup := d.defs[def.ID]; dup {
			return fmt.Errorf("%w: duplicate tab id %q", ErrConfig, def.ID)
		}
		d.defs[def.ID] = def
		if !def.Hidden {
			d.tabs = append(d.tabs, def)
		}
	}
	if len(d.tabs) == 0 {
		return fmt.Errorf("%w: no visible tabs", ErrConfig)
	}

	for _, def := range defs {
		if def.Kind != tab.KindMulti {
			continue
		}
		for _, child := range def.Children {
			cd, ok := d.defs[child]
			switch {
			case !ok:
				return fmt.Errorf("%w: multi tab %q references unknown tab %q", ErrConfig, def.ID, child)
			case cd.Kind == tab.KindMulti:
				return fmt.Errorf("%w: multi tab %q cannot contain multi tab %q", ErrConfig, def.ID, child)
			}
		}
	}
	return nil
}

// Title returns the dashboard heading.
func (d *Dashboard) Title() string { return d.title }

// Slug returns the url-safe identity derived from the title.
func (d *Dashboard) Slug() string { return d.slug }

// IDs returns the page element ids.
func (d *Dashboard) IDs() ElementIDs { return d.ids }

// RefreshMinutes returns the refresh period in minutes.
func (d *Dashboard) RefreshMinutes() int { return d.refreshMinutes }

// Interval returns the refresh period.
func (d *Dashboard) Interval() time.Duration {
	return time.Duration(d.refreshMinutes) * time.Minute
}

// IntervalMillis returns the refresh period in milliseconds, the unit the
// page timer uses.
func (d *Dashboard) IntervalMillis() int64 {
	return int64(d.refreshMinutes) * 60 * 1000
}

// Tabs returns the visible tab definitions in display order.
func (d *Dashboard) Tabs() []tab.Definition {
	return append([]tab.Definition(nil), d.tabs...)
}

// DefaultTab returns the id of the first visible tab.
func (d *Dashboard) DefaultTab() string {
	return d.tabs[0].ID
}

// Lookup returns the definition for id.
func (d *Dashboard) Lookup(id string) (tab.Definition, error) {
	def, ok := d.defs[id]
	if !ok {
		return tab.Definition{}, fmt.Errorf("%w: %q", ErrUnknownTab, id)
	}
	return def, nil
}

// IsTimerEnabled reports whether the refresh timer should run while id is
// selected: true only for dynamic tabs. Unknown ids report false.
func (d *Dashboard) IsTimerEnabled(id string) bool {
	def, ok := d.defs[id]
	return ok && def.IsDynamic()
}

// IsDynamic is IsTimerEnabled under the name the page uses.
func (d *Dashboard) IsDynamic(id string) bool {
	return d.IsTimerEnabled(id)
}

// Options returns the choices of a dropdown tab.
func (d *Dashboard) Options(id string) ([]string, error) {
	def, err := d.dropDown(id)
	if err != nil {
		return nil, err
	}
	t, err := d.factory.New(def)
	if err != nil {
		return nil, fmt.Errorf("dashboard %q: tab %q: %w", d.title, id, err)
	}
	return t.(*tab.DropDown).Options()
}

// Filter charts a dropdown tab's cached dataset restricted to value.
func (d *Dashboard) Filter(id, value string) (*chart.Artifact, error) {
	def, err := d.dropDown(id)
	if err != nil {
		return nil, err
	}
	return tab.FilteredRender(d.cache, d.builder, def, value)
}

func (d *Dashboard) dropDown(id string) (tab.Definition, error) {
	def, err := d.Lookup(id)
	if err != nil {
		return def, err
	}
	if def.Kind != tab.KindDropDown {
		return def, fmt.Errorf("%w: %q", ErrNotDropDown, id)
	}
	return def, nil
}

// Warm loads every data source into the cache, a few at a time. It stops at
// the first failure.
func (d *Dashboard) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(warmLimit)
	for _, def := range d.defs {
		if def.Kind == tab.KindMulti {
			continue
		}
		def := def
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := d.factory.New(def)
			if err != nil {
				return fmt.Errorf("tab %q: %w", def.ID, err)
			}
			if _, err := t.Render(); err != nil {
				return fmt.Errorf("tab %q: %w", def.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("dashboard %q: %w", d.title, err)
	}
	return nil
}
