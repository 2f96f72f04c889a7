package dashboard

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/smileynet/quickdash/internal/chart"
	"github.com/smileynet/quickdash/internal/tab"
)

// Store is the client-held record of rendered tabs and the refresh cycle
// they were rendered in. The server keeps no copy between requests.
type Store struct {
	NIntervals int                        `json:"n_intervals"`
	Tabs       map[string]*chart.Artifact `json:"tabs"`
}

// NewStore returns the store a page starts with.
func NewStore() Store {
	return Store{Tabs: map[string]*chart.Artifact{}}
}

// Clone returns a copy whose tab map can be modified without affecting s.
// Artifacts are shared; they are never modified after rendering.
func (s Store) Clone() Store {
	out := Store{NIntervals: s.NIntervals, Tabs: make(map[string]*chart.Artifact, len(s.Tabs)+1)}
	for id, a := range s.Tabs {
		out.Tabs[id] = a
	}
	return out
}

// Has reports whether an artifact for id is stored.
func (s Store) Has(id string) bool {
	return s.Tabs[id] != nil
}

// Update returns the artifact to display for tabID at refresh cycle tick,
// together with the store the client should keep.
//
// A tab seen for the first time is rendered and stored. A stored tab is
// rendered again only when tick is past the store's cycle counter, which
// then advances to tick; otherwise the stored artifact is replayed without
// touching the data source. The counter never decreases, and store itself
// is left unmodified.
func (d *Dashboard) Update(tabID string, store Store, tick int) (*chart.Artifact, Store, error) {
	def, ok := d.defs[tabID]
	if !ok {
		return nil, store, fmt.Errorf("%w: %q", ErrUnknownTab, tabID)
	}

	next := store.Clone()
	switch {
	case !next.Has(tabID):
		a, err := d.render(def)
		if err != nil {
			return nil, store, err
		}
		next.Tabs[tabID] = a
		if tick > next.NIntervals {
			next.NIntervals = tick
		}
	case tick > next.NIntervals:
		a, err := d.render(def)
		if err != nil {
			return nil, store, err
		}
		next.Tabs[tabID] = a
		next.NIntervals = tick
	default:
		d.logger.Debug("data retrieved from store",
			zap.String("dashboard", d.slug),
			zap.String("tab", tabID),
			zap.String("store", d.ids.Store),
			zap.Int("n_intervals", next.NIntervals))
	}
	return next.Tabs[tabID], next, nil
}

// render builds def from freshly loaded data.
func (d *Dashboard) render(def tab.Definition) (*chart.Artifact, error) {
	start := time.Now()
	t, err := d.factory.Fresh(def)
	if err != nil {
		return nil, fmt.Errorf("dashboard %q: tab %q: %w", d.title, def.ID, err)
	}
	a, err := t.Render()
	if err != nil {
		return nil, fmt.Errorf("dashboard %q: tab %q: %w", d.title, def.ID, err)
	}
	d.logger.Info("tab rendered",
		zap.String("dashboard", d.slug),
		zap.String("tab", def.ID),
		zap.String("freshness", string(def.EffectiveFreshness())),
		zap.Duration("elapsed", time.Since(start)))
	return a, nil
}
