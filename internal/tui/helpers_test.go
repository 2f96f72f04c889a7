package tui

import (
	"errors"
	"sync"
	"time"

	"github.com/smileynet/quickdash/internal/chart"
	"github.com/smileynet/quickdash/internal/dashboard"
	"github.com/smileynet/quickdash/internal/tab"
)

type renderCall struct {
	Tab  string
	Tick int
}

// fakeRenderer records Update calls and returns a small panel per tab.
type fakeRenderer struct {
	mu       sync.Mutex
	calls    []renderCall
	interval time.Duration
	fail     map[string]bool
}

func newFakeRenderer(interval time.Duration) *fakeRenderer {
	return &fakeRenderer{interval: interval, fail: map[string]bool{}}
}

func (f *fakeRenderer) Title() string { return "Test Board" }

func (f *fakeRenderer) Tabs() []tab.Definition {
	return []tab.Definition{
		{ID: "live", Label: "Live", Kind: tab.KindChart, Freshness: tab.Dynamic},
		{ID: "static", Label: "Static", Kind: tab.KindTable},
	}
}

func (f *fakeRenderer) Update(id string, store dashboard.Store, tick int) (*chart.Artifact, dashboard.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, renderCall{Tab: id, Tick: tick})
	if f.fail[id] {
		return nil, store, errors.New("source unavailable")
	}
	next := store.Clone()
	a := chart.Panel(id, "Panel "+id, &chart.Artifact{
		Kind:  chart.ArtifactTable,
		ID:    id + "-table",
		Table: &chart.Table{Columns: []string{"name"}, Rows: [][]string{{"row-" + id}}},
	})
	next.Tabs[id] = a
	if tick > next.NIntervals {
		next.NIntervals = tick
	}
	return a, next, nil
}

func (f *fakeRenderer) IsTimerEnabled(id string) bool { return id == "live" }

func (f *fakeRenderer) Interval() time.Duration { return f.interval }

func (f *fakeRenderer) recorded() []renderCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]renderCall(nil), f.calls...)
}
