package dashboard

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/smileynet/quickdash/internal/dataset"
)

func TestUpdate_FirstVisitRendersAndStores(t *testing.T) {
	// Given an empty store
	d, l := newTestDashboard(t)
	store := NewStore()

	// When the live tab is shown
	a, next, err := d.Update("live", store, 0)

	// Then it is rendered once and stored
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if a == nil || next.Tabs["live"] != a {
		t.Fatalf("stored artifact = %v, want %v", next.Tabs["live"], a)
	}
	if got := l.count("live.csv"); got != 1 {
		t.Errorf("loader calls = %d, want 1", got)
	}
	if next.NIntervals != 0 {
		t.Errorf("NIntervals = %d, want 0", next.NIntervals)
	}
	if len(store.Tabs) != 0 {
		t.Errorf("input store modified: %v", store.Tabs)
	}
}

func TestUpdate_ReplayWithoutTickAdvance(t *testing.T) {
	d, l := newTestDashboard(t)
	first, store, err := d.Update("live", NewStore(), 0)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		a, next, err := d.Update("live", store, 0)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if a != first {
			t.Errorf("replay %d returned a different artifact", i)
		}
		store = next
	}
	if got := l.count("live.csv"); got != 1 {
		t.Errorf("loader calls = %d, want 1", got)
	}
}

func TestUpdate_TickAdvanceRefreshes(t *testing.T) {
	d, l := newTestDashboard(t)
	first, store, _ := d.Update("live", NewStore(), 0)

	a, next, err := d.Update("live", store, 1)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if a == first {
		t.Error("artifact was replayed, want fresh render")
	}
	if next.NIntervals != 1 {
		t.Errorf("NIntervals = %d, want 1", next.NIntervals)
	}
	if got := l.count("live.csv"); got != 2 {
		t.Errorf("loader calls = %d, want 2", got)
	}
	if store.NIntervals != 0 || store.Tabs["live"] != first {
		t.Error("input store modified")
	}
}

func TestUpdate_StaticTabReloadsOnTickAdvance(t *testing.T) {
	// Given a static tab already stored
	d, l := newTestDashboard(t)
	_, store, _ := d.Update("static", NewStore(), 0)

	// When the refresh cycle has advanced
	_, next, err := d.Update("static", store, 1)

	// Then it is rendered from the source again
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := l.count("static.csv"); got != 2 {
		t.Errorf("loader calls = %d, want 2", got)
	}
	if next.NIntervals != 1 {
		t.Errorf("NIntervals = %d, want 1", next.NIntervals)
	}
}

func TestUpdate_CounterNeverDecreases(t *testing.T) {
	d, l := newTestDashboard(t)
	store := NewStore()
	store.NIntervals = 5
	_, store, _ = d.Update("live", store, 5)

	a, next, err := d.Update("live", store, 2)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if a != store.Tabs["live"] {
		t.Error("stale tick did not replay the stored artifact")
	}
	if next.NIntervals != 5 {
		t.Errorf("NIntervals = %d, want 5", next.NIntervals)
	}
	if got := l.count("live.csv"); got != 1 {
		t.Errorf("loader calls = %d, want 1", got)
	}
}

func TestUpdate_FirstVisitAfterTickAdvance(t *testing.T) {
	d, l := newTestDashboard(t)

	_, next, err := d.Update("static", NewStore(), 3)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if next.NIntervals != 3 {
		t.Errorf("NIntervals = %d, want 3", next.NIntervals)
	}
	if got := l.count("static.csv"); got != 1 {
		t.Errorf("loader calls = %d, want 1", got)
	}
}

func TestUpdate_TabsAreIndependent(t *testing.T) {
	d, l := newTestDashboard(t)
	_, store, _ := d.Update("live", NewStore(), 0)
	_, store, _ = d.Update("static", store, 0)
	_, store, _ = d.Update("live", store, 0)

	if l.count("live.csv") != 1 || l.count("static.csv") != 1 {
		t.Errorf("loader calls = %v, want one per tab", l.calls)
	}
	if len(store.Tabs) != 2 {
		t.Errorf("stored tabs = %d, want 2", len(store.Tabs))
	}
}

func TestUpdate_MultiReloadsChildren(t *testing.T) {
	d, l := newTestDashboard(t)
	_, store, _ := d.Update("live", NewStore(), 0)

	_, _, err := d.Update("multi", store, 0)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if l.count("live.csv") != 2 || l.count("side.csv") != 1 {
		t.Errorf("loader calls = %v, want children loaded fresh", l.calls)
	}
}

func TestUpdate_UnknownTab(t *testing.T) {
	d, l := newTestDashboard(t)
	store := NewStore()
	store.NIntervals = 2

	a, next, err := d.Update("nope", store, 9)
	if !errors.Is(err, ErrUnknownTab) {
		t.Fatalf("Update() error = %v, want ErrUnknownTab", err)
	}
	if a != nil || next.NIntervals != 2 || len(next.Tabs) != 0 {
		t.Errorf("Update() = %v, %+v; want store untouched", a, next)
	}
	if len(l.calls) != 0 {
		t.Errorf("loader calls = %v, want none", l.calls)
	}
}

func TestUpdate_LoadFailure(t *testing.T) {
	d, l := newTestDashboard(t)
	l.fail["live.csv"] = true

	_, next, err := d.Update("live", NewStore(), 1)
	if !errors.Is(err, dataset.ErrLoad) {
		t.Fatalf("Update() error = %v, want ErrLoad", err)
	}
	if next.Has("live") || next.NIntervals != 0 {
		t.Errorf("store = %+v, want unchanged", next)
	}
}

func TestStore_JSON(t *testing.T) {
	d, _ := newTestDashboard(t)
	_, store, _ := d.Update("static", NewStore(), 4)

	data, err := json.Marshal(store)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back Store
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.NIntervals != 4 || !back.Has("static") {
		t.Errorf("decoded store = %+v", back)
	}

	// A store sent back by the page replays without reloading.
	a, _, err := d.Update("static", back, 4)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if a.ID != "static" {
		t.Errorf("artifact id = %q, want %q", a.ID, "static")
	}
}

func TestStore_CloneNil(t *testing.T) {
	var s Store
	c := s.Clone()
	if c.Tabs == nil {
		t.Fatal("Clone() of zero store has nil map")
	}
	c.Tabs["x"] = nil
	if s.Tabs != nil {
		t.Error("Clone() shares map with zero store")
	}
}
