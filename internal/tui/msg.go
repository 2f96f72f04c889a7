// Package tui implements the terminal viewer for a dashboard: a tab strip,
// the selected tab's artifact drawn as text, and a refresh timer that runs
// only while the selected tab is dynamic.
package tui

import (
	"time"

	"github.com/smileynet/quickdash/internal/chart"
	"github.com/smileynet/quickdash/internal/dashboard"
	"github.com/smileynet/quickdash/internal/tab"
)

// Renderer is the dashboard surface the viewer drives.
// *dashboard.Dashboard implements it.
type Renderer interface {
	Title() string
	Tabs() []tab.Definition
	Update(tabID string, store dashboard.Store, tick int) (*chart.Artifact, dashboard.Store, error)
	IsTimerEnabled(tabID string) bool
	Interval() time.Duration
}

var _ Renderer = (*dashboard.Dashboard)(nil)

// RenderedMsg carries the result of rendering a tab.
type RenderedMsg struct {
	Seq      int // request sequence; stale results are dropped
	Tab      string
	Artifact *chart.Artifact
	Store    dashboard.Store
	Err      error
}

// TickMsg marks one elapsed refresh interval.
type TickMsg struct {
	Gen int // timer generation; ticks from a cancelled timer are dropped
}
