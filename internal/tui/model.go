package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/quickdash/internal/chart"
	"github.com/smileynet/quickdash/internal/dashboard"
	"github.com/smileynet/quickdash/internal/tab"
)

// helpBarHeight is the number of lines reserved for the help bar at the bottom.
const helpBarHeight = 1

// borderChrome is the number of lines consumed by top + bottom borders.
const borderChrome = 2

// headerHeight covers the title line and the three-line tab strip.
const headerHeight = 4

// statusHeight is the status line under the content.
const statusHeight = 1

// Model is the root Bubble Tea model for the dashboard viewer. It owns the
// client side of the refresh protocol: the store and the tick counter.
type Model struct {
	r        Renderer
	tabs     []tab.Definition
	selected int
	interval time.Duration

	store    dashboard.Store
	tick     int
	seq      int // last render request
	timerGen int // current timer; 0 when none is scheduled
	loading  bool
	artifact *chart.Artifact
	err      error

	width    int
	height   int
	viewport viewport.Model
	help     help.Model
	keys     keyMap
}

// ModelOption configures optional Model behavior.
type ModelOption func(*Model)

// WithTab selects the tab shown first. Unknown ids are ignored.
func WithTab(id string) ModelOption {
	return func(m *Model) {
		for i, t := range m.tabs {
			if t.ID == id {
				m.selected = i
			}
		}
	}
}

// WithInterval overrides the dashboard's refresh period.
func WithInterval(d time.Duration) ModelOption {
	return func(m *Model) { m.interval = d }
}

// NewModel creates a viewer for r showing its first tab.
func NewModel(r Renderer, opts ...ModelOption) Model {
	m := Model{
		r:        r,
		tabs:     r.Tabs(),
		interval: r.Interval(),
		store:    dashboard.NewStore(),
		seq:      1,
		loading:  true,
		viewport: viewport.New(0, 0),
		help:     help.New(),
		keys:     DefaultKeyMap(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init renders the initial tab.
func (m Model) Init() tea.Cmd {
	return m.renderCmd()
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = max(msg.Width-borderChrome, 0)
		m.viewport.Height = m.contentHeight()
		m.refreshContent()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case RenderedMsg:
		return m.applyRendered(msg)

	case TickMsg:
		if msg.Gen != m.timerGen {
			return m, nil
		}
		m.timerGen = 0
		m.tick++
		return m.startRender()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleKey processes key messages.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Prev):
		if len(m.tabs) == 0 {
			return m, nil
		}
		m.selected = (m.selected + len(m.tabs) - 1) % len(m.tabs)
		return m.startRender()
	case key.Matches(msg, m.keys.Next):
		if len(m.tabs) == 0 {
			return m, nil
		}
		m.selected = (m.selected + 1) % len(m.tabs)
		return m.startRender()
	case key.Matches(msg, m.keys.Refresh):
		m.tick++
		return m.startRender()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// startRender cancels any pending timer and requests the selected tab.
func (m Model) startRender() (tea.Model, tea.Cmd) {
	m.timerGen = 0
	m.seq++
	m.loading = true
	return m, m.renderCmd()
}

// renderCmd renders the selected tab off the event loop.
func (m Model) renderCmd() tea.Cmd {
	if len(m.tabs) == 0 {
		return nil
	}
	r, id, store, tick, seq := m.r, m.tabs[m.selected].ID, m.store, m.tick, m.seq
	return func() tea.Msg {
		art, next, err := r.Update(id, store, tick)
		return RenderedMsg{Seq: seq, Tab: id, Artifact: art, Store: next, Err: err}
	}
}

// applyRendered installs a render result and schedules the next tick when
// the tab is dynamic.
func (m Model) applyRendered(msg RenderedMsg) (tea.Model, tea.Cmd) {
	if msg.Seq != m.seq {
		return m, nil
	}
	m.loading = false
	m.err = msg.Err
	if msg.Err == nil {
		m.store = msg.Store
		m.artifact = msg.Artifact
	}
	m.refreshContent()
	m.viewport.GotoTop()

	if !m.r.IsTimerEnabled(msg.Tab) {
		return m, nil
	}
	m.timerGen = m.seq
	gen := m.timerGen
	return m, tea.Tick(m.interval, func(time.Time) tea.Msg { return TickMsg{Gen: gen} })
}

func (m *Model) refreshContent() {
	switch {
	case m.err != nil:
		m.viewport.SetContent(errorStyle.Render(m.err.Error()))
	case m.artifact != nil:
		m.viewport.SetContent(RenderText(m.artifact, m.viewport.Width))
	default:
		m.viewport.SetContent("")
	}
}

// contentHeight returns the usable height for the content pane,
// accounting for header, border chrome, status and help bar.
func (m Model) contentHeight() int {
	h := m.height - headerHeight - borderChrome - statusHeight - helpBarHeight
	if h < 1 {
		return 1
	}
	return h
}

// Selected returns the id of the selected tab.
func (m Model) Selected() string {
	if len(m.tabs) == 0 {
		return ""
	}
	return m.tabs[m.selected].ID
}

// Store returns the store held by the viewer.
func (m Model) Store() dashboard.Store {
	return m.store
}

// TimerRunning reports whether a refresh tick is scheduled.
func (m Model) TimerRunning() bool {
	return m.timerGen != 0
}

// View renders the title, tab strip, content and help bar.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	content := contentBorder().
		Width(max(m.width-borderChrome, 0)).
		Height(m.contentHeight()).
		Render(m.viewport.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(m.r.Title()),
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m.keys),
	)
}

func (m Model) viewTabs() string {
	rendered := make([]string, 0, len(m.tabs))
	for i, t := range m.tabs {
		label := t.Label
		if t.IsDynamic() {
			label += " " + dynamicMark
		}
		if i == m.selected {
			rendered = append(rendered, activeTabStyle.Render(label))
		} else {
			rendered = append(rendered, inactiveTabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, rendered...)
}

func (m Model) viewStatus() string {
	parts := []string{fmt.Sprintf("tick %d", m.tick)}
	switch {
	case m.loading:
		parts = append(parts, "loading…")
	case m.err != nil:
		parts = append(parts, errorStyle.Render("error"))
	}
	if m.TimerRunning() {
		parts = append(parts, "refresh every "+m.interval.String())
	} else {
		parts = append(parts, "static")
	}
	return dimStyle.Render(strings.Join(parts, " · "))
}
