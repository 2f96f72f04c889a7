package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/quickdash/internal/dashboard"
)

// defaultWidth is used for plain output when the caller gives no width.
const defaultWidth = 80

// Viewer shows a dashboard until it is done or ctx is cancelled.
type Viewer interface {
	Run(ctx context.Context) error
}

// ViewOptions configures viewer creation.
type ViewOptions struct {
	Writer     io.Writer // Output destination (default: os.Stdout).
	ForcePlain bool      // Force plain text even if TTY.
	Tab        string    // Tab shown first (default: the first tab).
	Width      int       // Plain text width (default: 80).
	Once       bool      // Plain text only: render once even for dynamic tabs.
}

// NewViewer returns the interactive viewer when the writer is a TTY, or a
// plain text viewer otherwise. ForcePlain overrides TTY detection.
func NewViewer(r Renderer, opts ViewOptions) Viewer {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.Tab == "" {
		if tabs := r.Tabs(); len(tabs) > 0 {
			opts.Tab = tabs[0].ID
		}
	}

	if opts.ForcePlain || !isTTY(opts.Writer) {
		width := opts.Width
		if width <= 0 {
			width = defaultWidth
		}
		return &PlainViewer{r: r, w: opts.Writer, tab: opts.Tab, width: width, once: opts.Once}
	}
	return &TUIViewer{r: r, w: opts.Writer, tab: opts.Tab}
}

// isTTY reports whether w is connected to a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// PlainViewer prints one tab as text. A dynamic tab is printed again after
// every refresh interval until the context is cancelled.
type PlainViewer struct {
	r     Renderer
	w     io.Writer
	tab   string
	width int
	once  bool
}

// Run renders the tab and, for dynamic tabs, keeps re-rendering it.
func (v *PlainViewer) Run(ctx context.Context) error {
	store := dashboard.NewStore()
	for tick := 0; ; tick++ {
		art, next, err := v.r.Update(v.tab, store, tick)
		if err != nil {
			return err
		}
		store = next

		ts := time.Now().Format("15:04:05")
		_, _ = fmt.Fprintf(v.w, "[%s] %s › %s (tick %d)\n", ts, v.r.Title(), v.tab, tick)
		_, _ = fmt.Fprintln(v.w, RenderText(art, v.width))

		if v.once || !v.r.IsTimerEnabled(v.tab) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(v.r.Interval()):
		}
	}
}

// TUIViewer runs the interactive Bubble Tea viewer.
type TUIViewer struct {
	r   Renderer
	w   io.Writer
	tab string
}

// Run starts the Bubble Tea program and blocks until the user quits.
func (v *TUIViewer) Run(ctx context.Context) error {
	p := tea.NewProgram(NewModel(v.r, WithTab(v.tab)),
		tea.WithOutput(v.w),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
