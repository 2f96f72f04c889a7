package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/smileynet/quickdash"
	"github.com/smileynet/quickdash/internal/cache"
	"github.com/smileynet/quickdash/internal/config"
	"github.com/smileynet/quickdash/internal/dashboard"
	"github.com/smileynet/quickdash/internal/dataset"
	"github.com/smileynet/quickdash/internal/server"
	"github.com/smileynet/quickdash/internal/tui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// CLI is the top-level command structure for quickdash.
type CLI struct {
	Version kong.VersionFlag `help:"Show version." short:"V"`
	Serve   ServeCmd         `cmd:"" help:"Serve dashboards over HTTP."`
	View    ViewCmd          `cmd:"" help:"Open a dashboard in the terminal."`
	Render  RenderCmd        `cmd:"" help:"Print a single tab and exit."`
	List    ListCmd          `cmd:"" help:"List dashboards and their tabs."`
	Check   CheckCmd         `cmd:"" help:"Validate dashboard files and load every data source."`
}

// SourceFlags override where dashboard files and data come from.
type SourceFlags struct {
	Dashboards string `help:"Directory of dashboard files (default: bundled demos)." type:"path"`
	Data       string `help:"Directory of data files shadowing the bundled demo data." type:"path"`
}

func (f SourceFlags) apply(cfg *config.Config) {
	if f.Dashboards != "" {
		cfg.Dashboards.Dir = f.Dashboards
	}
	if f.Data != "" {
		cfg.Data.Dir = f.Data
	}
}

// loadConfig loads layered config from user and project paths with env overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadLayered(
		os.ExpandEnv("$HOME/.config/quickdash/config.yaml"),
		".quickdash/config.yaml",
	)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup resolves config, flags, logger and catalog for a command.
func setup(flags SourceFlags, quiet bool) (*config.Config, *zap.Logger, *dashboard.Catalog, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	flags.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	logger := zap.NewNop()
	if !quiet {
		if logger, err = newLogger(cfg.Log); err != nil {
			return nil, nil, nil, err
		}
	}

	catalog, err := loadCatalog(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, catalog, nil
}

// newLogger builds a zap logger writing to stderr in the configured format.
func newLogger(cfg config.Log) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("config: log.level: %w", err)
	}

	var zc zap.Config
	switch cfg.Format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console", "":
		zc = zap.NewDevelopmentConfig()
		zc.Development = false
	default:
		return nil, fmt.Errorf("config: log.format %q is not one of console, json", cfg.Format)
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// loadCatalog discovers dashboard files and builds one dashboard per file.
func loadCatalog(cfg *config.Config, logger *zap.Logger) (*dashboard.Catalog, error) {
	var dashFS fs.FS = quickdash.Dashboards
	if cfg.Dashboards.Dir != "" {
		dashFS = os.DirFS(cfg.Dashboards.Dir)
	}
	loader := dataset.NewCSVLoader(quickdash.OverlayFS(cfg.Data.Dir, quickdash.Data))

	var cacheOpts []cache.Option
	if cfg.Cache.LoadOnce {
		cacheOpts = append(cacheOpts, cache.WithLoadOnce())
	}
	return dashboard.LoadCatalog(dashFS, cfg.Dashboards.Pattern, loader, cacheOpts, dashboard.WithLogger(logger))
}

// lookup resolves a dashboard by title or slug.
func lookup(catalog *dashboard.Catalog, name string) (*dashboard.Dashboard, error) {
	d, ok := catalog.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown dashboard %q (try: quickdash list)", name)
	}
	return d, nil
}

// terminalWidth returns the stdout width, or fallback when stdout is not a terminal.
func terminalWidth(fallback int) int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// --- Serve command ---

// ServeCmd runs the HTTP front end.
type ServeCmd struct {
	SourceFlags `embed:""`
	Addr        string `help:"Listen address (overrides server.addr)."`
}

// httpServer abstracts the HTTP front end for testing.
type httpServer interface {
	ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error
}

// Run builds real dependencies and serves until interrupted.
func (s *ServeCmd) Run() error {
	cfg, logger, catalog, err := setup(s.SourceFlags, false)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}

	gin.SetMode(cfg.Server.Mode)
	srv, err := server.New(catalog, quickdash.Web, logger)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	ctx, stop := interruptContext()
	defer stop()
	return s.run(ctx, os.Stdout, srv, catalog, cfg.Server)
}

// run prints the listen banner and blocks in the server.
func (s *ServeCmd) run(ctx context.Context, w io.Writer, srv httpServer, catalog *dashboard.Catalog, cfg config.Server) error {
	_, _ = fmt.Fprintf(w, "serving %d dashboards on %s\n", catalog.Len(), cfg.Addr)
	if err := srv.ListenAndServe(ctx, cfg.Addr, cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// --- View command ---

// ViewCmd shows a dashboard in the terminal, refreshing dynamic tabs.
type ViewCmd struct {
	SourceFlags `embed:""`
	Dashboard   string `arg:"" help:"Dashboard title or slug."`
	Tab         string `help:"Tab shown first (default: the first tab)."`
	Plain       bool   `help:"Force plain text output even if stdout is a TTY." default:"false"`
	Once        bool   `help:"Plain output only: print the tab once and exit, even when it is dynamic." default:"false"`
}

// Run builds real dependencies and launches the viewer.
func (v *ViewCmd) Run() error {
	// Logs would tear the full-screen view, so the viewer runs without them.
	_, _, catalog, err := setup(v.SourceFlags, true)
	if err != nil {
		return fmt.Errorf("view: %w", err)
	}
	d, err := lookup(catalog, v.Dashboard)
	if err != nil {
		return fmt.Errorf("view: %w", err)
	}
	if v.Tab != "" {
		if _, err := d.Lookup(v.Tab); err != nil {
			return fmt.Errorf("view: %w", err)
		}
	}

	viewer := tui.NewViewer(d, tui.ViewOptions{
		Writer:     os.Stdout,
		ForcePlain: v.Plain || v.Once,
		Tab:        v.Tab,
		Once:       v.Once,
		Width:      terminalWidth(80),
	})

	ctx, stop := interruptContext()
	defer stop()
	return v.run(ctx, viewer)
}

// run executes the viewer, treating interruption as a clean exit.
func (v *ViewCmd) run(ctx context.Context, viewer tui.Viewer) error {
	err := viewer.Run(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Errorf("view: %w", err)
}

// --- Render command ---

// RenderCmd prints one tab as it would appear at the given tick.
type RenderCmd struct {
	SourceFlags `embed:""`
	Dashboard   string `arg:"" help:"Dashboard title or slug."`
	Tab         string `arg:"" optional:"" help:"Tab id (default: the first tab)."`
	Tick        int    `help:"Refresh tick to render at." default:"0"`
	Width       int    `help:"Text width (default: terminal width or 80)." default:"0"`
	JSON        bool   `name:"json" help:"Print the artifact and store as JSON." default:"false"`
}

// Run builds real dependencies and prints the tab.
func (r *RenderCmd) Run() error {
	_, logger, catalog, err := setup(r.SourceFlags, false)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	if r.Width <= 0 {
		r.Width = terminalWidth(80)
	}
	return r.run(os.Stdout, catalog)
}

// run renders the tab against an empty store and writes it to w.
func (r *RenderCmd) run(w io.Writer, catalog *dashboard.Catalog) error {
	d, err := lookup(catalog, r.Dashboard)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	id := r.Tab
	if id == "" {
		id = d.DefaultTab()
	}

	artifact, store, err := d.Update(id, dashboard.NewStore(), r.Tick)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if r.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		out := struct {
			Artifact any              `json:"artifact"`
			Store    dashboard.Store `json:"store"`
		}{artifact, store}
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		return nil
	}

	width := r.Width
	if width <= 0 {
		width = 80
	}
	_, _ = fmt.Fprintln(w, tui.RenderText(artifact, width))
	return nil
}

// --- List command ---

// ListCmd prints every dashboard with its tabs.
type ListCmd struct {
	SourceFlags `embed:""`
}

// Run builds the catalog and lists it.
func (l *ListCmd) Run() error {
	_, _, catalog, err := setup(l.SourceFlags, true)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	return l.run(os.Stdout, catalog)
}

func (l *ListCmd) run(w io.Writer, catalog *dashboard.Catalog) error {
	for i, d := range catalog.All() {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintf(w, "%s (%s), refresh every %dm\n", d.Title(), d.Slug(), d.RefreshMinutes())
		for _, def := range d.Tabs() {
			mode := "static"
			if d.IsDynamic(def.ID) {
				mode = "dynamic"
			}
			_, _ = fmt.Fprintf(w, "  %-28s %-10s %-8s %s\n", def.ID, def.Kind, mode, def.Label)
		}
	}
	return nil
}

// --- Check command ---

// CheckCmd validates every dashboard file and loads every data source once.
type CheckCmd struct {
	SourceFlags `embed:""`
	Parallel    int `help:"Dashboards checked concurrently." default:"4"`
}

// Run builds the catalog and warms each dashboard.
func (c *CheckCmd) Run() error {
	_, logger, catalog, err := setup(c.SourceFlags, false)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := interruptContext()
	defer stop()
	return c.run(ctx, os.Stdout, catalog)
}

// run warms every dashboard and reports one line per dashboard.
func (c *CheckCmd) run(ctx context.Context, w io.Writer, catalog *dashboard.Catalog) error {
	all := catalog.All()
	results := make([]error, len(all))

	g, gctx := errgroup.WithContext(ctx)
	if c.Parallel > 0 {
		g.SetLimit(c.Parallel)
	}
	for i, d := range all {
		g.Go(func() error {
			results[i] = d.Warm(gctx)
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for i, d := range all {
		if results[i] != nil {
			failed = append(failed, results[i])
			_, _ = fmt.Fprintf(w, "FAIL %s: %v\n", d.Title(), results[i])
			continue
		}
		_, _ = fmt.Fprintf(w, "ok   %s (%d tabs)\n", d.Title(), len(d.Tabs()))
	}
	if len(failed) > 0 {
		return fmt.Errorf("check: %d of %d dashboards failed: %w", len(failed), len(all), errors.Join(failed...))
	}
	return nil
}

// Exit codes.
const (
	exitSuccess = 0
	exitRuntime = 1
	exitSetup   = 2
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	if errors.Is(err, dataset.ErrLoad) || errors.Is(err, dashboard.ErrUnknownTab) {
		return exitRuntime
	}
	return exitSetup
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("quickdash"),
		kong.Description("Config-driven tabbed dashboards for the browser and the terminal."),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
