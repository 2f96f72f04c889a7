package features

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/cucumber/godog"

	"github.com/smileynet/quickdash/internal/cache"
	"github.com/smileynet/quickdash/internal/chart"
	"github.com/smileynet/quickdash/internal/dashboard"
	"github.com/smileynet/quickdash/internal/dataset"
)

// dataFiles is an in-memory data directory that counts reads per file.
type dataFiles struct {
	mu    sync.Mutex
	files map[string]string
	reads map[string]int
}

func (f *dataFiles) Load(source string) (*dataset.Dataset, error) {
	f.mu.Lock()
	content, ok := f.files[source]
	f.reads[source]++
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", dataset.ErrLoad, source)
	}
	return dataset.ReadCSV(strings.NewReader(content))
}

// refreshContext holds state between steps of one scenario.
type refreshContext struct {
	data  *dataFiles
	dash  *dashboard.Dashboard
	store dashboard.Store
	last  *chart.Artifact
}

func (rc *refreshContext) aDashboardFile(doc *godog.DocString) error {
	spec, err := dashboard.ParseYAML([]byte(doc.Content), "feature.yaml")
	if err != nil {
		return err
	}
	rc.dash, err = dashboard.New(spec, cache.New(), rc.data,
		dashboard.WithBuilder(chart.NewBuilder(chart.WithoutSVG())))
	return err
}

func (rc *refreshContext) theDataFileContains(name string, doc *godog.DocString) error {
	rc.data.mu.Lock()
	defer rc.data.mu.Unlock()
	rc.data.files[name] = doc.Content + "\n"
	return nil
}

func (rc *refreshContext) iOpenTabAtTick(id string, tick int) error {
	a, store, err := rc.dash.Update(id, rc.store, tick)
	if err != nil {
		return err
	}
	rc.last, rc.store = a, store
	return nil
}

func (rc *refreshContext) openingTabFailsWithAnUnknownTab(id string, tick int) error {
	_, store, err := rc.dash.Update(id, rc.store, tick)
	if !errors.Is(err, dashboard.ErrUnknownTab) {
		return fmt.Errorf("expected ErrUnknownTab, got %v", err)
	}
	if store.NIntervals != rc.store.NIntervals || len(store.Tabs) != len(rc.store.Tabs) {
		return fmt.Errorf("store changed on error: %+v", store)
	}
	return nil
}

func (rc *refreshContext) theDataFileHasBeenRead(name string, want int) error {
	rc.data.mu.Lock()
	defer rc.data.mu.Unlock()
	if got := rc.data.reads[name]; got != want {
		return fmt.Errorf("expected %s read %d times, got %d", name, want, got)
	}
	return nil
}

func (rc *refreshContext) theStoreHoldsTab(id string) error {
	if !rc.store.Has(id) {
		return fmt.Errorf("expected store to hold %q", id)
	}
	return nil
}

func (rc *refreshContext) theStoreRecordsIntervals(want int) error {
	if rc.store.NIntervals != want {
		return fmt.Errorf("expected n_intervals %d, got %d", want, rc.store.NIntervals)
	}
	return nil
}

func (rc *refreshContext) theLastRenderShowsThePoint(x string, y float64) error {
	fig := findFigure(rc.last)
	if fig == nil || len(fig.Series) == 0 {
		return fmt.Errorf("last render has no figure")
	}
	s := fig.Series[0]
	for i := range s.X {
		if s.X[i] == x && i < len(s.Y) {
			if s.Y[i] != y {
				return fmt.Errorf("expected y=%v at x=%s, got %v", y, x, s.Y[i])
			}
			return nil
		}
	}
	return fmt.Errorf("x=%s not in series %v", x, s.X)
}

func (rc *refreshContext) theTimerIsFor(state, id string) error {
	want := state == "enabled"
	if got := rc.dash.IsTimerEnabled(id); got != want {
		return fmt.Errorf("expected timer enabled=%v for %q, got %v", want, id, got)
	}
	return nil
}

func findFigure(a *chart.Artifact) *chart.Figure {
	if a == nil {
		return nil
	}
	if a.Figure != nil {
		return a.Figure
	}
	for _, c := range a.Children {
		if f := findFigure(c); f != nil {
			return f
		}
	}
	return nil
}

func InitializeRefreshScenario(sc *godog.ScenarioContext) {
	rc := &refreshContext{
		data:  &dataFiles{files: map[string]string{}, reads: map[string]int{}},
		store: dashboard.NewStore(),
	}

	sc.Step(`^a dashboard file:$`, rc.aDashboardFile)
	sc.Step(`^the data file "([^"]*)" contains:$`, rc.theDataFileContains)
	sc.Step(`^I open tab "([^"]*)" at tick (\d+)$`, rc.iOpenTabAtTick)
	sc.Step(`^opening tab "([^"]*)" at tick (\d+) fails with an unknown tab$`, rc.openingTabFailsWithAnUnknownTab)
	sc.Step(`^the data file "([^"]*)" has been read (\d+) times$`, rc.theDataFileHasBeenRead)
	sc.Step(`^the store holds tab "([^"]*)"$`, rc.theStoreHoldsTab)
	sc.Step(`^the store records (\d+) intervals$`, rc.theStoreRecordsIntervals)
	sc.Step(`^the last render shows the point (\S+), (\S+)$`, func(x, y string) error {
		v, err := strconv.ParseFloat(y, 64)
		if err != nil {
			return err
		}
		return rc.theLastRenderShowsThePoint(x, v)
	})
	sc.Step(`^the timer is (enabled|disabled) for "([^"]*)"$`, rc.theTimerIsFor)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeRefreshScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"."},
			Tags:     "~@wip",
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
