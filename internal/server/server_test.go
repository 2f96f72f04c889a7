package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smileynet/quickdash"
	"github.com/smileynet/quickdash/internal/chart"
	"github.com/smileynet/quickdash/internal/dashboard"
	"github.com/smileynet/quickdash/internal/dataset"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	loader := dataset.NewCSVLoader(quickdash.Data)
	cat, err := dashboard.LoadCatalog(quickdash.Dashboards, "", loader, nil,
		dashboard.WithBuilder(chart.NewBuilder(chart.WithoutSVG())))
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	s, err := New(cat, quickdash.Web, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, rec)["error"].(string)
}

func TestIndex(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, want := range []string{`href="/d/dashboard-demo"`, `href="/d/dropdown-tab-demo"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %s", want)
		}
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := decode[map[string]any](t, rec)["dashboards"]; got != float64(2) {
		t.Errorf("dashboards = %v, want 2", got)
	}
}

func TestPage(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/d/dashboard-demo", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{
		`id="dashboard-demo"`,
		`id="dashboard-demo-div"`,
		`id="interval-component"`,
		`id="tab-data"`,
		`data-tab="example-data-table"`,
		`<th>Generation (GWh)</th>`,
		`"n_intervals":0`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %s", want)
		}
	}
}

func TestPage_ByTitleAndTab(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/d/Dropdown%20tab%20demo?tab=example-drop-down", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `id="dropdown-selection"`) {
		t.Error("page missing dropdown")
	}
}

func TestPage_Unknown(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		target string
		code   string
	}{
		{"/d/nope", "unknown_dashboard"},
		{"/d/dashboard-demo?tab=nope", "unknown_tab"},
	}
	for _, tt := range tests {
		rec := do(t, s, http.MethodGet, tt.target, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want %d", tt.target, rec.Code, http.StatusNotFound)
			continue
		}
		if got := errorCode(t, rec); got != tt.code {
			t.Errorf("GET %s error = %q, want %q", tt.target, got, tt.code)
		}
	}
}

func TestRender_StoreRoundTrip(t *testing.T) {
	s := newTestServer(t)
	const target = "/d/dashboard-demo/render"

	// Given a first visit to the bar tab
	rec := do(t, s, http.MethodPost, target, renderRequest{Tab: "example-bar-plot", Store: dashboard.NewStore()})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	first := decode[renderResponse](t, rec)
	if !first.Store.Has("example-bar-plot") {
		t.Fatal("store missing rendered tab")
	}
	if !strings.Contains(string(first.HTML), "Example Bar Plot") {
		t.Errorf("html = %q, want tab title", first.HTML)
	}

	// When the page sends the store back with an advanced counter
	rec = do(t, s, http.MethodPost, target, renderRequest{Tab: "example-bar-plot", Store: first.Store, NIntervals: 3})
	second := decode[renderResponse](t, rec)

	// Then the counter follows and the tab is still stored
	if second.Store.NIntervals != 3 {
		t.Errorf("n_intervals = %d, want 3", second.Store.NIntervals)
	}

	// And a stale counter never moves it back
	rec = do(t, s, http.MethodPost, target, renderRequest{Tab: "example-bar-plot", Store: second.Store, NIntervals: 1})
	third := decode[renderResponse](t, rec)
	if third.Store.NIntervals != 3 {
		t.Errorf("n_intervals = %d, want 3", third.Store.NIntervals)
	}
}

func TestRender_Errors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"unknown tab", renderRequest{Tab: "nope"}, http.StatusNotFound, "unknown_tab"},
		{"missing tab", map[string]any{"n_intervals": 1}, http.StatusBadRequest, "bad_request"},
		{"malformed", "{not json", http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/d/dashboard-demo/render", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := errorCode(t, rec); got != tt.code {
				t.Errorf("error = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestRender_LoadFailure(t *testing.T) {
	fsys := fstest.MapFS{"broken.yaml": {Data: []byte(`
title: Broken
tabs:
  - type: table
    label: Missing
    csv_path: missing.csv
`)}}
	cat, err := dashboard.LoadCatalog(fsys, "", dataset.NewCSVLoader(fstest.MapFS{}), nil)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	s, err := New(cat, quickdash.Web, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec := do(t, s, http.MethodPost, "/d/broken/render", renderRequest{Tab: "missing"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if got := errorCode(t, rec); got != "load_failed" {
		t.Errorf("error = %q, want %q", got, "load_failed")
	}
}

func TestTimer(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		tab          string
		wantDisabled bool
	}{
		{"example-bar-plot", false},
		{"example-line-plot", false},
		{"example-data-table", true},
		{"example-scatter-plot", true},
		{"nope", true},
	}
	for _, tt := range tests {
		t.Run(tt.tab, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/d/dashboard-demo/timer?tab="+tt.tab, nil)
			got := decode[timerResponse](t, rec)
			if got.Disabled != tt.wantDisabled {
				t.Errorf("disabled = %v, want %v", got.Disabled, tt.wantDisabled)
			}
			if got.IntervalMS != 15*60*1000 {
				t.Errorf("interval_ms = %d, want %d", got.IntervalMS, 15*60*1000)
			}
		})
	}
}

func TestDropdown(t *testing.T) {
	s := newTestServer(t)
	base := "/d/dropdown-tab-demo/tabs/example-drop-down"

	// Filtering before the tab was ever built has no snapshot to read.
	rec := do(t, s, http.MethodGet, base+"/filter?value=Mexico", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("cold filter status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = do(t, s, http.MethodGet, base+"/options", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("options status = %d, want %d", rec.Code, http.StatusOK)
	}
	opts := decode[map[string][]string](t, rec)["options"]
	if strings.Join(opts, ",") != "Canada,Mexico,Brazil" {
		t.Errorf("options = %v, want [Canada Mexico Brazil]", opts)
	}

	rec = do(t, s, http.MethodGet, base+"/filter?value=Mexico", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("filter status = %d, want %d", rec.Code, http.StatusOK)
	}
	got := decode[filterResponse](t, rec)
	if got.Artifact.Figure.Title != "Example Drop Down: Mexico" {
		t.Errorf("title = %q, want %q", got.Artifact.Figure.Title, "Example Drop Down: Mexico")
	}
	if n := len(got.Artifact.Figure.Series[0].X); n != 7 {
		t.Errorf("points = %d, want 7", n)
	}

	rec = do(t, s, http.MethodGet, "/d/dropdown-tab-demo/tabs/example-data-table/options", nil)
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "not_dropdown" {
		t.Errorf("options on table = %d %s, want 404 not_dropdown", rec.Code, rec.Body.String())
	}
}

func TestStatic(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/static/quickdash.js", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "/timer?tab=") {
		t.Error("script does not poll the timer endpoint")
	}
}

func TestServe_Shutdown(t *testing.T) {
	s := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln, time.Second) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
