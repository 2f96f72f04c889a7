package tui

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

// --- isTTY ---

func TestIsTTY_NonFileWriter(t *testing.T) {
	var buf bytes.Buffer
	if isTTY(&buf) {
		t.Error("non-*os.File writer should not be a TTY")
	}
}

func TestIsTTY_RegularFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "test")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	if isTTY(f) {
		t.Error("regular file should not be a TTY")
	}
}

// --- NewViewer ---

func TestNewViewer_ForcePlainReturnsPlainViewer(t *testing.T) {
	v := NewViewer(newFakeRenderer(time.Minute), ViewOptions{Writer: os.Stdout, ForcePlain: true})
	pv, ok := v.(*PlainViewer)
	if !ok {
		t.Fatalf("NewViewer(ForcePlain) = %T, want *PlainViewer", v)
	}
	if pv.tab != "live" || pv.width != defaultWidth {
		t.Errorf("defaults = %q/%d, want live/%d", pv.tab, pv.width, defaultWidth)
	}
}

func TestNewViewer_NonTTYReturnsPlainViewer(t *testing.T) {
	var buf bytes.Buffer
	if v := NewViewer(newFakeRenderer(time.Minute), ViewOptions{Writer: &buf}); v == nil {
		t.Fatal("NewViewer() = nil")
	} else if _, ok := v.(*PlainViewer); !ok {
		t.Errorf("NewViewer(non-TTY) = %T, want *PlainViewer", v)
	}
}

// --- PlainViewer ---

func TestPlainViewer_StaticTabPrintsOnce(t *testing.T) {
	var buf bytes.Buffer
	r := newFakeRenderer(time.Millisecond)
	v := NewViewer(r, ViewOptions{Writer: &buf, Tab: "static"})

	if err := v.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Test Board › static (tick 0)") || !strings.Contains(out, "row-static") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if n := len(r.recorded()); n != 1 {
		t.Errorf("renders = %d, want 1", n)
	}
}

func TestPlainViewer_OnceStopsDynamicTab(t *testing.T) {
	var buf bytes.Buffer
	r := newFakeRenderer(time.Millisecond)
	if err := NewViewer(r, ViewOptions{Writer: &buf, Once: true}).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n := len(r.recorded()); n != 1 {
		t.Errorf("renders = %d, want 1", n)
	}
}

func TestPlainViewer_DynamicTabRefreshesUntilCancelled(t *testing.T) {
	var buf bytes.Buffer
	r := newFakeRenderer(5 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := NewViewer(r, ViewOptions{Writer: &buf}).Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() error = %v, want deadline exceeded", err)
	}
	calls := r.recorded()
	if len(calls) < 3 {
		t.Fatalf("renders = %d, want at least 3", len(calls))
	}
	for i, c := range calls {
		if c.Tick != i {
			t.Errorf("call %d tick = %d, want %d", i, c.Tick, i)
		}
	}
	if !strings.Contains(buf.String(), "(tick 2)") {
		t.Errorf("output missing tick 2:\n%s", buf.String())
	}
}

func TestPlainViewer_ReturnsRenderError(t *testing.T) {
	r := newFakeRenderer(time.Millisecond)
	r.fail["live"] = true
	var buf bytes.Buffer
	if err := NewViewer(r, ViewOptions{Writer: &buf}).Run(context.Background()); err == nil {
		t.Fatal("Run() should return the render error")
	}
}
