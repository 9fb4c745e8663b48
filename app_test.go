package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/config"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/kernel/sdfx"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/meshserver"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/scene"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/viewer"
)

// recorder captures events emitted to the frontend.
type recorder struct {
	mu     sync.Mutex
	events map[string][]any
}

func (r *recorder) emit(event string, data ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = make(map[string][]any)
	}
	var v any
	if len(data) > 0 {
		v = data[0]
	}
	r.events[event] = append(r.events[event], v)
}

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events[event])
}

func (r *recorder) last(event string) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	evs := r.events[event]
	if len(evs) == 0 {
		return nil
	}
	return evs[len(evs)-1]
}

// testApp is an App wired to a real meshing service on a test server.
type testApp struct {
	*App
	rec      *recorder
	requests *int32
}

func newTestApp(t *testing.T, mutate func(*config.Config)) *testApp {
	t.Helper()

	k := sdfx.New(sdfx.Options{MarchingCubesCells: 16, DualContourCells: 8})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := meshserver.NewHandler(ctx, meshserver.New(k), config.Default().Server)

	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Viewer.Endpoint = srv.URL + meshserver.MeshingPath
	cfg.Viewer.FormulaDelay = 50 * time.Millisecond
	cfg.Viewer.LimitsDelay = 50 * time.Millisecond
	cfg.Viewer.RequestTimeout = 10 * time.Second
	cfg.Viewer.FrameRate = 0
	if mutate != nil {
		mutate(cfg)
	}

	rec := &recorder{}
	app := NewApp(cfg, zap.NewNop())
	app.emit = rec.emit
	return &testApp{App: app, rec: rec, requests: &requests}
}

func (a *testApp) start(t *testing.T) {
	t.Helper()
	if err := a.App.start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { a.shutdown(context.Background()) })
}

func (a *testApp) Requests() int { return int(atomic.LoadInt32(a.requests)) }

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// settled waits until no request is in flight.
func (a *testApp) settled(t *testing.T) viewer.State {
	t.Helper()
	var s viewer.State
	waitFor(t, "request to complete", func() bool {
		s = a.State()
		return !s.IsLoading
	})
	return s
}

// TestE2EBootstrap checks that startup shows the bootstrap sphere without
// contacting the service.
func TestE2EBootstrap(t *testing.T) {
	app := newTestApp(t, nil)
	app.start(t)

	m := app.Mesh()
	if got := len(m.Indices) / 3; got != 320 {
		t.Fatalf("bootstrap mesh has %d triangles, want 320", got)
	}
	if m.Material.Kind != scene.MaterialSolid {
		t.Errorf("material = %s, want solid", m.Material.Kind)
	}
	if app.rec.count(EventState) == 0 {
		t.Error("no state event emitted")
	}
	if app.rec.count(EventMesh) != 1 {
		t.Errorf("mesh events = %d, want 1", app.rec.count(EventMesh))
	}
	if app.Requests() != 0 {
		t.Errorf("bootstrap made %d requests", app.Requests())
	}
}

// TestE2EChooseExample runs the full path: binding → controller → HTTP →
// meshing service → scene.
func TestE2EChooseExample(t *testing.T) {
	app := newTestApp(t, nil)
	app.start(t)
	boot := app.State().CurrentMeshText

	if err := app.ChooseExample("Torus"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "torus mesh", func() bool {
		s := app.State()
		return !s.IsLoading && s.CurrentMeshText != boot
	})

	s := app.State()
	if !strings.Contains(s.CurrentMeshText, "\nf ") {
		t.Error("mesh text has no faces")
	}
	if app.Requests() != 1 {
		t.Errorf("requests = %d, want 1", app.Requests())
	}
	if len(app.Mesh().Indices) == 0 {
		t.Error("scene has no geometry after replacement")
	}
	if app.rec.count(EventMesh) < 2 {
		t.Error("no mesh event after replacement")
	}
}

// TestE2EFormulaEditsCoalesce checks that a burst of keystrokes costs one
// request carrying the last text.
func TestE2EFormulaEditsCoalesce(t *testing.T) {
	app := newTestApp(t, nil)
	app.start(t)
	boot := app.State().CurrentMeshText

	for _, text := range []string{"x", "x*x", "x*x+y*y", "x*x+y*y+z*z-9"} {
		app.SetFormula(text)
	}
	waitFor(t, "new mesh", func() bool {
		s := app.State()
		return !s.IsLoading && s.CurrentMeshText != boot
	})

	if app.Requests() != 1 {
		t.Errorf("requests = %d, want 1", app.Requests())
	}
	if got := app.State().Formula; got != "x*x+y*y+z*z-9" {
		t.Errorf("formula = %q", got)
	}
}

// TestE2EInvalidFormula checks that a rejected formula leaves the scene as
// it was.
func TestE2EInvalidFormula(t *testing.T) {
	app := newTestApp(t, nil)
	app.start(t)
	boot := app.State().CurrentMeshText

	app.SetFormula("bad$$expr")
	waitFor(t, "request", func() bool { return app.Requests() == 1 })
	s := app.settled(t)

	if s.CurrentMeshText != boot {
		t.Error("rejected formula replaced the mesh")
	}
	if s.Formula != "bad$$expr" {
		t.Errorf("formula = %q, want the typed text kept", s.Formula)
	}
	if got := len(app.Mesh().Indices) / 3; got != 320 {
		t.Errorf("scene has %d triangles, want the bootstrap 320", got)
	}
}

// TestE2EAlgorithmClampsLimits checks the dual contouring limit.
func TestE2EAlgorithmClampsLimits(t *testing.T) {
	app := newTestApp(t, nil)
	app.start(t)

	app.SetLimits(25)
	waitFor(t, "limits request", func() bool { return app.Requests() == 1 })
	app.settled(t)

	if err := app.SetAlgorithm("dual_contour"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "algorithm request", func() bool { return app.Requests() == 2 })
	s := app.settled(t)

	if s.Limits != 10 || s.MaxLimits != 10 {
		t.Errorf("limits = %d (max %d), want 10 (max 10)", s.Limits, s.MaxLimits)
	}
	if s.Algorithm.String() != "dual_contour" {
		t.Errorf("algorithm = %s", s.Algorithm)
	}
}

// TestE2EToggleFaces checks that rendering toggles never reach the service.
func TestE2EToggleFaces(t *testing.T) {
	app := newTestApp(t, nil)
	app.start(t)
	before := app.rec.count(EventMesh)

	app.ToggleFaces()
	waitFor(t, "wireframe", func() bool { return app.Mesh().Material.Kind == scene.MaterialWireframe })

	if app.State().Flags.ShowFaces {
		t.Error("faces still shown")
	}
	if len(app.Mesh().Edges) != 0 {
		t.Error("edge overlay shown without faces")
	}
	waitFor(t, "mesh event", func() bool { return app.rec.count(EventMesh) > before })

	app.ToggleFaces()
	waitFor(t, "solid", func() bool { return app.Mesh().Material.Kind == scene.MaterialSolid })
	if app.Requests() != 0 {
		t.Errorf("toggles made %d requests", app.Requests())
	}
}

// TestE2EExportMesh writes the current mesh through the save dialog.
func TestE2EExportMesh(t *testing.T) {
	app := newTestApp(t, nil)
	app.start(t)

	dir := t.TempDir()
	var opts runtime.SaveDialogOptions
	app.saveFile = func(o runtime.SaveDialogOptions) (string, error) {
		opts = o
		return filepath.Join(dir, o.DefaultFilename), nil
	}

	path, err := app.ExportMesh()
	if err != nil {
		t.Fatal(err)
	}
	if opts.DefaultFilename != ExportFilename {
		t.Errorf("default filename = %q", opts.DefaultFilename)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != app.State().CurrentMeshText {
		t.Error("exported file differs from the current mesh text")
	}
}
