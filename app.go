package main

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"github.com/eckfel/Implicit-Surface-Visualizer/assets"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/config"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/eventloop"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/meshclient"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/params"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/scene"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/viewer"
)

// Events emitted to the frontend.
const (
	EventState = "state"
	EventMesh  = "mesh"
	EventFrame = "frame"
)

// ExportFilename is the suggested name of an exported mesh.
const ExportFilename = "model.obj"

// App is the Wails backend. It exposes the viewer controller to the
// frontend via bindings and pushes state, mesh and frame events back.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
	logger *zap.Logger
	client viewer.MeshRequester

	loop       *eventloop.Loop
	graph      *scene.Graph
	controller *viewer.Controller

	emit     func(event string, data ...any)
	saveFile func(opts runtime.SaveDialogOptions) (string, error)

	// Owned by the loop.
	lastMesh  string
	lastFlags scene.Flags
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices  []float32      `json:"vertices"`
	Normals   []float32      `json:"normals"`
	Indices   []uint32       `json:"indices"`
	Name      string         `json:"name"`
	Color     string         `json:"color"`
	Material  scene.Material `json:"material"`
	Edges     []float32      `json:"edges"`
	EdgeColor string         `json:"edgeColor"`
}

// NewApp creates an App talking to the configured meshing endpoint.
func NewApp(cfg *config.Config, logger *zap.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		client: meshclient.New(cfg.Viewer.Endpoint,
			meshclient.WithLogger(logger),
			meshclient.WithUserAgent("isoviz-desktop/"+Version),
		),
		emit:     func(string, ...any) {},
		saveFile: func(runtime.SaveDialogOptions) (string, error) { return "", nil },
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.emit = func(event string, data ...any) { runtime.EventsEmit(ctx, event, data...) }
	a.saveFile = func(opts runtime.SaveDialogOptions) (string, error) {
		return runtime.SaveFileDialog(ctx, opts)
	}
	if err := a.start(ctx); err != nil {
		a.logger.Error("viewer startup failed", zap.Error(err))
	}
}

// shutdown is called by Wails when the window closes.
func (a *App) shutdown(context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
}

// start builds the event loop, scene and controller and shows the
// bootstrap mesh.
func (a *App) start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	a.loop = eventloop.New()
	go func() { _ = a.loop.Run(ctx) }()

	a.graph = scene.New(scene.WithLogger(a.logger))

	vcfg := viewer.DefaultConfig()
	vcfg.FormulaDelay = a.cfg.Viewer.FormulaDelay
	vcfg.LimitsDelay = a.cfg.Viewer.LimitsDelay
	vcfg.RequestTimeout = a.cfg.Viewer.RequestTimeout
	a.lastFlags = vcfg.Flags

	a.controller = viewer.New(vcfg, a.client, a.graph, a.loop,
		viewer.WithLogger(a.logger),
		viewer.WithContext(ctx),
	)
	a.controller.Subscribe(a.onState)

	if err := a.controller.Bootstrap(assets.FS, a.cfg.Viewer.BootstrapFile); err != nil {
		return fmt.Errorf("bootstrap %s: %w", a.cfg.Viewer.BootstrapFile, err)
	}

	if fr := a.cfg.Viewer.FrameRate; fr > 0 {
		go a.loop.Every(ctx, time.Second/time.Duration(fr), a.frame)
	}
	return nil
}

// onState runs on the loop after every controller state change.
func (a *App) onState(s viewer.State) {
	a.emit(EventState, s)
	if s.CurrentMeshText != a.lastMesh || s.Flags != a.lastFlags {
		a.lastMesh, a.lastFlags = s.CurrentMeshText, s.Flags
		a.emit(EventMesh, a.Mesh())
	}
}

func (a *App) frame() {
	a.emit(EventFrame, a.graph.Snapshot())
}

// ---------------------------------------------------------------------------
// Bindings
// ---------------------------------------------------------------------------

// State returns the parameters, flags and loading indicator.
func (a *App) State() viewer.State {
	return a.controller.State()
}

// Examples lists the predefined surfaces.
func (a *App) Examples() []params.Example {
	return params.Examples
}

// Mesh returns the current geometry. It is empty before any mesh is shown.
func (a *App) Mesh() MeshData {
	v, ok := a.graph.View()
	if !ok {
		return MeshData{Vertices: []float32{}, Normals: []float32{}, Indices: []uint32{}, Edges: []float32{}}
	}
	edges := v.Edges
	if edges == nil {
		edges = []float32{}
	}
	return MeshData{
		Vertices:  v.Mesh.Vertices,
		Normals:   v.Mesh.Normals,
		Indices:   v.Mesh.Indices,
		Name:      v.Mesh.Name,
		Color:     hexColor(v.Material.Color),
		Material:  v.Material,
		Edges:     edges,
		EdgeColor: hexColor(scene.ContrastColor),
	}
}

// SetFormula is called on every keystroke in the formula field.
func (a *App) SetFormula(text string) {
	a.controller.OnFormulaEdited(text)
}

// SetLimits is called while the limits slider moves.
func (a *App) SetLimits(value int) {
	a.controller.OnLimitsDragged(value)
}

// SetAlgorithm selects the meshing algorithm by wire name.
func (a *App) SetAlgorithm(name string) error {
	alg, err := params.ParseAlgorithm(name)
	if err != nil {
		return err
	}
	a.controller.OnAlgorithmChanged(alg)
	return nil
}

// ChooseExample loads a predefined surface by name.
func (a *App) ChooseExample(name string) error {
	ex, ok := params.LookupExample(name)
	if !ok {
		return fmt.Errorf("unknown example %q", name)
	}
	a.controller.OnExampleChosen(ex.Formula)
	return nil
}

// ToggleAxes flips the axes indicator.
func (a *App) ToggleAxes() { a.controller.OnToggleAxes() }

// ToggleWireframe flips the edge overlay.
func (a *App) ToggleWireframe() { a.controller.OnToggleWireframe() }

// ToggleFaces flips between solid and wireframe-only rendering.
func (a *App) ToggleFaces() { a.controller.OnToggleFaces() }

// ResetCamera restores the default view.
func (a *App) ResetCamera() { a.controller.ResetCamera() }

// ExportMesh asks for a destination and writes the current mesh there. It
// returns the chosen path, or "" if the dialog was cancelled.
func (a *App) ExportMesh() (string, error) {
	path, err := a.saveFile(runtime.SaveDialogOptions{
		Title:           "Export mesh",
		DefaultFilename: ExportFilename,
		Filters: []runtime.FileFilter{
			{DisplayName: "Wavefront OBJ (*.obj)", Pattern: "*.obj"},
		},
	})
	if err != nil || path == "" {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := a.controller.ExportMesh(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	a.logger.Info("mesh exported", zap.String("path", path))
	return path, nil
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
