// Package scene owns the live 3D presentation of the viewer: lights, camera,
// orbit controls, the axes indicator and the single current object built
// from a Wavefront mesh document. It never touches the network or timers.
package scene

import (
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"sync"

	"cogentcore.org/core/math32"
	"go.uber.org/zap"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/kernel"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/wavefront"
)

// ErrBootstrapped is returned by a second call to Bootstrap.
var ErrBootstrapped = errors.New("scene: already bootstrapped")

// AxesSize is the length of the axes indicator.
const AxesSize = 10

// Flags select how the current object is presented.
type Flags struct {
	ShowAxes             bool `json:"showAxes"`
	ShowWireframeOverlay bool `json:"showWireframeOverlay"`
	ShowFaces            bool `json:"showFaces"`
}

// DefaultFlags shows solid faces only.
func DefaultFlags() Flags {
	return Flags{ShowFaces: true}
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Graph) { g.logger = l }
}

// WithBackground sets the clear colour.
func WithBackground(c color.RGBA) Option {
	return func(g *Graph) { g.background = c }
}

// Graph is the scene. Mutating methods are meant to be called from a single
// event loop; Snapshot may be called from any goroutine.
type Graph struct {
	mu sync.RWMutex

	root       *Node
	axes       *Node
	lights     []*Node
	camera     Camera
	controls   Controls
	background color.RGBA

	current      *Object
	flags        Flags
	bootstrapped bool
	nextID       NodeID

	logger *zap.Logger
}

// New builds a scene with its persistent lights, camera and axes.
func New(opts ...Option) *Graph {
	g := &Graph{
		background: BackgroundColor,
		flags:      DefaultFlags(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(zap.String("component", "scene"))

	g.root = &Node{ID: g.newID(), Kind: NodeGroup, Name: "scene", Data: &GroupData{}}
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	g.lights = []*Node{
		g.light("ambient", &LightData{Kind: LightAmbient, Color: white, Intensity: 0.02}),
		g.light("front", &LightData{Kind: LightPoint, Color: white, Intensity: 0.95, Position: math32.Vec3(2.5, 7.5, 15)}),
		g.light("back", &LightData{Kind: LightHemisphere, Color: white, Intensity: 0.9, Position: math32.Vec3(-2.5, -7.5, -30)}),
	}
	for _, l := range g.lights {
		g.root.Add(l)
	}
	g.axes = &Node{ID: g.newID(), Kind: NodeAxes, Name: "axes", Data: &AxesData{Size: AxesSize}}
	g.camera = defaultCamera()
	g.controls = defaultControls()
	return g
}

func (g *Graph) newID() NodeID {
	g.nextID++
	return g.nextID
}

func (g *Graph) light(name string, d *LightData) *Node {
	return &Node{ID: g.newID(), Kind: NodeLight, Name: name, Data: d}
}

// Bootstrap loads the initial object from a static OBJ file in fsys and
// returns its document. It may succeed only once.
func (g *Graph) Bootstrap(fsys fs.FS, name string) (wavefront.Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.bootstrapped {
		return wavefront.Document{}, ErrBootstrapped
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return wavefront.Document{}, fmt.Errorf("scene: bootstrap %s: %w", name, err)
	}
	g.bootstrapped = true

	doc := wavefront.NewDocument(string(data))
	g.install(doc)
	g.logger.Info("bootstrapped", zap.String("file", name), zap.Int("bytes", doc.Len()))
	return doc, nil
}

// ReplaceCurrentMesh decodes doc into a new object and makes it the only
// attached object. The previous object is removed before the new one is
// inserted. Identical documents are not deduplicated.
func (g *Graph) ReplaceCurrentMesh(doc wavefront.Document) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.install(doc)
	g.controls.RotateSpeed = ReplacedRotateSpeed
}

func (g *Graph) install(doc wavefront.Document) {
	obj := newObject(doc, g.newID)
	if w := obj.Warnings(); len(w) > 0 {
		g.logger.Debug("mesh document warnings", zap.Int("count", len(w)), zap.Strings("warnings", w))
	}

	if g.current != nil {
		g.root.Remove(g.current.root)
	}
	g.root.Add(obj.root)
	g.current = obj

	if !obj.buildOverlay(g.newID()) {
		g.logger.Debug("object has no geometry child")
	}
	g.applyFlags()
}

// ApplyVisualizationFlags re-derives the presentation of the current object
// and the axes indicator. Geometry is never altered.
func (g *Graph) ApplyVisualizationFlags(flags Flags) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.flags = flags
	g.applyFlags()
}

func (g *Graph) applyFlags() {
	if g.flags.ShowAxes {
		g.root.Add(g.axes)
	} else {
		g.root.Remove(g.axes)
	}

	obj := g.current
	if obj == nil {
		return
	}
	if _, ok := obj.Geometry(); !ok {
		return
	}
	if !g.flags.ShowFaces {
		g.setMaterial(obj, WireframeMaterial())
		obj.DetachOverlay()
		return
	}
	g.setMaterial(obj, SolidMaterial())
	if g.flags.ShowWireframeOverlay {
		obj.AttachOverlay()
	} else {
		obj.DetachOverlay()
	}
}

func (g *Graph) setMaterial(obj *Object, mat Material) {
	if err := obj.SetMaterial(mat); err != nil {
		g.logger.Warn("material not applied to every mesh",
			zap.Stringer("material", mat.Kind), zap.Error(err))
	}
}

// ResetCamera restores the camera and orbit controls to their defaults.
func (g *Graph) ResetCamera() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.camera = defaultCamera()
	g.controls = defaultControls()
}

// Current returns the current object, or nil before the first load.
func (g *Graph) Current() *Object {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

// Flags returns the flags last applied.
func (g *Graph) Flags() Flags {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.flags
}

// AttachedObjects counts the loaded objects attached to the scene root.
func (g *Graph) AttachedObjects() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, c := range g.root.Children {
		if d, ok := c.Data.(*GroupData); ok && d.Object {
			n++
		}
	}
	return n
}

// View is the renderable content of the current object.
type View struct {
	Mesh     *kernel.Mesh
	Material Material
	// Edges holds segment endpoint pairs; nil while the overlay is hidden.
	Edges []float32
}

// View returns the current object's geometry. It reports false when there
// is no object or the object has no geometry.
func (g *Graph) View() (View, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.current == nil {
		return View{}, false
	}
	m, ok := g.current.Geometry()
	if !ok {
		return View{}, false
	}
	mat, _ := g.current.Material()
	return View{Mesh: m, Material: mat, Edges: g.current.overlayPositions()}, true
}

// Snapshot is a read-only projection of the scene for render surfaces.
type Snapshot struct {
	Attached   []string   `json:"attached"`
	Objects    int        `json:"objects"`
	Material   string     `json:"material,omitempty"`
	Triangles  int        `json:"triangles"`
	Edges      int        `json:"edges"`
	Overlay    bool       `json:"overlay"`
	Axes       bool       `json:"axes"`
	Camera     Camera     `json:"camera"`
	Controls   Controls   `json:"controls"`
	Background color.RGBA `json:"background"`
}

// Snapshot captures the current scene state.
func (g *Graph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := Snapshot{
		Camera:     g.camera,
		Controls:   g.controls,
		Background: g.background,
		Axes:       g.root.Has(g.axes),
	}
	for _, c := range g.root.Children {
		s.Attached = append(s.Attached, fmt.Sprintf("%s#%d", c.Kind, c.ID))
		if d, ok := c.Data.(*GroupData); ok && d.Object {
			s.Objects++
		}
	}
	if obj := g.current; obj != nil {
		var err error
		s.Triangles, s.Edges, err = obj.Stats()
		if err != nil {
			g.logger.Warn("snapshot stats incomplete", zap.Error(err))
		}
		s.Overlay = obj.OverlayAttached()
		if m, ok := obj.Material(); ok {
			s.Material = m.Kind.String()
		}
	}
	return s
}
