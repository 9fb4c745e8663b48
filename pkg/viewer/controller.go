// Package viewer is the single source of truth for the generation
// parameters, the visualization flags and the in-flight guard. It turns UI
// events into debounced regeneration requests and applies their results to
// the scene.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/coalesce"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/meshclient"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/params"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/scene"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/wavefront"
)

// MeshRequester fetches a mesh document for a set of parameters.
type MeshRequester interface {
	RequestMesh(ctx context.Context, p params.Generation) (wavefront.Document, error)
}

// Loop is the event loop the controller runs on.
type Loop interface {
	Post(f func()) bool
	Do(f func()) error
}

// Config holds the controller tunables.
type Config struct {
	FormulaDelay   time.Duration
	LimitsDelay    time.Duration
	RequestTimeout time.Duration
	Initial        params.Generation
	Flags          scene.Flags
}

// DefaultConfig returns the stock debounce delays and initial state.
func DefaultConfig() Config {
	return Config{
		FormulaDelay:   coalesce.FormulaDelay,
		LimitsDelay:    coalesce.LimitsDelay,
		RequestTimeout: meshclient.DefaultTimeout,
		Initial:        params.Default(),
		Flags:          scene.DefaultFlags(),
	}
}

// State is the read-only projection rendered by the UI.
type State struct {
	Formula         string           `json:"formula"`
	Limits          int              `json:"limits"`
	MaxLimits       int              `json:"maxLimits"`
	Algorithm       params.Algorithm `json:"algorithm"`
	Flags           scene.Flags      `json:"flags"`
	IsLoading       bool             `json:"isLoading"`
	CurrentMeshText string           `json:"-"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock replaces the debounce clock.
func WithClock(clock coalesce.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithContext sets the parent context of mesh requests.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) { c.ctx = ctx }
}

// Controller orchestrates the coalescer, the mesh client and the scene.
// Every field below the mutex is owned by the event loop.
type Controller struct {
	cfg    Config
	client MeshRequester
	graph  *scene.Graph
	loop   Loop
	clock  coalesce.Clock
	ctx    context.Context
	logger *zap.Logger

	state atomic.Pointer[State]

	listenersMu sync.Mutex
	listeners   []func(State)

	coalescer *coalesce.Coalescer
	params    params.Generation
	flags     scene.Flags
	inFlight  bool
	doc       wavefront.Document
}

// New creates a controller. Handlers may be called from any goroutine; they
// run on loop.
func New(cfg Config, client MeshRequester, graph *scene.Graph, loop Loop, opts ...Option) *Controller {
	c := &Controller{
		cfg:    cfg,
		client: client,
		graph:  graph,
		loop:   loop,
		ctx:    context.Background(),
		logger: zap.NewNop(),
		params: cfg.Initial,
		flags:  cfg.Flags,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "viewer"))
	c.coalescer = coalesce.New(c.clock, loop, c.submit)
	c.publish()
	return c
}

// Bootstrap loads the static mesh shown before the first regeneration and
// applies the initial flags.
func (c *Controller) Bootstrap(fsys fs.FS, name string) error {
	var err error
	if derr := c.loop.Do(func() {
		var doc wavefront.Document
		doc, err = c.graph.Bootstrap(fsys, name)
		if err != nil {
			return
		}
		c.doc = doc
		c.graph.ApplyVisualizationFlags(c.flags)
		c.publish()
	}); derr != nil {
		return derr
	}
	return err
}

// ---------------------------------------------------------------------------
// Regeneration
// ---------------------------------------------------------------------------

// submit starts a regeneration unless one is already running. Fields set in
// override win over the stored parameters.
func (c *Controller) submit(override params.Override) {
	if c.inFlight {
		c.logger.Debug("submission dropped, request in flight")
		return
	}
	c.inFlight = true
	p := override.Apply(c.params)
	c.publish()

	c.logger.Info("requesting mesh",
		zap.String("formula", p.Formula),
		zap.Int("limits", p.Limits),
		zap.Stringer("algorithm", p.Algorithm),
	)

	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.cfg.RequestTimeout)
		start := time.Now()
		doc, err := c.client.RequestMesh(ctx, p)
		cancel()
		elapsed := time.Since(start)
		if !c.loop.Post(func() { c.complete(p, doc, err, elapsed) }) {
			c.logger.Debug("loop stopped, mesh result discarded")
		}
	}()
}

// complete handles a finished request on the loop. The result is applied
// even if parameters changed since it was dispatched.
func (c *Controller) complete(p params.Generation, doc wavefront.Document, err error, elapsed time.Duration) {
	c.inFlight = false
	defer c.publish()

	if err != nil {
		fields := []zap.Field{zap.Error(err), zap.String("formula", p.Formula), zap.Duration("elapsed", elapsed)}
		if errors.Is(err, meshclient.ErrUnprocessable) {
			c.logger.Warn("mesh request rejected", fields...)
		} else {
			c.logger.Error("mesh request failed", fields...)
		}
		return
	}

	c.doc = doc
	c.graph.ReplaceCurrentMesh(doc)
	c.logger.Info("mesh replaced", zap.Int("bytes", doc.Len()), zap.Duration("elapsed", elapsed))
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

// OnFormulaEdited stores text and submits it once typing pauses.
func (c *Controller) OnFormulaEdited(text string) {
	c.loop.Post(func() {
		c.params.Formula = text
		c.coalescer.Schedule(coalesce.ChannelFormula, params.WithFormula(text), c.cfg.FormulaDelay)
		c.publish()
	})
}

// OnLimitsDragged stores value, clamped to the current algorithm's range,
// and submits it once dragging pauses.
func (c *Controller) OnLimitsDragged(value int) {
	c.loop.Post(func() {
		value = params.BoundLimits(c.params.Algorithm, value)
		c.params.Limits = value
		c.coalescer.Schedule(coalesce.ChannelLimits, params.WithLimits(value), c.cfg.LimitsDelay)
		c.publish()
	})
}

// OnAlgorithmChanged stores a, lowers the limits to its maximum if needed and
// submits immediately. A pending limits edit is already part of the stored
// parameters, so its timer is cancelled.
func (c *Controller) OnAlgorithmChanged(a params.Algorithm) {
	c.loop.Post(func() {
		c.params.Algorithm = a
		c.params = c.params.ClampLimits()
		c.coalescer.Cancel(coalesce.ChannelLimits)
		c.publish()
		c.submit(params.WithAlgorithm(a, c.params.Limits))
	})
}

// OnExampleChosen stores text as the formula and submits immediately. A
// pending typed formula is discarded.
func (c *Controller) OnExampleChosen(text string) {
	c.loop.Post(func() {
		c.params.Formula = text
		c.coalescer.Cancel(coalesce.ChannelFormula)
		c.publish()
		c.submit(params.WithFormula(text))
	})
}

// OnToggleAxes flips the axes indicator.
func (c *Controller) OnToggleAxes() {
	c.toggle(func(f *scene.Flags) { f.ShowAxes = !f.ShowAxes })
}

// OnToggleWireframe flips the edge overlay.
func (c *Controller) OnToggleWireframe() {
	c.toggle(func(f *scene.Flags) { f.ShowWireframeOverlay = !f.ShowWireframeOverlay })
}

// OnToggleFaces flips between solid and wireframe-only rendering.
func (c *Controller) OnToggleFaces() {
	c.toggle(func(f *scene.Flags) { f.ShowFaces = !f.ShowFaces })
}

func (c *Controller) toggle(flip func(*scene.Flags)) {
	c.loop.Post(func() {
		flip(&c.flags)
		c.graph.ApplyVisualizationFlags(c.flags)
		c.publish()
	})
}

// ResetCamera restores the default view.
func (c *Controller) ResetCamera() {
	c.loop.Post(c.graph.ResetCamera)
}

// ---------------------------------------------------------------------------
// Projection
// ---------------------------------------------------------------------------

// State returns the latest published state.
func (c *Controller) State() State {
	return *c.state.Load()
}

// ExportMesh writes the current mesh text to w.
func (c *Controller) ExportMesh(w io.Writer) error {
	text := c.State().CurrentMeshText
	if text == "" {
		return fmt.Errorf("viewer: no mesh loaded")
	}
	_, err := io.WriteString(w, text)
	return err
}

// Subscribe registers f to be called on the loop after every state change.
func (c *Controller) Subscribe(f func(State)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, f)
}

// publish snapshots the loop-owned fields and notifies subscribers.
func (c *Controller) publish() {
	s := State{
		Formula:         c.params.Formula,
		Limits:          c.params.Limits,
		MaxLimits:       params.MaxLimits(c.params.Algorithm),
		Algorithm:       c.params.Algorithm,
		Flags:           c.flags,
		IsLoading:       c.inFlight,
		CurrentMeshText: c.doc.Text(),
	}
	c.state.Store(&s)

	c.listenersMu.Lock()
	listeners := append([]func(State){}, c.listeners...)
	c.listenersMu.Unlock()
	for _, f := range listeners {
		f(s)
	}
}
