package viewer

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eckfel/Implicit-Surface-Visualizer/assets"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/coalesce/coalescetest"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/eventloop"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/meshclient"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/params"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/scene"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/wavefront"
)

const tetra = `o tetra
v 0 0 0
v 1 0 0
v 0 1 0
v 0 0 1
f 1 3 2
f 1 2 4
f 1 4 3
f 2 3 4
`

// fakeClient records requests. When gate is set, each request blocks until
// a value is received from it.
type fakeClient struct {
	mu    sync.Mutex
	calls []params.Generation
	doc   wavefront.Document
	err   error
	gate  chan struct{}
}

func (f *fakeClient) RequestMesh(ctx context.Context, p params.Generation) (wavefront.Document, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	gate, doc, err := f.gate, f.doc, f.err
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return doc, err
}

func (f *fakeClient) Calls() []params.Generation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]params.Generation(nil), f.calls...)
}

type harness struct {
	t      *testing.T
	loop   *eventloop.Loop
	clock  *coalescetest.Clock
	graph  *scene.Graph
	client *fakeClient
	ctrl   *Controller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	loop := eventloop.New()
	go loop.Run(ctx)
	t.Cleanup(cancel)

	h := &harness{
		t:      t,
		loop:   loop,
		clock:  coalescetest.NewClock(),
		graph:  scene.New(),
		client: &fakeClient{doc: wavefront.NewDocument(tetra)},
	}
	h.ctrl = New(DefaultConfig(), h.client, h.graph, loop, WithClock(h.clock))
	require.NoError(t, h.ctrl.Bootstrap(assets.FS, assets.BootstrapMesh))
	return h
}

// flush waits until everything posted so far has run.
func (h *harness) flush() {
	h.t.Helper()
	require.NoError(h.t, h.loop.Do(func() {}))
}

// advance moves the debounce clock and lets the fired timers run.
func (h *harness) advance(d time.Duration) {
	h.flush()
	h.clock.Advance(d)
	h.flush()
}

// settle waits for the outstanding request to complete.
func (h *harness) settle() {
	h.t.Helper()
	h.flush()
	require.Eventually(h.t, func() bool { return !h.ctrl.State().IsLoading }, time.Second, time.Millisecond)
	h.flush()
}

// ---------------------------------------------------------------------------
// Debounce
// ---------------------------------------------------------------------------

func TestFormulaBurstSubmitsLastEdit(t *testing.T) {
	h := newHarness(t)

	for _, text := range []string{"x", "x*", "x*x", "x*x-1"} {
		h.ctrl.OnFormulaEdited(text)
		h.advance(500 * time.Millisecond)
	}
	h.flush()
	assert.Empty(t, h.client.Calls(), "no submission inside the quiet period")
	assert.Equal(t, "x*x-1", h.ctrl.State().Formula, "stored on every keystroke")

	h.advance(time.Second)
	h.settle()

	calls := h.client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "x*x-1", calls[0].Formula)
	assert.Equal(t, 0, h.clock.Armed())
}

func TestChannelsIndependent(t *testing.T) {
	h := newHarness(t)

	h.ctrl.OnFormulaEdited("x+y")
	h.ctrl.OnLimitsDragged(20)
	h.flush()
	h.advance(time.Second)
	h.settle()

	calls := h.client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 20, calls[0].Limits)
	assert.Equal(t, "x+y", calls[0].Formula, "stored formula resolved at submission time")

	h.advance(time.Second)
	h.settle()
	calls = h.client.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "x+y", calls[1].Formula)
}

func TestExampleSubmitsWithoutDelay(t *testing.T) {
	h := newHarness(t)

	h.ctrl.OnExampleChosen("x*x+y*y+z*z-30")
	h.settle()
	calls := h.client.Calls()
	require.Len(t, calls, 1, "example submits without any clock advance")
	assert.Equal(t, "x*x+y*y+z*z-30", calls[0].Formula)

	h.ctrl.OnFormulaEdited("x*x+y*y+z*z-30")
	h.flush()
	assert.Len(t, h.client.Calls(), 1, "typing waits for the quiet period")
	h.advance(1500 * time.Millisecond)
	h.settle()
	assert.Len(t, h.client.Calls(), 2)
}

func TestExampleCancelsTypedFormula(t *testing.T) {
	h := newHarness(t)

	h.ctrl.OnFormulaEdited("x+")
	h.ctrl.OnExampleChosen("x^2+y^2-z^2")
	h.settle()
	h.advance(2 * time.Second)
	h.settle()

	calls := h.client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "x^2+y^2-z^2", calls[0].Formula)
}

// ---------------------------------------------------------------------------
// In-flight guard
// ---------------------------------------------------------------------------

func TestSubmissionsDroppedWhileInFlight(t *testing.T) {
	h := newHarness(t)
	gate := make(chan struct{})
	h.client.gate = gate

	h.ctrl.OnExampleChosen("x+y+z")
	require.Eventually(t, func() bool { return len(h.client.Calls()) == 1 }, time.Second, time.Millisecond)
	before := h.ctrl.State()
	assert.True(t, before.IsLoading)

	h.ctrl.OnAlgorithmChanged(params.MarchingCubes)
	h.ctrl.OnFormulaEdited("x-y")
	h.advance(2 * time.Second)
	assert.Len(t, h.client.Calls(), 1, "no second request while one is running")
	assert.True(t, h.ctrl.State().IsLoading)

	close(gate)
	h.settle()
	assert.Len(t, h.client.Calls(), 1, "dropped submissions are not queued")

	// Once the guard clears, edits submit normally.
	h.ctrl.OnExampleChosen("x")
	h.settle()
	assert.Len(t, h.client.Calls(), 2)
}

// ---------------------------------------------------------------------------
// Algorithm and limits
// ---------------------------------------------------------------------------

func TestAlgorithmChangeClampsLimits(t *testing.T) {
	h := newHarness(t)

	h.ctrl.OnLimitsDragged(25)
	h.advance(time.Second)
	h.settle()
	require.Len(t, h.client.Calls(), 1)

	h.ctrl.OnAlgorithmChanged(params.DualContour)
	h.settle()
	calls := h.client.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, params.DualContour, calls[1].Algorithm)
	assert.Equal(t, 10, calls[1].Limits)
	assert.Equal(t, 10, h.ctrl.State().Limits)
	assert.Equal(t, 10, h.ctrl.State().MaxLimits)

	h.ctrl.OnAlgorithmChanged(params.MarchingCubes)
	h.settle()
	calls = h.client.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, params.MarchingCubes, calls[2].Algorithm)
	assert.Equal(t, 10, calls[2].Limits, "switching back never raises limits")
	assert.Equal(t, 40, h.ctrl.State().MaxLimits)
}

func TestLimitsDragClampedToAlgorithmRange(t *testing.T) {
	h := newHarness(t)

	h.ctrl.OnAlgorithmChanged(params.DualContour)
	h.settle()
	require.Len(t, h.client.Calls(), 1)

	h.ctrl.OnLimitsDragged(25)
	h.flush()
	assert.Equal(t, 10, h.ctrl.State().Limits)
	h.advance(time.Second)
	h.settle()

	h.ctrl.OnLimitsDragged(0)
	h.flush()
	assert.Equal(t, params.MinLimits, h.ctrl.State().Limits)
	h.advance(time.Second)
	h.settle()

	calls := h.client.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, 10, calls[1].Limits)
	assert.Equal(t, params.MinLimits, calls[2].Limits)
	for _, c := range calls {
		assert.NoError(t, c.Validate())
	}
	assert.Equal(t, 10, h.ctrl.State().MaxLimits)
}

func TestAlgorithmChangeCancelsPendingLimits(t *testing.T) {
	h := newHarness(t)

	h.ctrl.OnLimitsDragged(30)
	h.ctrl.OnAlgorithmChanged(params.DualContour)
	h.settle()
	h.advance(2 * time.Second)
	h.settle()

	calls := h.client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 10, calls[0].Limits)
}

// ---------------------------------------------------------------------------
// Results
// ---------------------------------------------------------------------------

func TestSuccessReplacesMesh(t *testing.T) {
	h := newHarness(t)
	boot := h.graph.Current()

	for i := 0; i < 3; i++ {
		h.ctrl.OnExampleChosen("x*x+y*y+z*z-30")
		h.settle()
		assert.Equal(t, 1, h.graph.AttachedObjects())
	}
	assert.NotSame(t, boot, h.graph.Current())
	assert.Equal(t, tetra, h.ctrl.State().CurrentMeshText)
}

func TestUnprocessableLeavesSceneUnchanged(t *testing.T) {
	h := newHarness(t)
	h.client.err = &meshclient.Error{Kind: meshclient.KindUnprocessable, Status: 422, Message: "Invalid characters used"}

	before := h.graph.Current()
	text := h.ctrl.State().CurrentMeshText
	require.NotEmpty(t, text)

	h.ctrl.OnExampleChosen("bad$$expr")
	h.settle()

	require.Len(t, h.client.Calls(), 1)
	assert.Same(t, before, h.graph.Current())
	st := h.ctrl.State()
	assert.False(t, st.IsLoading)
	assert.Equal(t, text, st.CurrentMeshText)
	assert.Equal(t, "bad$$expr", st.Formula)
}

func TestTransportErrorClearsGuard(t *testing.T) {
	h := newHarness(t)
	h.client.err = &meshclient.Error{Kind: meshclient.KindTransport}
	before := h.graph.Current()

	h.ctrl.OnExampleChosen("x")
	h.settle()
	assert.Same(t, before, h.graph.Current())

	h.client.err = nil
	h.ctrl.OnExampleChosen("y")
	h.settle()
	assert.Len(t, h.client.Calls(), 2)
	assert.NotSame(t, before, h.graph.Current())
}

// ---------------------------------------------------------------------------
// Flags and projection
// ---------------------------------------------------------------------------

func TestToggleFacesNoRequest(t *testing.T) {
	h := newHarness(t)

	h.ctrl.OnToggleFaces()
	h.flush()
	assert.Equal(t, "wireframe", h.graph.Snapshot().Material)
	assert.False(t, h.ctrl.State().Flags.ShowFaces)

	h.ctrl.OnToggleFaces()
	h.flush()
	assert.Equal(t, "solid", h.graph.Snapshot().Material)
	assert.Empty(t, h.client.Calls())
}

func TestToggleAxesAndWireframe(t *testing.T) {
	h := newHarness(t)

	h.ctrl.OnToggleAxes()
	h.ctrl.OnToggleWireframe()
	h.flush()
	s := h.graph.Snapshot()
	assert.True(t, s.Axes)
	assert.True(t, s.Overlay)

	h.ctrl.OnToggleAxes()
	h.flush()
	assert.False(t, h.graph.Snapshot().Axes)
	assert.Empty(t, h.client.Calls())
}

func TestResetCamera(t *testing.T) {
	h := newHarness(t)
	h.ctrl.OnExampleChosen("x")
	h.settle()
	require.Less(t, h.graph.Snapshot().Controls.RotateSpeed, float32(0))

	h.ctrl.ResetCamera()
	h.flush()
	assert.Equal(t, float32(scene.DefaultRotateSpeed), h.graph.Snapshot().Controls.RotateSpeed)
}

func TestExportMesh(t *testing.T) {
	h := newHarness(t)

	var buf bytes.Buffer
	require.NoError(t, h.ctrl.ExportMesh(&buf))
	assert.Contains(t, buf.String(), "o sphere")

	h.ctrl.OnExampleChosen("x")
	h.settle()
	buf.Reset()
	require.NoError(t, h.ctrl.ExportMesh(&buf))
	assert.Equal(t, tetra, buf.String())
}

func TestSubscribe(t *testing.T) {
	h := newHarness(t)

	var mu sync.Mutex
	var states []State
	h.ctrl.Subscribe(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	h.ctrl.OnExampleChosen("x")
	h.settle()

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(states), 2)
	assert.True(t, states[len(states)-2].IsLoading)
	assert.False(t, states[len(states)-1].IsLoading)
}

func TestInitialState(t *testing.T) {
	h := newHarness(t)
	st := h.ctrl.State()
	assert.Equal(t, "x*x+y*y+z*z-30", st.Formula)
	assert.Equal(t, 10, st.Limits)
	assert.Equal(t, params.MarchingCubes, st.Algorithm)
	assert.Equal(t, scene.Flags{ShowFaces: true}, st.Flags)
	assert.False(t, st.IsLoading)
}
