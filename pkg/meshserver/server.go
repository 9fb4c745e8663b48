// Package meshserver is the meshing service: it validates a surface
// formula, meshes its zero set with the configured kernel and returns the
// result as Wavefront text.
package meshserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/cache"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/engine"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/formula"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/kernel"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/params"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/wavefront"
)

// Rejection reasons reported to clients.
const (
	ReasonCharacters = "Invalid characters used"
	ReasonProcess    = "Failed to process"
	ReasonParameters = "Invalid parameters"
)

// ErrRejected matches every *RejectError.
var ErrRejected = errors.New("meshserver: rejected")

// RejectError is a semantic rejection of the request (HTTP 422).
type RejectError struct {
	Reason string
	Err    error
}

func (e *RejectError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *RejectError) Unwrap() error { return e.Err }

func (e *RejectError) Is(target error) bool { return target == ErrRejected }

func reject(reason string, err error) *RejectError {
	return &RejectError{Reason: reason, Err: err}
}

// Prober certifies a parsed formula before meshing.
type Prober interface {
	Check(expr *formula.Expr) ([]engine.EvalError, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(expr *formula.Expr) ([]engine.EvalError, error)

// Check calls f.
func (f ProberFunc) Check(expr *formula.Expr) ([]engine.EvalError, error) { return f(expr) }

// sandboxProber gives every request its own engine: a shared engine treats
// concurrent evaluations as superseding each other.
var sandboxProber = ProberFunc(func(expr *formula.Expr) ([]engine.EvalError, error) {
	return engine.NewEngine().Check(expr)
})

// Server meshes formulas. It is safe for concurrent use.
type Server struct {
	mesher      kernel.Mesher
	prober      Prober
	cache       cache.Store
	metrics     *Metrics
	logger      *zap.Logger
	meshTimeout time.Duration

	group singleflight.Group
}

// Option configures a Server.
type Option func(*Server)

// WithProber replaces the formula prober.
func WithProber(p Prober) Option {
	return func(s *Server) { s.prober = p }
}

// WithCache sets the mesh cache.
func WithCache(c cache.Store) Option {
	return func(s *Server) { s.cache = c }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMeshTimeout bounds a single meshing run.
func WithMeshTimeout(d time.Duration) Option {
	return func(s *Server) { s.meshTimeout = d }
}

// New creates a server meshing with m.
func New(m kernel.Mesher, opts ...Option) *Server {
	s := &Server{
		mesher:      m,
		prober:      sandboxProber,
		cache:       cache.Nop{},
		logger:      zap.NewNop(),
		meshTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	s.logger = s.logger.With(zap.String("component", "meshserver"))
	return s
}

// Metrics returns the server's collector.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Mesh validates p and returns the mesh document of its zero set. Semantic
// failures are *RejectError values.
func (s *Server) Mesh(ctx context.Context, p params.Generation) (wavefront.Document, error) {
	src := formula.Normalize(p.Formula)
	if err := formula.CheckCharacters(src); err != nil {
		return wavefront.Document{}, s.rejected(reject(ReasonCharacters, nil))
	}
	expr, err := formula.Parse(src)
	if err != nil {
		return wavefront.Document{}, s.rejected(reject(ReasonProcess, err))
	}
	evalErrs, err := s.prober.Check(expr)
	if err != nil {
		return wavefront.Document{}, s.rejected(reject(ReasonProcess, err))
	}
	if len(evalErrs) > 0 {
		return wavefront.Document{}, s.rejected(reject(ReasonProcess, evalErrs[0]))
	}

	p.Formula = src
	if err := p.Validate(); err != nil {
		return wavefront.Document{}, s.rejected(reject(ReasonParameters, err))
	}

	key := cache.Key(p)
	if text, err := s.cache.Get(ctx, key); err == nil {
		s.metrics.cacheHits.Inc()
		return wavefront.NewDocument(text), nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("cache get failed", zap.Error(err))
	}
	s.metrics.cacheMisses.Inc()

	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.mesh(context.WithoutCancel(ctx), expr, p, key)
	})
	if shared {
		s.logger.Debug("meshing shared with concurrent request", zap.String("key", key))
	}
	if err != nil {
		return wavefront.Document{}, err
	}
	return v.(wavefront.Document), nil
}

// mesh runs the kernel. It is detached from the caller's cancellation so a
// collapsed request still completes for the other waiters.
func (s *Server) mesh(ctx context.Context, expr *formula.Expr, p params.Generation, key string) (wavefront.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.meshTimeout)
	defer cancel()

	start := time.Now()
	m, err := s.mesher.Mesh(ctx, kernel.Field(expr.Func()), kernel.Request{
		Limits:    float64(p.Limits),
		Algorithm: p.Algorithm,
	})
	s.metrics.meshDuration.WithLabelValues(p.Algorithm.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		return wavefront.Document{}, s.rejected(reject(ReasonProcess, err))
	}

	doc := wavefront.Encode(m)
	s.metrics.triangles.WithLabelValues(p.Algorithm.String()).Observe(float64(m.TriangleCount()))
	s.logger.Info("meshed",
		zap.String("formula", p.Formula),
		zap.Int("limits", p.Limits),
		zap.Stringer("algorithm", p.Algorithm),
		zap.Int("triangles", m.TriangleCount()),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := s.cache.Set(ctx, key, doc.Text()); err != nil {
		s.logger.Warn("cache set failed", zap.Error(err))
	}
	return doc, nil
}

func (s *Server) rejected(err *RejectError) *RejectError {
	s.metrics.rejections.WithLabelValues(err.Reason).Inc()
	return err
}
