// Package sdfx implements the kernel.Mesher interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"context"
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/kernel"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/params"
)

// Compile-time interface check.
var _ kernel.Mesher = (*SdfxKernel)(nil)

// Default tessellation resolution and budget.
const (
	DefaultMarchingCubesCells = 64
	DefaultDualContourCells   = 32
	DefaultMaxTriangles       = 400000
)

// implicitField wraps a kernel.Field to implement sdf.SDF3. The field does
// not need to be a true distance function; both renderers only rely on its
// sign and, for dual contouring, its gradient.
type implicitField struct {
	f  kernel.Field
	bb sdf.Box3
}

// Evaluate returns the field value at p.
func (s *implicitField) Evaluate(p v3.Vec) float64 {
	return s.f(p.X, p.Y, p.Z)
}

// BoundingBox returns the sampled region.
func (s *implicitField) BoundingBox() sdf.Box3 {
	return s.bb
}

// Options tunes the kernel.
type Options struct {
	MarchingCubesCells int
	DualContourCells   int
	MaxTriangles       int
}

// SdfxKernel implements kernel.Mesher using sdfx.
type SdfxKernel struct {
	opts Options
}

// New returns a new SdfxKernel. Zero option fields take the defaults.
func New(opts Options) *SdfxKernel {
	if opts.MarchingCubesCells <= 0 {
		opts.MarchingCubesCells = DefaultMarchingCubesCells
	}
	if opts.DualContourCells <= 0 {
		opts.DualContourCells = DefaultDualContourCells
	}
	if opts.MaxTriangles <= 0 {
		opts.MaxTriangles = DefaultMaxTriangles
	}
	return &SdfxKernel{opts: opts}
}

// renderer returns the sdfx renderer for an algorithm.
func (k *SdfxKernel) renderer(alg params.Algorithm) (render.Render3, error) {
	switch alg {
	case params.MarchingCubes:
		return render.NewMarchingCubesUniform(k.opts.MarchingCubesCells), nil
	case params.DualContour:
		return newDualContour(k.opts.DualContourCells), nil
	default:
		return nil, fmt.Errorf("sdfx: unsupported algorithm %v", alg)
	}
}

type meshResult struct {
	mesh *kernel.Mesh
	err  error
}

// Mesh converts the zero set of f inside [-Limits, Limits]^3 to a triangle
// mesh. sdfx cannot be interrupted, so when ctx ends first the rendering
// goroutine keeps running and its result is discarded.
func (k *SdfxKernel) Mesh(ctx context.Context, f kernel.Field, req kernel.Request) (*kernel.Mesh, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r, err := k.renderer(req.Algorithm)
	if err != nil {
		return nil, err
	}

	l := req.Limits
	s := &implicitField{
		f: f,
		bb: sdf.Box3{
			Min: v3.Vec{X: -l, Y: -l, Z: -l},
			Max: v3.Vec{X: l, Y: l, Z: l},
		},
	}

	ch := make(chan meshResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- meshResult{err: fmt.Errorf("sdfx: panic during meshing: %v", p)}
			}
		}()
		m, err := k.toMesh(s, r)
		ch <- meshResult{mesh: m, err: err}
	}()

	select {
	case res := <-ch:
		return res.mesh, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", kernel.ErrTimeout, ctx.Err())
	}
}

// toMesh runs the renderer and flattens its triangles.
func (k *SdfxKernel) toMesh(s sdf.SDF3, r render.Render3) (*kernel.Mesh, error) {
	triangles := render.ToTriangles(s, r)

	numTri := len(triangles)
	if numTri > k.opts.MaxTriangles {
		return nil, fmt.Errorf("%w: %d triangles exceed budget of %d",
			kernel.ErrTooComplex, numTri, k.opts.MaxTriangles)
	}
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
		Name:     "surface",
	}, nil
}
