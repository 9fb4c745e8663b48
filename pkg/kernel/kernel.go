// Package kernel defines the abstract meshing kernel interface.
// Implementations (sdfx) turn an implicit scalar field into a triangle mesh
// behind this interface, so the meshing service does not depend on a
// particular backend.
package kernel

import (
	"context"
	"errors"
	"fmt"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/params"
)

var (
	// ErrTooComplex is returned when a surface exceeds the triangle budget.
	ErrTooComplex = errors.New("kernel: surface too complex")
	// ErrTimeout is returned when meshing exceeds its deadline.
	ErrTimeout = errors.New("kernel: meshing timed out")
)

// Field is an implicit scalar function. The surface is its zero set.
// Implementations must be safe for concurrent use.
type Field func(x, y, z float64) float64

// Request describes the region and algorithm for one meshing run.
type Request struct {
	// Limits is the half-extent of the sampled cube [-Limits, Limits]^3.
	Limits float64
	// Algorithm selects marching cubes or dual contouring.
	Algorithm params.Algorithm
}

// Validate rejects non-positive extents.
func (r Request) Validate() error {
	if r.Limits <= 0 {
		return fmt.Errorf("kernel: limits must be positive, got %g", r.Limits)
	}
	return nil
}

// Mesher is the abstract meshing kernel interface.
type Mesher interface {
	// Mesh samples f over the request region and returns its zero set as
	// triangles. An empty mesh is a valid result: the field has no surface
	// inside the region.
	Mesh(ctx context.Context, f Field, req Request) (*Mesh, error)
}
