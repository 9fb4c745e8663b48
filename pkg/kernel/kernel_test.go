package kernel

import (
	"context"
	"testing"
)

// quad is two triangles sharing the diagonal 0-2.
func quad() *Mesh {
	return &Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		Normals:  []float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:  []uint32{0, 1, 2, 2, 3, 0},
	}
}

func TestMeshCounts(t *testing.T) {
	cases := map[string]struct {
		mesh      *Mesh
		verts     int
		triangles int
		empty     bool
	}{
		"zero value":  {&Mesh{}, 0, 0, true},
		"points only": {&Mesh{Vertices: []float32{1, 2, 3}}, 1, 0, true},
		"quad":        {quad(), 4, 2, false},
		"single face": {&Mesh{Vertices: make([]float32, 9), Indices: []uint32{0, 1, 2}}, 3, 1, false},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if got := c.mesh.VertexCount(); got != c.verts {
				t.Errorf("VertexCount = %d, want %d", got, c.verts)
			}
			if got := c.mesh.TriangleCount(); got != c.triangles {
				t.Errorf("TriangleCount = %d, want %d", got, c.triangles)
			}
			if got := c.mesh.IsEmpty(); got != c.empty {
				t.Errorf("IsEmpty = %v, want %v", got, c.empty)
			}
		})
	}
}

func TestNilMeshIsEmpty(t *testing.T) {
	var m *Mesh
	if !m.IsEmpty() {
		t.Error("nil mesh reported geometry")
	}
}

func TestMeshAccessors(t *testing.T) {
	m := quad()
	if got := m.Vertex(2); got != [3]float32{1, 1, 0} {
		t.Errorf("Vertex(2) = %v", got)
	}
	if got := m.Triangle(1); got != [3]uint32{2, 3, 0} {
		t.Errorf("Triangle(1) = %v", got)
	}
}

func TestRequestValidate(t *testing.T) {
	if err := (Request{Limits: 10}).Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if err := (Request{Limits: 0}).Validate(); err == nil {
		t.Error("expected error for zero limits")
	}
}

// fixedMesher hands back the same mesh for every field.
type fixedMesher struct{ m *Mesh }

func (f fixedMesher) Mesh(ctx context.Context, _ Field, _ Request) (*Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.m, nil
}

var _ Mesher = fixedMesher{}

func TestMesherContract(t *testing.T) {
	var k Mesher = fixedMesher{quad()}
	plane := func(x, y, z float64) float64 { return z }

	m, err := k.Mesh(context.Background(), plane, Request{Limits: 1})
	if err != nil {
		t.Fatalf("Mesh: %v", err)
	}
	if m.TriangleCount() != 2 {
		t.Errorf("got %d triangles", m.TriangleCount())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := k.Mesh(ctx, plane, Request{Limits: 1}); err == nil {
		t.Error("expected error from cancelled context")
	}
}
