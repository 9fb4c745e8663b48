package wavefront

import (
	"cogentcore.org/core/math32"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/kernel"
)

type cornerKey struct {
	v, n int
}

// Mesh converts ob into an indexed triangle mesh. Polygons are split into
// triangle fans. Corners sharing a position and normal share a vertex;
// corners without a normal get the average of their adjacent face normals.
func (dec *Decoder) Mesh(ob *Object) *kernel.Mesh {
	m := &kernel.Mesh{Name: ob.Name}
	index := make(map[cornerKey]uint32)
	var smooth []bool

	corner := func(face *Face, i int) uint32 {
		k := cornerKey{face.Vertices[i], face.Normals[i]}
		if idx, ok := index[k]; ok {
			return idx
		}
		idx := uint32(len(m.Vertices) / 3)
		vi := k.v * 3
		m.Vertices = append(m.Vertices, dec.Vertices[vi], dec.Vertices[vi+1], dec.Vertices[vi+2])
		if k.n == invINDEX {
			m.Normals = append(m.Normals, 0, 0, 0)
			smooth = append(smooth, true)
		} else {
			ni := k.n * 3
			m.Normals = append(m.Normals, dec.Normals[ni], dec.Normals[ni+1], dec.Normals[ni+2])
			smooth = append(smooth, false)
		}
		index[k] = idx
		return idx
	}

	for fi := range ob.Faces {
		face := &ob.Faces[fi]
		a := corner(face, 0)
		for i := 1; i+1 < len(face.Vertices); i++ {
			m.Indices = append(m.Indices, a, corner(face, i), corner(face, i+1))
		}
	}

	computeNormals(m, smooth)
	return m
}

// Meshes converts every object that has at least one face.
func (dec *Decoder) Meshes() []*kernel.Mesh {
	var out []*kernel.Mesh
	for i := range dec.Objects {
		if len(dec.Objects[i].Faces) == 0 {
			continue
		}
		out = append(out, dec.Mesh(&dec.Objects[i]))
	}
	return out
}

// computeNormals fills the normals of the vertices flagged in smooth with
// the area-weighted sum of their adjacent triangle normals.
func computeNormals(m *kernel.Mesh, smooth []bool) {
	need := false
	for _, s := range smooth {
		need = need || s
	}
	if !need {
		return
	}

	acc := make([]math32.Vector3, m.VertexCount())
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		a, b, c := vec(m.Vertex(tri[0])), vec(m.Vertex(tri[1])), vec(m.Vertex(tri[2]))
		// Unnormalized cross product: its length is twice the area.
		n := b.Sub(a).Cross(c.Sub(a))
		for _, i := range tri {
			acc[i] = acc[i].Add(n)
		}
	}
	for i, s := range smooth {
		if !s {
			continue
		}
		n := acc[i]
		if n.Length() > 0 {
			n = n.Normal()
		}
		m.Normals[i*3], m.Normals[i*3+1], m.Normals[i*3+2] = n.X, n.Y, n.Z
	}
}

func vec(p [3]float32) math32.Vector3 {
	return math32.Vec3(p[0], p[1], p[2])
}
