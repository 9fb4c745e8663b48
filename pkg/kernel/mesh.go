package kernel

// Mesh is an indexed triangle mesh in flat buffers ready for upload:
// three float32 per vertex position and normal, three uint32 per face.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	// Name is the object name read from the "o" line of an OBJ document.
	Name string `json:"name"`
}

func (m *Mesh) VertexCount() int { return len(m.Vertices) / 3 }

func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// IsEmpty reports whether m has no faces to draw. A nil mesh is empty.
func (m *Mesh) IsEmpty() bool {
	return m == nil || len(m.Indices) == 0
}

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i uint32) [3]float32 {
	j := int(i) * 3
	return [3]float32{m.Vertices[j], m.Vertices[j+1], m.Vertices[j+2]}
}

// Triangle returns the corner indices of face t.
func (m *Mesh) Triangle(t int) [3]uint32 {
	j := t * 3
	return [3]uint32{m.Indices[j], m.Indices[j+1], m.Indices[j+2]}
}
