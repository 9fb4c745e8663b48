// Package wavefront reads and writes the subset of the Wavefront OBJ format
// the viewer exchanges with the meshing service: objects, vertex positions,
// vertex normals and polygonal faces. Texture coordinates, materials and
// smoothing groups are accepted and ignored.
package wavefront

// Document is an immutable Wavefront OBJ text as received from the meshing
// service or read from a static file.
type Document struct {
	text string
}

// NewDocument wraps text.
func NewDocument(text string) Document {
	return Document{text: text}
}

// Text returns the OBJ text unchanged.
func (d Document) Text() string { return d.text }

// IsZero reports whether the document is empty.
func (d Document) IsZero() bool { return d.text == "" }

// Len returns the size of the text in bytes.
func (d Document) Len() int { return len(d.text) }
