package scene

import (
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/kernel"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/wavefront"
)

// Object is one loaded mesh document: a group node whose children are the
// decoded meshes, plus an optional edge overlay.
type Object struct {
	root     *Node
	overlay  *Node
	warnings []string
}

// newObject decodes doc into a fresh node tree. ids allocates node ids.
func newObject(doc wavefront.Document, ids func() NodeID) *Object {
	dec := doc.Decode()
	root := &Node{ID: ids(), Kind: NodeGroup, Name: "object", Data: &GroupData{Object: true}}
	for _, m := range dec.Meshes() {
		root.Add(&Node{
			ID:   ids(),
			Kind: NodeMesh,
			Name: m.Name,
			Data: &MeshData{Geometry: m, Material: SolidMaterial()},
		})
	}
	return &Object{root: root, warnings: dec.Warnings}
}

// Root returns the object's group node.
func (o *Object) Root() *Node { return o.root }

// Warnings returns the decoder warnings of the source document.
func (o *Object) Warnings() []string { return o.warnings }

// Geometry returns the mesh of the first child, if that child is a mesh
// with triangles.
func (o *Object) Geometry() (*kernel.Mesh, bool) {
	if len(o.root.Children) == 0 {
		return nil, false
	}
	d, ok := o.root.Children[0].Data.(*MeshData)
	if !ok || d.Geometry.IsEmpty() {
		return nil, false
	}
	return d.Geometry, true
}

// SetMaterial assigns mat to every mesh of the object. On ErrTooDeep the
// meshes above the bound keep mat and the rest keep their old material.
func (o *Object) SetMaterial(mat Material) error {
	return Walk(o.root, Visitor{
		Mesh: func(_ *Node, d *MeshData) error {
			d.Material = mat
			return nil
		},
	})
}

// Material returns the material of the geometry child.
func (o *Object) Material() (Material, bool) {
	if _, ok := o.Geometry(); !ok {
		return Material{}, false
	}
	return o.root.Children[0].Data.(*MeshData).Material, true
}

// buildOverlay derives the edge overlay from the geometry child. It returns
// false when the object has no geometry.
func (o *Object) buildOverlay(id NodeID) bool {
	m, ok := o.Geometry()
	if !ok {
		o.overlay = nil
		return false
	}
	o.overlay = &Node{
		ID:   id,
		Kind: NodeLines,
		Name: "edges",
		Data: &LinesData{
			Positions: EdgePositions(m, EdgeThresholdDegrees),
			Color:     ContrastColor,
		},
	}
	return true
}

// AttachOverlay adds the edge overlay as a child. It is a no-op when no
// overlay has been built.
func (o *Object) AttachOverlay() {
	if o.overlay != nil {
		o.root.Add(o.overlay)
	}
}

// DetachOverlay removes the edge overlay.
func (o *Object) DetachOverlay() {
	if o.overlay != nil {
		o.root.Remove(o.overlay)
	}
}

// overlayPositions returns the segment endpoints of the attached overlay.
func (o *Object) overlayPositions() []float32 {
	if !o.OverlayAttached() {
		return nil
	}
	return o.overlay.Data.(*LinesData).Positions
}

// OverlayAttached reports whether the edge overlay is shown.
func (o *Object) OverlayAttached() bool {
	return o.overlay != nil && o.root.Has(o.overlay)
}

// Stats returns the triangle count over all meshes and the overlay segment
// count. On ErrTooDeep triangles only counts the meshes that were reached.
func (o *Object) Stats() (triangles, edges int, err error) {
	err = Walk(o.root, Visitor{
		Mesh: func(_ *Node, d *MeshData) error {
			triangles += d.Geometry.TriangleCount()
			return nil
		},
	})
	if o.overlay != nil {
		edges = o.overlay.Data.(*LinesData).SegmentCount()
	}
	return triangles, edges, err
}
