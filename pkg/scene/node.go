package scene

import (
	"image/color"

	"cogentcore.org/core/math32"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/kernel"
)

// NodeKind enumerates the types of nodes in the scene tree.
type NodeKind int

const (
	NodeGroup NodeKind = iota // container (scene root, loaded object)
	NodeMesh                  // triangle geometry with a material
	NodeLines                 // line segments (edge overlay)
	NodeAxes                  // axes indicator
	NodeLight                 // light source
)

func (k NodeKind) String() string {
	switch k {
	case NodeGroup:
		return "group"
	case NodeMesh:
		return "mesh"
	case NodeLines:
		return "lines"
	case NodeAxes:
		return "axes"
	case NodeLight:
		return "light"
	default:
		return "unknown"
	}
}

// NodeID identifies a node within one Graph.
type NodeID uint64

// Node is the fundamental element of the scene tree.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Children []*Node  `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}

// Add appends c unless it is already a child.
func (n *Node) Add(c *Node) {
	if n.Has(c) {
		return
	}
	n.Children = append(n.Children, c)
}

// Remove detaches c and reports whether it was a child.
func (n *Node) Remove(c *Node) bool {
	for i, ch := range n.Children {
		if ch == c {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return true
		}
	}
	return false
}

// Has reports whether c is a direct child of n.
func (n *Node) Has(c *Node) bool {
	for _, ch := range n.Children {
		if ch == c {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Payloads
// ---------------------------------------------------------------------------

// GroupData marks a container. Object is set on the root of a loaded object.
type GroupData struct {
	Object bool `json:"object"`
}

func (*GroupData) nodeData() {}

// MeshData is triangle geometry rendered with a material.
type MeshData struct {
	Geometry *kernel.Mesh `json:"-"`
	Material Material     `json:"material"`
}

func (*MeshData) nodeData() {}

// LinesData holds line segments, two points (six floats) per segment.
type LinesData struct {
	Positions []float32  `json:"-"`
	Color     color.RGBA `json:"color"`
}

func (*LinesData) nodeData() {}

// SegmentCount returns the number of segments.
func (d *LinesData) SegmentCount() int { return len(d.Positions) / 6 }

// AxesData is an x/y/z indicator at the origin.
type AxesData struct {
	Size float32 `json:"size"`
}

func (*AxesData) nodeData() {}

// LightKind distinguishes light sources.
type LightKind int

const (
	LightAmbient LightKind = iota
	LightPoint
	LightHemisphere
)

func (k LightKind) String() string {
	switch k {
	case LightAmbient:
		return "ambient"
	case LightPoint:
		return "point"
	case LightHemisphere:
		return "hemisphere"
	default:
		return "unknown"
	}
}

// LightData describes a light source. Position is ignored for ambient light.
type LightData struct {
	Kind      LightKind      `json:"kind"`
	Color     color.RGBA     `json:"color"`
	Intensity float32        `json:"intensity"`
	Position  math32.Vector3 `json:"position"`
}

func (*LightData) nodeData() {}
