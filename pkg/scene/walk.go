package scene

import (
	"errors"
	"fmt"
)

// MaxDepth bounds the traversal depth of Walk.
const MaxDepth = 32

// ErrTooDeep is returned when a tree is nested deeper than MaxDepth.
var ErrTooDeep = errors.New("scene: tree exceeds maximum depth")

// Visitor receives each node of a tree with its typed payload. Any field
// may be nil. Returning an error stops the walk.
type Visitor struct {
	Group func(n *Node, d *GroupData) error
	Mesh  func(n *Node, d *MeshData) error
	Lines func(n *Node, d *LinesData) error
	Axes  func(n *Node, d *AxesData) error
	Light func(n *Node, d *LightData) error
}

// Walk visits n and its descendants depth-first, parents before children.
func Walk(n *Node, v Visitor) error {
	return walk(n, v, 0)
}

func walk(n *Node, v Visitor, depth int) error {
	if n == nil {
		return nil
	}
	if depth > MaxDepth {
		return ErrTooDeep
	}
	if err := visit(n, v); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := walk(c, v, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func visit(n *Node, v Visitor) error {
	switch d := n.Data.(type) {
	case *GroupData:
		if v.Group != nil {
			return v.Group(n, d)
		}
	case *MeshData:
		if v.Mesh != nil {
			return v.Mesh(n, d)
		}
	case *LinesData:
		if v.Lines != nil {
			return v.Lines(n, d)
		}
	case *AxesData:
		if v.Axes != nil {
			return v.Axes(n, d)
		}
	case *LightData:
		if v.Light != nil {
			return v.Light(n, d)
		}
	case nil:
		// bare container
	default:
		return fmt.Errorf("scene: node %d has unknown payload %T", n.ID, d)
	}
	return nil
}
