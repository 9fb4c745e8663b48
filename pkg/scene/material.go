package scene

import "image/color"

// MaterialKind selects how mesh faces are drawn.
type MaterialKind int

const (
	// MaterialSolid draws shaded faces.
	MaterialSolid MaterialKind = iota
	// MaterialWireframe draws triangle edges only.
	MaterialWireframe
)

func (k MaterialKind) String() string {
	switch k {
	case MaterialSolid:
		return "solid"
	case MaterialWireframe:
		return "wireframe"
	default:
		return "unknown"
	}
}

// Material is a Phong material description.
type Material struct {
	Kind       MaterialKind `json:"kind"`
	Color      color.RGBA   `json:"color"`
	DoubleSide bool         `json:"doubleSide"`
	Wireframe  bool         `json:"wireframe"`

	// Polygon offset pushes faces back so an edge overlay draws on top.
	PolygonOffset       bool    `json:"polygonOffset"`
	PolygonOffsetFactor float32 `json:"polygonOffsetFactor"`
	PolygonOffsetUnits  float32 `json:"polygonOffsetUnits"`
}

// Default palette.
var (
	SurfaceColor    = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	ContrastColor   = color.RGBA{R: 0x61, G: 0xda, B: 0xfb, A: 0xff}
	BackgroundColor = color.RGBA{R: 0x28, G: 0x2c, B: 0x34, A: 0xff}
)

// SolidMaterial is used when faces are shown.
func SolidMaterial() Material {
	return Material{
		Kind:                MaterialSolid,
		Color:               SurfaceColor,
		DoubleSide:          true,
		PolygonOffset:       true,
		PolygonOffsetFactor: 1,
		PolygonOffsetUnits:  1,
	}
}

// WireframeMaterial is used when faces are hidden.
func WireframeMaterial() Material {
	return Material{
		Kind:       MaterialWireframe,
		Color:      ContrastColor,
		DoubleSide: true,
		Wireframe:  true,
	}
}
