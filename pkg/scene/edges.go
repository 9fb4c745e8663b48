package scene

import (
	"cogentcore.org/core/math32"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/kernel"
)

// EdgeThresholdDegrees is the minimum angle between adjacent face normals
// for their shared edge to be drawn.
const EdgeThresholdDegrees = 1

// edgePrecision quantizes positions so that coincident vertices with
// different indices are treated as one.
const edgePrecision = 1e4

type posKey [3]int64

type halfEdge struct {
	pa, pb math32.Vector3
	normal math32.Vector3
}

// EdgePositions returns the feature edges of m as line segment positions:
// edges whose two adjacent faces differ by more than thresholdDeg, plus
// edges with a single adjacent face.
func EdgePositions(m *kernel.Mesh, thresholdDeg float32) []float32 {
	if m.IsEmpty() {
		return nil
	}
	cosThreshold := math32.Cos(math32.DegToRad(thresholdDeg))
	open := make(map[[2]posKey]halfEdge)
	var out []float32

	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		var p [3]math32.Vector3
		var k [3]posKey
		for i, vi := range tri {
			v := m.Vertex(vi)
			p[i] = math32.Vec3(v[0], v[1], v[2])
			k[i] = quantize(v)
		}
		if k[0] == k[1] || k[1] == k[2] || k[2] == k[0] {
			continue
		}
		n := math32.Normal(p[0], p[1], p[2])

		for i := 0; i < 3; i++ {
			j := (i + 1) % 3
			rev := [2]posKey{k[j], k[i]}
			if other, ok := open[rev]; ok {
				if n.Dot(other.normal) <= cosThreshold {
					out = appendSegment(out, p[i], p[j])
				}
				delete(open, rev)
				continue
			}
			open[[2]posKey{k[i], k[j]}] = halfEdge{pa: p[i], pb: p[j], normal: n}
		}
	}

	for _, e := range open {
		out = appendSegment(out, e.pa, e.pb)
	}
	return out
}

func quantize(v [3]float32) posKey {
	return posKey{
		int64(math32.Round(v[0] * edgePrecision)),
		int64(math32.Round(v[1] * edgePrecision)),
		int64(math32.Round(v[2] * edgePrecision)),
	}
}

func appendSegment(dst []float32, a, b math32.Vector3) []float32 {
	return append(dst, a.X, a.Y, a.Z, b.X, b.Y, b.Z)
}
