package wavefront

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/kernel"
)

// Encode renders m as an OBJ document. Vertices with identical positions
// are merged so that adjacent triangles share corners; normals are not
// written and readers recompute them from the shared topology.
func Encode(m *kernel.Mesh) Document {
	var b strings.Builder
	// strings.Builder never fails
	_ = Write(&b, m)
	return NewDocument(b.String())
}

// Write streams the OBJ text for m to w.
func Write(w io.Writer, m *kernel.Mesh) error {
	bw := bufio.NewWriter(w)

	name := m.Name
	if name == "" {
		name = "surface"
	}
	fmt.Fprintf(bw, "o %s\n", name)

	remap := make([]int, m.VertexCount())
	seen := make(map[[3]float32]int, m.VertexCount())
	next := 1
	for i := range remap {
		p := m.Vertex(uint32(i))
		if idx, ok := seen[p]; ok {
			remap[i] = idx
			continue
		}
		seen[p] = next
		remap[i] = next
		next++
		bw.WriteString("v ")
		bw.WriteString(formatCoord(p[0]))
		bw.WriteByte(' ')
		bw.WriteString(formatCoord(p[1]))
		bw.WriteByte(' ')
		bw.WriteString(formatCoord(p[2]))
		bw.WriteByte('\n')
	}

	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		a, b, c := remap[tri[0]], remap[tri[1]], remap[tri[2]]
		// Triangles collapsed by the merge carry no area.
		if a == b || b == c || a == c {
			continue
		}
		fmt.Fprintf(bw, "f %d %d %d\n", a, b, c)
	}
	return bw.Flush()
}

func formatCoord(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
