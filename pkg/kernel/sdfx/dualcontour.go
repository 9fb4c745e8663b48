package sdfx

import (
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/render/dc"
	"github.com/deadsy/sdfx/sdf"
)

var _ render.Render3 = (*dualContour)(nil)

// dualContour adapts dc.DualContouringV2, which emits triangle batches on a
// channel, to the writer based render.Render3.
type dualContour struct {
	r *dc.DualContouringV2
}

func newDualContour(cells int) *dualContour {
	return &dualContour{r: dc.NewDualContouringDefault(cells)}
}

func (d *dualContour) Info(s sdf.SDF3) string { return d.r.Info(s) }

// Render forwards every batch to output. After the first write error the
// remaining batches are drained and dropped.
func (d *dualContour) Render(s sdf.SDF3, output sdf.Triangle3Writer) {
	ch := make(chan []*sdf.Triangle3)
	go func() {
		defer close(ch)
		d.r.Render(s, ch)
	}()

	var werr error
	for batch := range ch {
		if werr == nil {
			werr = output.Write(batch)
		}
	}
}
