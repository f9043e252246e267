package segment

import (
	"image"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/slabtrace/internal/geometry"
	"github.com/ironsheep/slabtrace/internal/raster"
)

// Component describes one connected foreground region.
type Component struct {
	ID       int             `json:"id"`
	Area     int             `json:"area"`
	Bounds   image.Rectangle `json:"bounds"`
	Centroid geometry.Point  `json:"centroid"`
}

// Labels is the result of connected-component labeling. IDs holds 0 for
// background and the 1-based component ID otherwise.
type Labels struct {
	Width      int
	Height     int
	IDs        []int32
	Components []Component
}

// Label finds the connected foreground components of m.
//
// Components are numbered in row-major order of their first pixel.
func Label(m *raster.Mask, conn Connectivity) *Labels {
	w, h := m.Width, m.Height
	ids := make([]int32, w*h)
	offs := conn.offsets()
	var comps []Component
	var queue []int
	var xs, ys []float64

	for start, set := range m.Bits {
		if !set || ids[start] != 0 {
			continue
		}
		id := int32(len(comps) + 1)
		ids[start] = id
		queue = append(queue[:0], start)
		xs, ys = xs[:0], ys[:0]
		bounds := image.Rect(start%w, start/w, start%w+1, start/w+1)

		for head := 0; head < len(queue); head++ {
			x, y := queue[head]%w, queue[head]/w
			xs = append(xs, float64(x))
			ys = append(ys, float64(y))
			bounds = bounds.Union(image.Rect(x, y, x+1, y+1))
			for _, o := range offs {
				nx, ny := x+o.X, y+o.Y
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				n := ny*w + nx
				if m.Bits[n] && ids[n] == 0 {
					ids[n] = id
					queue = append(queue, n)
				}
			}
		}

		comps = append(comps, Component{
			ID:       int(id),
			Area:     len(queue),
			Bounds:   bounds,
			Centroid: geometry.Pt(stat.Mean(xs, nil), stat.Mean(ys, nil)),
		})
	}
	return &Labels{Width: w, Height: h, IDs: ids, Components: comps}
}

// At returns the component ID at (x, y), or 0 for background and
// out-of-range coordinates.
func (l *Labels) At(x, y int) int {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return 0
	}
	return int(l.IDs[y*l.Width+x])
}

// Mask returns the pixels of component id.
func (l *Labels) Mask(id int) *raster.Mask {
	m := raster.NewMask(l.Width, l.Height)
	for i, v := range l.IDs {
		m.Bits[i] = int(v) == id
	}
	return m
}

// Largest returns the component with the greatest area and false when there
// are none.
func (l *Labels) Largest() (Component, bool) {
	if len(l.Components) == 0 {
		return Component{}, false
	}
	best := l.Components[0]
	for _, c := range l.Components[1:] {
		if c.Area > best.Area {
			best = c
		}
	}
	return best, true
}
