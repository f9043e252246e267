package segment

import (
	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/slabtrace/internal/raster"
)

// Dilate grows the foreground of m by a square kernel of the given size.
// Even sizes are rounded up to the next odd size; sizes below 2 return a copy.
func Dilate(m *raster.Mask, size int) *raster.Mask {
	r := kernelRadius(size)
	if r == 0 {
		return m.Clone()
	}
	rows := dilateRows(m, r)
	return dilateCols(rows, r)
}

// Erode shrinks the foreground of m by a square kernel. Pixels outside the
// image are treated as foreground.
func Erode(m *raster.Mask, size int) *raster.Mask {
	return Dilate(m.Invert(), size).Invert()
}

// Close dilates then erodes, filling gaps and holes smaller than the kernel.
func Close(m *raster.Mask, size int) *raster.Mask {
	return Erode(Dilate(m, size), size)
}

// Open erodes then dilates, removing specks smaller than the kernel.
func Open(m *raster.Mask, size int) *raster.Mask {
	return Dilate(Erode(m, size), size)
}

func kernelRadius(size int) int {
	if size < 2 {
		return 0
	}
	return size / 2
}

// dilateRows sets a pixel when any pixel within r columns on its row is set.
// A running count of set pixels in the sliding window keeps it linear.
func dilateRows(m *raster.Mask, r int) *raster.Mask {
	out := raster.NewMask(m.Width, m.Height)
	w := m.Width
	parallel.Line(m.Height, func(start, end int) {
		for y := start; y < end; y++ {
			row := m.Bits[y*w : (y+1)*w]
			dst := out.Bits[y*w : (y+1)*w]
			count := 0
			for x := 0; x < r && x < w; x++ {
				if row[x] {
					count++
				}
			}
			for x := 0; x < w; x++ {
				if in := x + r; in < w && row[in] {
					count++
				}
				if outIdx := x - r - 1; outIdx >= 0 && row[outIdx] {
					count--
				}
				dst[x] = count > 0
			}
		}
	})
	return out
}

// dilateCols is dilateRows along columns.
func dilateCols(m *raster.Mask, r int) *raster.Mask {
	out := raster.NewMask(m.Width, m.Height)
	w, h := m.Width, m.Height
	parallel.Line(w, func(start, end int) {
		for x := start; x < end; x++ {
			count := 0
			for y := 0; y < r && y < h; y++ {
				if m.Bits[y*w+x] {
					count++
				}
			}
			for y := 0; y < h; y++ {
				if in := y + r; in < h && m.Bits[in*w+x] {
					count++
				}
				if outIdx := y - r - 1; outIdx >= 0 && m.Bits[outIdx*w+x] {
					count--
				}
				out.Bits[y*w+x] = count > 0
			}
		}
	})
	return out
}

// FillHoles sets every background pixel that is not connected to the image
// border through background.
func FillHoles(m *raster.Mask) *raster.Mask {
	w, h := m.Width, m.Height
	outside := make([]bool, w*h)
	queue := make([]int, 0, 2*(w+h))
	push := func(x, y int) {
		i := y*w + x
		if !m.Bits[i] && !outside[i] {
			outside[i] = true
			queue = append(queue, i)
		}
	}
	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}
	for head := 0; head < len(queue); head++ {
		x, y := queue[head]%w, queue[head]/w
		for _, o := range offsets4 {
			nx, ny := x+o.X, y+o.Y
			if nx >= 0 && ny >= 0 && nx < w && ny < h {
				push(nx, ny)
			}
		}
	}
	out := raster.NewMask(w, h)
	for i := range out.Bits {
		out.Bits[i] = !outside[i]
	}
	return out
}
