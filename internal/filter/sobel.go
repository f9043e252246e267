package filter

import (
	"math"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/slabtrace/internal/raster"
)

// sobelMax is the largest magnitude the 3x3 Sobel pair can produce on [0,1]
// input: |Gx| = |Gy| = 4 on a diagonal step.
var sobelMax = 4 * math.Sqrt2

// SobelMagnitude computes the gradient magnitude sqrt(Gx² + Gy²) of g with
// the 3x3 Sobel operators, normalized so that the strongest possible step
// maps to 1.
//
// Border pixels use clamped (replicated) neighbors.
func SobelMagnitude(g *raster.GrayMap) *raster.GrayMap {
	w, h := g.Width, g.Height
	out := raster.NewGrayMap(w, h)

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				xl, xr := clamp(x-1, 0, w-1), clamp(x+1, 0, w-1)
				yt, yb := clamp(y-1, 0, h-1)*w, clamp(y+1, 0, h-1)*w
				row := y * w
				p := g.Pix

				// Differences of mirrored taps are exactly zero on flat input.
				gx := (p[yt+xr] - p[yt+xl]) + 2*(p[row+xr]-p[row+xl]) + (p[yb+xr] - p[yb+xl])
				gy := (p[yb+xl] - p[yt+xl]) + 2*(p[yb+x]-p[yt+x]) + (p[yb+xr] - p[yt+xr])
				out.Pix[y*w+x] = math.Sqrt(gx*gx+gy*gy) / sobelMax
			}
		}
	})
	return out
}

// clamp constrains an integer value to the range [lo, hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
