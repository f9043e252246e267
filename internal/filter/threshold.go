package filter

import (
	"image"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/slabtrace/internal/raster"
)

// Threshold marks every pixel strictly brighter than t as foreground.
func Threshold(g *raster.GrayMap, t float64) *raster.Mask {
	m := raster.NewMask(g.Width, g.Height)
	for i, v := range g.Pix {
		m.Bits[i] = v > t
	}
	return m
}

// OtsuThreshold returns the global threshold in [0,1] that maximizes the
// between-class variance of g's 256-bin histogram.
//
// Pixels with value <= the returned threshold form the dark class. For a map
// with a single intensity level the threshold equals that level.
func OtsuThreshold(g *raster.GrayMap) float64 {
	hist := g.Histogram()
	total := float64(len(g.Pix))
	if total == 0 {
		return 0.5
	}

	var sumAll float64
	for i, n := range hist {
		sumAll += float64(i) * float64(n)
	}

	var (
		sumDark    float64
		weightDark float64
		bestVar    = -1.0
		best       int
	)
	for t := 0; t < 256; t++ {
		weightDark += float64(hist[t])
		if weightDark == 0 {
			continue
		}
		weightLight := total - weightDark
		if weightLight == 0 {
			if bestVar < 0 {
				best = t
			}
			break
		}
		sumDark += float64(t) * float64(hist[t])

		meanDark := sumDark / weightDark
		meanLight := (sumAll - sumDark) / weightLight
		between := weightDark * weightLight * (meanDark - meanLight) * (meanDark - meanLight)
		if between > bestVar {
			bestVar = between
			best = t
		}
	}
	return float64(best) / 255.0
}

// Integral is a summed-area table over a GrayMap. It answers the sum or mean
// of any axis-aligned rectangle in constant time.
type Integral struct {
	Width  int
	Height int
	sum    []float64 // (Width+1)*(Height+1), row 0 and column 0 are zero
}

// NewIntegral builds the summed-area table of g.
func NewIntegral(g *raster.GrayMap) *Integral {
	w, h := g.Width, g.Height
	stride := w + 1
	sum := make([]float64, stride*(h+1))
	for y := 0; y < h; y++ {
		var row float64
		for x := 0; x < w; x++ {
			row += g.Pix[y*w+x]
			sum[(y+1)*stride+x+1] = sum[y*stride+x+1] + row
		}
	}
	return &Integral{Width: w, Height: h, sum: sum}
}

// Sum returns the total intensity inside r, clipped to the map. Max is
// exclusive.
func (it *Integral) Sum(r image.Rectangle) float64 {
	r = r.Intersect(image.Rect(0, 0, it.Width, it.Height))
	if r.Empty() {
		return 0
	}
	stride := it.Width + 1
	return it.sum[r.Max.Y*stride+r.Max.X] -
		it.sum[r.Min.Y*stride+r.Max.X] -
		it.sum[r.Max.Y*stride+r.Min.X] +
		it.sum[r.Min.Y*stride+r.Min.X]
}

// Mean returns the mean intensity inside r, clipped to the map. An empty
// rectangle has mean 0.
func (it *Integral) Mean(r image.Rectangle) float64 {
	r = r.Intersect(image.Rect(0, 0, it.Width, it.Height))
	if r.Empty() {
		return 0
	}
	return it.Sum(r) / float64(r.Dx()*r.Dy())
}

// AdaptiveThreshold marks a pixel as foreground when it is brighter than the
// mean of the (2*radius+1)² window around it by more than offset.
//
// Pass a negative offset to bias towards foreground, e.g. -0.02 keeps pixels
// that are at most slightly darker than their surroundings.
func AdaptiveThreshold(g *raster.GrayMap, radius int, offset float64) *raster.Mask {
	if radius < 1 {
		radius = 1
	}
	it := NewIntegral(g)
	m := raster.NewMask(g.Width, g.Height)

	parallel.Line(g.Height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < g.Width; x++ {
				win := image.Rect(x-radius, y-radius, x+radius+1, y+radius+1)
				m.Bits[y*g.Width+x] = g.Pix[y*g.Width+x] > it.Mean(win)+offset
			}
		}
	})
	return m
}
