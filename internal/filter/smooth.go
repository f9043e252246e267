package filter

import (
	"github.com/anthonynsimon/bild/blur"

	"github.com/ironsheep/slabtrace/internal/raster"
)

// GaussianBlur smooths g with a Gaussian kernel of the given radius.
//
// The work is done by bild's blur.Gaussian on an 8-bit rendering of the map,
// so the result is quantized to 1/255 steps. A radius <= 0 returns a copy.
func GaussianBlur(g *raster.GrayMap, radius float64) *raster.GrayMap {
	if radius <= 0 {
		return g.Clone()
	}
	return raster.GrayFromImage(blur.Gaussian(g.ToImage(), radius))
}

// Equalize spreads the histogram of g over the full [0,1] range.
//
// The mapping is the classic cumulative-distribution transform:
//
//	out = (cdf(v) - cdfMin) / (N - cdfMin)
//
// where cdfMin is the first non-zero CDF entry. A map with a single
// intensity level is returned unchanged.
func Equalize(g *raster.GrayMap) *raster.GrayMap {
	hist := g.Histogram()
	total := len(g.Pix)

	var cdf [256]int
	running := 0
	cdfMin := 0
	for i, n := range hist {
		running += n
		cdf[i] = running
		if cdfMin == 0 && running > 0 {
			cdfMin = running
		}
	}

	out := raster.NewGrayMap(g.Width, g.Height)
	denom := float64(total - cdfMin)
	if denom <= 0 {
		copy(out.Pix, g.Pix)
		return out
	}

	var lut [256]float64
	for i := range lut {
		v := float64(cdf[i]-cdfMin) / denom
		if v < 0 {
			v = 0
		}
		lut[i] = v
	}
	for i, v := range g.Pix {
		out.Pix[i] = lut[raster.Quantize(v)]
	}
	return out
}
