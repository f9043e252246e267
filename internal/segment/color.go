package segment

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/slabtrace/internal/raster"
)

// HSVWeights weights the hue, saturation and value terms of the HSV distance.
type HSVWeights struct {
	Hue        float64
	Saturation float64
	Value      float64
}

// DefaultHSVWeights returns the 0.5/0.3/0.2 weighting.
func DefaultHSVWeights() HSVWeights {
	return HSVWeights{Hue: 0.5, Saturation: 0.3, Value: 0.2}
}

// HSV is a color in hue degrees [0,360) with saturation and value in [0,1].
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// ToHSV converts 8-bit RGB using go-colorful.
func ToHSV(r, g, b uint8) HSV {
	h, s, v := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}.Hsv()
	return HSV{H: h, S: s, V: v}
}

// Distance returns the weighted distance between two colors in [0,1].
// The hue delta is taken around the color wheel and normalized by 180°.
func (w HSVWeights) Distance(a, b HSV) float64 {
	dh := math.Abs(a.H - b.H)
	if dh > 180 {
		dh = 360 - dh
	}
	return w.Hue*dh/180 + w.Saturation*math.Abs(a.S-b.S) + w.Value*math.Abs(a.V-b.V)
}

// SampleHSV averages the colors in the (2*radius+1)² window around p,
// clipped to the raster. Hue is averaged on the circle.
func SampleHSV(img *raster.Raster, p image.Point, radius int) HSV {
	var hues, sats, vals []float64
	for y := p.Y - radius; y <= p.Y+radius; y++ {
		for x := p.X - radius; x <= p.X+radius; x++ {
			if !img.In(x, y) {
				continue
			}
			c := ToHSV(img.RGB(x, y))
			hues = append(hues, c.H*math.Pi/180)
			sats = append(sats, c.S)
			vals = append(vals, c.V)
		}
	}
	if len(hues) == 0 {
		return HSV{}
	}
	h := stat.CircularMean(hues, nil) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	return HSV{H: h, S: stat.Mean(sats, nil), V: stat.Mean(vals, nil)}
}

// HSVPredicate admits pixels whose weighted HSV distance to a reference
// color is at most Tolerance.
type HSVPredicate struct {
	width     int
	hsv       []HSV
	ref       HSV
	weights   HSVWeights
	Tolerance float64
}

// NewHSVPredicate converts the whole raster to HSV up front, splitting rows
// across goroutines, and uses ref as the reference color.
func NewHSVPredicate(img *raster.Raster, ref HSV, weights HSVWeights, tolerance float64) *HSVPredicate {
	hsv := make([]HSV, img.Width*img.Height)
	parallel.Line(img.Height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < img.Width; x++ {
				hsv[y*img.Width+x] = ToHSV(img.RGB(x, y))
			}
		}
	})
	return &HSVPredicate{width: img.Width, hsv: hsv, ref: ref, weights: weights, Tolerance: tolerance}
}

// Admit implements Predicate.
func (p *HSVPredicate) Admit(x, y int) bool {
	return p.weights.Distance(p.hsv[y*p.width+x], p.ref) <= p.Tolerance
}
