package segment

import (
	"context"
	"errors"
	"image"

	"github.com/ironsheep/slabtrace/internal/raster"
)

// Connectivity selects the neighborhood used by region growing and labeling.
type Connectivity int

const (
	// Conn8 includes diagonal neighbors.
	Conn8 Connectivity = iota
	// Conn4 uses only horizontal and vertical neighbors.
	Conn4
)

var (
	// ErrSeedOutside is returned when the seed does not lie inside the image.
	ErrSeedOutside = errors.New("seed point outside image")

	// ErrAreaLimit is returned when a region grows beyond GrowOptions.MaxArea.
	ErrAreaLimit = errors.New("region exceeded area limit")
)

// cancelCheckInterval is how many pixels are dequeued between context checks.
const cancelCheckInterval = 4096

var (
	offsets8 = []image.Point{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	offsets4 = []image.Point{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
)

func (c Connectivity) offsets() []image.Point {
	if c == Conn4 {
		return offsets4
	}
	return offsets8
}

// Predicate decides whether the pixel at (x, y) belongs to the region.
type Predicate interface {
	Admit(x, y int) bool
}

// GrowOptions configures Grow.
type GrowOptions struct {
	Connectivity Connectivity

	// MaxArea stops the fill with ErrAreaLimit once the region holds more
	// pixels than this. Zero means no limit.
	MaxArea int
}

// Grow fills the region connected to seed whose pixels satisfy pred.
//
// The seed itself is always part of the region. The fill is breadth-first
// over an explicit queue of flat pixel indices. On ErrAreaLimit the partial
// region is returned together with the error; on cancellation the mask is
// nil.
func Grow(ctx context.Context, width, height int, seed image.Point, pred Predicate, opts GrowOptions) (*raster.Mask, error) {
	if seed.X < 0 || seed.Y < 0 || seed.X >= width || seed.Y >= height {
		return nil, ErrSeedOutside
	}

	region := raster.NewMask(width, height)
	// queued marks every index ever pushed so each pixel is tested once.
	queued := make([]bool, width*height)
	offs := opts.Connectivity.offsets()

	start := seed.Y*width + seed.X
	queue := []int{start}
	queued[start] = true
	region.Bits[start] = true
	area := 1

	for head := 0; head < len(queue); head++ {
		if head%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		idx := queue[head]
		x, y := idx%width, idx/width
		for _, o := range offs {
			nx, ny := x+o.X, y+o.Y
			if nx < 0 || ny < 0 || nx >= width || ny >= height {
				continue
			}
			n := ny*width + nx
			if queued[n] {
				continue
			}
			queued[n] = true
			if !pred.Admit(nx, ny) {
				continue
			}
			region.Bits[n] = true
			area++
			if opts.MaxArea > 0 && area > opts.MaxArea {
				return region, ErrAreaLimit
			}
			queue = append(queue, n)
		}
	}
	return region, nil
}

// IntensityPredicate admits pixels close to the seed either in luminance or
// in RGB color.
//
// With tolerance τ a pixel joins when |lum - seedLum| <= 2τ or when its RGB
// distance to the seed color, with channels scaled to [0,1], is <= 3.5τ.
type IntensityPredicate struct {
	img       *raster.Raster
	seedLum   float64
	seedR     float64
	seedG     float64
	seedB     float64
	lumLimit  float64
	rgbLimit2 float64

	// Restrict, when set, additionally requires the pixel to have the same
	// mask value as the seed.
	Restrict  *raster.Mask
	seedClass bool
}

// NewIntensityPredicate samples the seed color from img. Seed must be inside
// the raster.
func NewIntensityPredicate(img *raster.Raster, seed image.Point, tolerance float64) *IntensityPredicate {
	r, g, b := img.RGB(seed.X, seed.Y)
	rgbLimit := 3.5 * tolerance
	return &IntensityPredicate{
		img:       img,
		seedLum:   raster.Luminance(r, g, b),
		seedR:     float64(r) / 255,
		seedG:     float64(g) / 255,
		seedB:     float64(b) / 255,
		lumLimit:  2 * tolerance,
		rgbLimit2: rgbLimit * rgbLimit,
	}
}

// WithRestrict limits growth to pixels that share the seed's value in m.
func (p *IntensityPredicate) WithRestrict(m *raster.Mask, seed image.Point) *IntensityPredicate {
	p.Restrict = m
	p.seedClass = m.At(seed.X, seed.Y)
	return p
}

// Admit implements Predicate.
func (p *IntensityPredicate) Admit(x, y int) bool {
	if p.Restrict != nil && p.Restrict.At(x, y) != p.seedClass {
		return false
	}
	r, g, b := p.img.RGB(x, y)
	lum := raster.Luminance(r, g, b)
	if d := lum - p.seedLum; d <= p.lumLimit && d >= -p.lumLimit {
		return true
	}
	dr := float64(r)/255 - p.seedR
	dg := float64(g)/255 - p.seedG
	db := float64(b)/255 - p.seedB
	return dr*dr+dg*dg+db*db <= p.rgbLimit2
}

// MaskPredicate admits pixels whose value in Mask equals Want.
type MaskPredicate struct {
	Mask *raster.Mask
	Want bool
}

// Admit implements Predicate.
func (p MaskPredicate) Admit(x, y int) bool {
	return p.Mask.At(x, y) == p.Want
}
