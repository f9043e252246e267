package boundary

import (
	"math"

	"github.com/ironsheep/slabtrace/internal/geometry"
	"github.com/ironsheep/slabtrace/internal/raster"
)

// RayOptions configures RayCast.
type RayOptions struct {
	// StepDegrees is the angular step between rays.
	StepDegrees float64

	// GapAllowedMin is the gap length, in pixels, that is always bridged.
	GapAllowedMin int

	// GapAllowedMax is the longest gap that may be bridged. Gaps longer than
	// GapAllowedMin but not longer than this are bridged only when the mask
	// then continues for at least GapAllowedMin pixels.
	GapAllowedMax int

	// ContinueSearchDistance is how far past the first outside pixel a ray
	// looks for the mask to resume.
	ContinueSearchDistance int

	// MaxRadius caps the ray length. Zero means the image diagonal.
	MaxRadius int
}

// DefaultRayOptions returns 1° rays bridging gaps of 3 pixels, and up to 8
// pixels when followed by solid mask, within a 15 pixel look-ahead.
func DefaultRayOptions() RayOptions {
	return RayOptions{
		StepDegrees:            1,
		GapAllowedMin:          3,
		GapAllowedMax:          8,
		ContinueSearchDistance: 15,
	}
}

// RayCast sweeps rays from seed over the full circle and returns, for each
// angle, the point half a step past the last sample confirmed inside m,
// which lies on the pixel edge. Pixels outside the image count as outside
// the mask.
//
// The result has one point per ray, ordered by angle from 0. A seed outside
// the mask yields the seed itself for every ray.
func RayCast(m *raster.Mask, seed geometry.Point, opts RayOptions) []geometry.Point {
	step := opts.StepDegrees
	if step <= 0 {
		step = 1
	}
	maxR := opts.MaxRadius
	if maxR <= 0 {
		maxR = int(math.Ceil(math.Hypot(float64(m.Width), float64(m.Height))))
	}

	n := int(math.Round(360 / step))
	if n < 1 {
		n = 1
	}
	points := make([]geometry.Point, n)
	for i := 0; i < n; i++ {
		theta := float64(i) * 2 * math.Pi / float64(n)
		dx, dy := math.Cos(theta), math.Sin(theta)
		r, ok := castRay(m, seed, dx, dy, maxR, opts)
		if !ok {
			points[i] = seed
			continue
		}
		// The mask ends between the last inside sample and the next one.
		radius := float64(r) + PixelEdge
		points[i] = geometry.Point{X: seed.X + radius*dx, Y: seed.Y + radius*dy}
	}
	return points
}

// castRay marches from seed along (dx, dy) in unit steps and returns the
// radius of the last confirmed inside sample. It reports false when the seed
// itself is outside the mask.
func castRay(m *raster.Mask, seed geometry.Point, dx, dy float64, maxR int, opts RayOptions) (int, bool) {
	inside := func(r int) bool {
		x := int(math.Round(seed.X + float64(r)*dx))
		y := int(math.Round(seed.Y + float64(r)*dy))
		return m.At(x, y)
	}

	if !inside(0) {
		return 0, false
	}
	last := 0
	r := 1
	for r <= maxR {
		if inside(r) {
			last = r
			r++
			continue
		}

		// r is the first outside sample; look for the mask to resume.
		resume := -1
		for s := r + 1; s <= r+opts.ContinueSearchDistance && s <= maxR; s++ {
			if inside(s) {
				resume = s
				break
			}
		}
		if resume < 0 {
			return last, true
		}

		gap := resume - r
		switch {
		case gap <= opts.GapAllowedMin:
		case gap <= opts.GapAllowedMax && persists(inside, resume, opts.GapAllowedMin, maxR):
		default:
			return last, true
		}
		r = resume
	}
	return last, true
}

// persists reports whether samples from..from+length-1 are all inside.
func persists(inside func(int) bool, from, length, maxR int) bool {
	for s := from; s < from+length; s++ {
		if s > maxR || !inside(s) {
			return false
		}
	}
	return true
}
