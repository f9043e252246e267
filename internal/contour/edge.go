package contour

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/slabtrace/internal/boundary"
	"github.com/ironsheep/slabtrace/internal/filter"
	"github.com/ironsheep/slabtrace/internal/geometry"
	"github.com/ironsheep/slabtrace/internal/raster"
	"github.com/ironsheep/slabtrace/internal/segment"
)

// EdgeStrategy outlines the region enclosed by strong gradients around the
// seed.
//
// The gray image is equalized, blurred and run through Sobel. The magnitude
// is binarized at its Otsu threshold, floored by MinEdgeMagnitude. The edge
// map is closed to seal small gaps and the non-edge component holding the
// seed is ray cast. If the outline is shorter than MinEdgePoints or the
// region leaks, the closing kernel grows by 2 up to MaxEdgeKernel.
type EdgeStrategy struct{}

// Kind implements Strategy.
func (EdgeStrategy) Kind() Kind { return Edge }

// Detect implements Strategy.
func (EdgeStrategy) Detect(ctx context.Context, in Input, opts Options) (ContourResult, error) {
	seed := in.seedPixel()
	if !in.Image.In(seed.X, seed.Y) {
		return degrade(in, Edge, opts, ErrSeedOutside)
	}

	edges := EdgeMap(in.Gray, opts.BlurRadius, opts.MinEdgeMagnitude)
	limit := maxArea(in, opts)

	first := max(opts.EdgeKernel, 1)
	last := max(opts.MaxEdgeKernel, first)
	lastErr := error(ErrBoundaryTooShort)
	for kernel := first; kernel <= last; kernel += 2 {
		if err := ctx.Err(); err != nil {
			return degrade(in, Edge, opts, growError(err))
		}

		closed := segment.Close(edges, kernel)
		start, ok := nudgeSeed(closed, seed, opts.NudgeRadius)
		if !ok {
			lastErr = fmt.Errorf("%w: seed on an edge (kernel %d)", ErrRegionTooSmall, kernel)
			continue
		}

		region, err := segment.Grow(ctx, closed.Width, closed.Height, start,
			segment.MaskPredicate{Mask: closed, Want: false},
			segment.GrowOptions{Connectivity: opts.Connectivity, MaxArea: limit})
		if err != nil {
			lastErr = growError(err)
			if errors.Is(lastErr, ErrTimeout) {
				break
			}
			opts.debugf("edge: kernel %d: %v", kernel, lastErr)
			continue
		}
		if n := region.Count(); n < opts.MinRegionPixels {
			lastErr = fmt.Errorf("%w: %d pixels (kernel %d)", ErrRegionTooSmall, n, kernel)
			continue
		}

		raw := boundary.RayCast(region, geometry.FromImagePoint(start), opts.Rays)
		if n := distinctPoints(raw); n < opts.MinEdgePoints {
			lastErr = fmt.Errorf("%w: %d points (kernel %d)", ErrBoundaryTooShort, n, kernel)
			continue
		}
		return finish(in, Edge, raw, opts)
	}
	return degrade(in, Edge, opts, lastErr)
}

// EdgeMap computes the binary edge map used by EdgeStrategy.
func EdgeMap(g *raster.GrayMap, blurRadius, minMagnitude float64) *raster.Mask {
	mag := filter.SobelMagnitude(filter.GaussianBlur(filter.Equalize(g), blurRadius))
	t := math.Max(filter.OtsuThreshold(mag), minMagnitude)
	return filter.Threshold(mag, t)
}

// nudgeSeed moves the seed to the nearest non-edge pixel within radius.
func nudgeSeed(edges *raster.Mask, seed image.Point, radius int) (image.Point, bool) {
	if !edges.At(seed.X, seed.Y) {
		return seed, true
	}
	for r := 1; r <= radius; r++ {
		best, bestDist := image.Point{}, math.Inf(1)
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if max(abs(dx), abs(dy)) != r {
					continue
				}
				p := seed.Add(image.Pt(dx, dy))
				if !edges.In(p.X, p.Y) || edges.At(p.X, p.Y) {
					continue
				}
				if d := math.Hypot(float64(dx), float64(dy)); d < bestDist {
					best, bestDist = p, d
				}
			}
		}
		if !math.IsInf(bestDist, 1) {
			return best, true
		}
	}
	return seed, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// distinctPoints counts the different pixels an outline visits.
func distinctPoints(points []geometry.Point) int {
	seen := make(map[image.Point]struct{}, len(points))
	for _, p := range points {
		seen[p.Image()] = struct{}{}
	}
	return len(seen)
}
