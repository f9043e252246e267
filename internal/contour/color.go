package contour

import (
	"context"
	"fmt"

	"github.com/ironsheep/slabtrace/internal/boundary"
	"github.com/ironsheep/slabtrace/internal/segment"
)

// ColorStrategy grows a region of pixels whose hue, saturation and value are
// close to the color sampled around the seed, then closes and traces it.
//
// It separates slabs by hue first. A slab with the background's hue is
// found only when its value differs by more than ColorTolerance divided
// by the value weight.
type ColorStrategy struct{}

// Kind implements Strategy.
func (ColorStrategy) Kind() Kind { return Color }

// Detect implements Strategy.
func (ColorStrategy) Detect(ctx context.Context, in Input, opts Options) (ContourResult, error) {
	seed := in.seedPixel()
	if !in.Image.In(seed.X, seed.Y) {
		return degrade(in, Color, opts, ErrSeedOutside)
	}

	ref := segment.SampleHSV(in.Image, seed, 1)
	opts.debugf("color: seed hsv=(%.1f, %.2f, %.2f)", ref.H, ref.S, ref.V)
	pred := segment.NewHSVPredicate(in.Image, ref, opts.HSVWeights, opts.ColorTolerance)

	region, err := segment.Grow(ctx, in.Image.Width, in.Image.Height, seed, pred, segment.GrowOptions{
		Connectivity: opts.Connectivity,
		MaxArea:      maxArea(in, opts),
	})
	if err != nil {
		return degrade(in, Color, opts, growError(err))
	}
	if n := region.Count(); n < opts.MinRegionPixels {
		return degrade(in, Color, opts, fmt.Errorf("%w: %d pixels", ErrRegionTooSmall, n))
	}

	closed := seedComponent(segment.FillHoles(segment.Close(region, opts.CloseKernel)), seed, opts.Connectivity)
	raw, err := boundary.Trace(ctx, closed, opts.TraceMaxSteps)
	if err != nil {
		return degrade(in, Color, opts, growError(err))
	}
	return finish(in, Color, raw, opts)
}
