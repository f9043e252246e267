package contour

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/slabtrace/internal/boundary"
	"github.com/ironsheep/slabtrace/internal/filter"
	"github.com/ironsheep/slabtrace/internal/segment"
)

// ThresholdStrategy grows a region of pixels whose luminance or RGB color is
// close to the seed's.
//
// The tolerance τ is half the distance between the seed luminance and the
// Otsu threshold, clamped to [MinTolerance, MaxTolerance]. A pixel joins when
// its luminance is within 2τ of the seed or its RGB distance is within 3.5τ.
// The region is closed, reduced to the seed's component and traced.
type ThresholdStrategy struct{}

// Kind implements Strategy.
func (ThresholdStrategy) Kind() Kind { return Threshold }

// Detect implements Strategy.
func (ThresholdStrategy) Detect(ctx context.Context, in Input, opts Options) (ContourResult, error) {
	seed := in.seedPixel()
	if !in.Image.In(seed.X, seed.Y) {
		return degrade(in, Threshold, opts, ErrSeedOutside)
	}

	otsu := filter.OtsuThreshold(in.Gray)
	tolerance := Tolerance(in.Gray.At(seed.X, seed.Y), otsu, opts.MinTolerance, opts.MaxTolerance)
	opts.debugf("threshold: otsu=%.3f tolerance=%.3f", otsu, tolerance)

	pred := segment.NewIntensityPredicate(in.Image, seed, tolerance)
	if opts.Adaptive {
		pred.WithRestrict(filter.AdaptiveThreshold(in.Gray, opts.AdaptiveRadius, opts.AdaptiveOffset), seed)
	}

	region, err := segment.Grow(ctx, in.Image.Width, in.Image.Height, seed, pred, segment.GrowOptions{
		Connectivity: opts.Connectivity,
		MaxArea:      maxArea(in, opts),
	})
	if err != nil {
		return degrade(in, Threshold, opts, growError(err))
	}
	if n := region.Count(); n < opts.MinRegionPixels {
		return degrade(in, Threshold, opts, fmt.Errorf("%w: %d pixels", ErrRegionTooSmall, n))
	}

	closed := seedComponent(segment.FillHoles(segment.Close(region, opts.CloseKernel)), seed, opts.Connectivity)
	raw, err := boundary.Trace(ctx, closed, opts.TraceMaxSteps)
	if err != nil {
		return degrade(in, Threshold, opts, growError(err))
	}
	return finish(in, Threshold, raw, opts)
}

// Tolerance derives the region-growing tolerance from the seed luminance and
// the global Otsu threshold.
func Tolerance(seedLum, otsu, minTol, maxTol float64) float64 {
	return math.Max(minTol, math.Min(maxTol, math.Abs(seedLum-otsu)/2))
}

// growError maps segmentation package errors onto this package's kinds.
func growError(err error) error {
	switch {
	case errors.Is(err, segment.ErrAreaLimit):
		return ErrRegionLeak
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, boundary.ErrEmptyMask):
		return ErrRegionTooSmall
	}
	return err
}
