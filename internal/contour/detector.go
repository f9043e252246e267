package contour

import (
	"context"
	"fmt"
	"time"

	"github.com/ironsheep/slabtrace/internal/calibration"
	"github.com/ironsheep/slabtrace/internal/geometry"
	"github.com/ironsheep/slabtrace/internal/raster"
)

// Request is one contour detection.
type Request struct {
	Image *raster.Raster

	// Seed is a pixel inside the slab. Nil means the image center.
	Seed *geometry.Point

	// Coords converts the outline to machine units. Nil leaves the machine
	// fields empty.
	Coords *calibration.CoordinateSystem
}

// Detector tries strategies in order and returns the first outline that
// passes validation.
type Detector struct {
	registry *Registry
	opts     Options
}

// NewDetector creates a detector. A nil registry means DefaultRegistry.
func NewDetector(registry *Registry, opts Options) *Detector {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if len(opts.Order) == 0 {
		opts.Order = DefaultOptions().Order
	}
	return &Detector{registry: registry, opts: opts}
}

// Options returns the detector's configuration.
func (d *Detector) Options() Options {
	return d.opts
}

// Detect never fails. When no strategy yields a valid outline it returns the
// configured fallback shape around the seed with Fallback set and zero
// confidence; Attempts says what went wrong with each strategy.
func (d *Detector) Detect(ctx context.Context, req Request) ContourResult {
	in := Input{Image: req.Image, Coords: req.Coords}
	if req.Seed != nil {
		in.Seed = *req.Seed
	} else if req.Image != nil {
		in.Seed = geometry.Pt(float64(req.Image.Width/2), float64(req.Image.Height/2))
	}

	if req.Image == nil || req.Image.Width == 0 || req.Image.Height == 0 {
		res := d.fallback(in, nil)
		res.Attempts = []Attempt{{Strategy: Threshold, Error: "empty image"}}
		return res
	}
	in.Gray = req.Image.Gray()

	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	attempts := make([]Attempt, 0, len(d.opts.Order))
	for _, kind := range d.opts.Order {
		start := time.Now()
		res, err := d.attempt(ctx, kind, in)
		a := Attempt{Strategy: kind, Duration: time.Since(start)}
		if err == nil {
			err = d.validate(res, in)
		}
		if err != nil {
			a.Error = err.Error()
			attempts = append(attempts, a)
			d.opts.debugf("contour: %s failed after %v: %v", kind, a.Duration, err)
			continue
		}
		attempts = append(attempts, a)
		d.opts.debugf("contour: %s succeeded in %v (%d points, confidence %.2f)",
			kind, a.Duration, len(res.PixelContour), res.Confidence)
		res.Attempts = attempts
		return res
	}

	d.opts.debugf("contour: all strategies failed, using fallback outline")
	return d.fallback(in, attempts)
}

func (d *Detector) attempt(ctx context.Context, kind Kind, in Input) (ContourResult, error) {
	if err := ctx.Err(); err != nil {
		return ContourResult{}, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if dl, ok := ctx.Deadline(); ok && !time.Now().Before(dl) {
		return ContourResult{}, fmt.Errorf("%w: %v", ErrTimeout, context.DeadlineExceeded)
	}
	s, ok := d.registry.Get(kind)
	if !ok {
		return ContourResult{}, fmt.Errorf("%w: %s", ErrNoStrategy, kind)
	}
	return withBudget(ctx, func(ctx context.Context) (ContourResult, error) {
		return s.Detect(ctx, in, d.opts)
	})
}

// validate rejects outlines a caller should not trust.
func (d *Detector) validate(res ContourResult, in Input) error {
	if res.Fallback {
		return fmt.Errorf("%w: strategy degraded to a fallback outline", ErrRegionTooSmall)
	}
	if n := len(res.PixelContour); n < d.opts.MinPoints || n < 3 {
		return fmt.Errorf("%w: %d points", ErrBoundaryTooShort, n)
	}
	for _, p := range res.PixelContour {
		if !p.IsFinite() {
			return ErrInvalidContour
		}
	}
	if res.Area < float64(d.opts.MinRegionPixels) {
		return fmt.Errorf("%w: area %.0f", ErrRegionTooSmall, res.Area)
	}
	if d.opts.MaxAreaFraction > 0 {
		if limit := d.opts.MaxAreaFraction * float64(in.Image.Width*in.Image.Height); res.Area > limit {
			return fmt.Errorf("%w: area %.0f exceeds %.0f", ErrRegionLeak, res.Area, limit)
		}
	}
	if d.opts.RequireSeedInside && !geometry.PointInPolygon(in.Seed, res.PixelContour) {
		return fmt.Errorf("%w: seed not enclosed by the outline", ErrSeedOutside)
	}
	return nil
}

func (d *Detector) fallback(in Input, attempts []Attempt) ContourResult {
	strategy := Threshold
	if len(d.opts.Order) > 0 {
		strategy = d.opts.Order[0]
	}
	res := newResult(fallbackOutline(in.Seed, d.opts.FallbackShape, d.opts.FallbackRadius), strategy, true, in.Coords)
	res.Confidence = 0
	res.Attempts = attempts
	return res
}
