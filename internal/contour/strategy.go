package contour

import (
	"context"
	"image"
	"sort"

	"github.com/ironsheep/slabtrace/internal/calibration"
	"github.com/ironsheep/slabtrace/internal/geometry"
	"github.com/ironsheep/slabtrace/internal/raster"
	"github.com/ironsheep/slabtrace/internal/segment"
)

// Input is what a strategy works on. Image and Gray are shared read-only
// between attempts.
type Input struct {
	Image  *raster.Raster
	Gray   *raster.GrayMap
	Seed   geometry.Point
	Coords *calibration.CoordinateSystem
}

func (in Input) seedPixel() image.Point {
	return in.Seed.Image()
}

// Strategy is one segmentation family.
//
// Detect always returns a usable result. When segmentation fails the result
// is a disk around the seed with Fallback set and the error says why.
type Strategy interface {
	Kind() Kind
	Detect(ctx context.Context, in Input, opts Options) (ContourResult, error)
}

// Registry maps kinds to strategies. It is built once and handed to the
// Detector; it is not safe for concurrent modification.
type Registry struct {
	strategies map[Kind]Strategy
}

// NewRegistry creates a registry holding the given strategies.
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[Kind]Strategy, len(strategies))}
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// DefaultRegistry holds the Threshold, Edge and Color strategies.
func DefaultRegistry() *Registry {
	return NewRegistry(ThresholdStrategy{}, EdgeStrategy{}, ColorStrategy{})
}

// Register adds s, replacing any strategy of the same kind.
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Kind()] = s
}

// Get returns the strategy for kind.
func (r *Registry) Get(kind Kind) (Strategy, bool) {
	s, ok := r.strategies[kind]
	return s, ok
}

// Kinds lists the registered kinds in ascending order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.strategies))
	for k := range r.strategies {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// degrade returns the fixed-radius disk a strategy substitutes on failure.
func degrade(in Input, kind Kind, opts Options, err error) (ContourResult, error) {
	return newResult(fallbackOutline(in.Seed, ShapeDisk, opts.FallbackRadius), kind, true, in.Coords), err
}

// finish runs the shared post-processing chain and measures the outline.
func finish(in Input, kind Kind, raw []geometry.Point, opts Options) (ContourResult, error) {
	if len(raw) < 3 {
		return degrade(in, kind, opts, ErrBoundaryTooShort)
	}
	return newResult(Postprocess(raw, opts), kind, false, in.Coords), nil
}

// seedComponent keeps only the connected component of m under the seed, or
// the largest one when the seed is not covered.
func seedComponent(m *raster.Mask, seed image.Point, conn segment.Connectivity) *raster.Mask {
	labels := segment.Label(m, conn)
	if id := labels.At(seed.X, seed.Y); id != 0 {
		return labels.Mask(id)
	}
	if c, ok := labels.Largest(); ok {
		return labels.Mask(c.ID)
	}
	return m
}

func maxArea(in Input, opts Options) int {
	if opts.MaxAreaFraction <= 0 {
		return 0
	}
	return int(opts.MaxAreaFraction * float64(in.Image.Width*in.Image.Height))
}
