package calibration

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/slabtrace/internal/filter"
	"github.com/ironsheep/slabtrace/internal/raster"
)

// Contrast thresholds for accepting a located marker.
const (
	LenientContrast = 0.15
	StrictContrast  = 0.25
)

// LocatorOptions configures marker search.
type LocatorOptions struct {
	// MinContrast rejects positions whose score is below it.
	MinContrast float64

	// Window overrides the sliding window size. Zero derives it from the
	// search region as max(5, min(w,h)/6).
	Window int

	// CornerFraction is the share of the image width and height covered by
	// each corner search region.
	CornerFraction float64

	// SearchRadius is the half-size of the region searched around a tap.
	SearchRadius int
}

// DefaultLocatorOptions returns lenient options for automatic detection.
func DefaultLocatorOptions() LocatorOptions {
	return LocatorOptions{
		MinContrast:    LenientContrast,
		CornerFraction: 1.0 / 3.0,
		SearchRadius:   60,
	}
}

// Candidate is the best-scoring window of a search region.
type Candidate struct {
	Center      image.Point
	Score       float64
	DarkOnLight bool
}

// Locate slides a window over region and returns the position that differs
// most from the region mean, in the direction implied by the region's
// brightness.
//
// A region brighter than 0.5 on average is searched for a dark marker and
// vice versa. The boolean is false when the best score is below
// opts.MinContrast or the region is empty.
func Locate(it *filter.Integral, region image.Rectangle, opts LocatorOptions) (Candidate, bool) {
	region = region.Intersect(image.Rect(0, 0, it.Width, it.Height))
	if region.Empty() {
		return Candidate{}, false
	}

	regionMean := it.Mean(region)
	darkOnLight := regionMean > 0.5

	window := opts.Window
	if window <= 0 {
		window = max(5, min(region.Dx(), region.Dy())/6)
	}
	window = min(window, region.Dx(), region.Dy())
	stride := max(1, window/3)

	best := Candidate{Score: math.Inf(-1), DarkOnLight: darkOnLight}
	for y := region.Min.Y; y+window <= region.Max.Y; y += stride {
		for x := region.Min.X; x+window <= region.Max.X; x += stride {
			mean := it.Mean(image.Rect(x, y, x+window, y+window))
			score := mean - regionMean
			if darkOnLight {
				score = -score
			}
			if score > best.Score {
				best.Score = score
				best.Center = image.Pt(x+window/2, y+window/2)
			}
		}
	}
	return best, best.Score >= opts.MinContrast
}

// LocateNear searches a square of opts.SearchRadius around tap. When no
// marker stands out it returns the tap itself with zero confidence and false.
func LocateNear(it *filter.Integral, tap image.Point, role Role, opts LocatorOptions) (MarkerPoint, bool) {
	r := opts.SearchRadius
	if r <= 0 {
		r = DefaultLocatorOptions().SearchRadius
	}
	region := image.Rect(tap.X-r, tap.Y-r, tap.X+r+1, tap.Y+r+1)
	c, ok := Locate(it, region, opts)
	if !ok {
		return MarkerPoint{X: tap.X, Y: tap.Y, Role: role}, false
	}
	return MarkerPoint{X: c.Center.X, Y: c.Center.Y, Role: role, Confidence: confidence(c.Score)}, true
}

// CornerRegions returns the top-left, top-right, bottom-left and bottom-right
// search regions of a width×height image.
func CornerRegions(width, height int, fraction float64) []image.Rectangle {
	if fraction <= 0 || fraction > 1 {
		fraction = 1.0 / 3.0
	}
	rw := int(float64(width) * fraction)
	rh := int(float64(height) * fraction)
	return []image.Rectangle{
		image.Rect(0, 0, rw, rh),
		image.Rect(width-rw, 0, width, rh),
		image.Rect(0, height-rh, rw, height),
		image.Rect(width-rw, height-rh, width, height),
	}
}

// DetectMarkers searches the four image corners and assigns roles to the
// markers found. It fails with a *CalibrationError when fewer markers than
// the layout requires stand out.
func DetectMarkers(ctx context.Context, img *raster.Raster, layout Layout, opts LocatorOptions) (MarkerSet, error) {
	it := filter.NewIntegral(img.Gray())

	var found []MarkerPoint
	for _, region := range CornerRegions(img.Width, img.Height, opts.CornerFraction) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c, ok := Locate(it, region, opts); ok {
			found = append(found, MarkerPoint{X: c.Center.X, Y: c.Center.Y, Confidence: confidence(c.Score)})
		}
	}

	if len(found) < len(layout.Roles()) {
		return nil, &CalibrationError{
			Kind:   ErrMissingRole,
			Detail: fmt.Sprintf("found %d of %d markers", len(found), len(layout.Roles())),
		}
	}
	set, err := AssignRoles(found)
	if err != nil {
		return nil, err
	}
	if layout == Layout3 {
		trimmed := set[:0:0]
		for _, m := range set {
			if m.Role != TopRight {
				trimmed = append(trimmed, m)
			}
		}
		set = trimmed
	}
	return set, nil
}

func confidence(score float64) float64 {
	return math.Max(0, math.Min(1, score))
}
