package contour

import (
	"errors"
	"time"

	"github.com/ironsheep/slabtrace/internal/calibration"
	"github.com/ironsheep/slabtrace/internal/geometry"
	"github.com/ironsheep/slabtrace/internal/segment"
)

// Segmentation failures. They are recorded per attempt and never returned
// from Detect.
var (
	ErrRegionTooSmall   = errors.New("region too small")
	ErrBoundaryTooShort = errors.New("boundary too short")
	ErrRegionLeak       = errors.New("region leaked into the background")
	ErrInvalidContour   = errors.New("contour has non-finite coordinates")
	ErrSeedOutside      = segment.ErrSeedOutside
	ErrTimeout          = errors.New("detection time budget exceeded")
	ErrNoStrategy       = errors.New("no strategy registered")
)

// Attempt records the outcome of one strategy.
type Attempt struct {
	Strategy Kind          `json:"strategy"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// ContourResult is a detected outline in pixel space and, when a coordinate
// system is available, in machine millimeters.
type ContourResult struct {
	PixelContour   []geometry.Point `json:"pixel_contour"`
	MachineContour []geometry.Point `json:"machine_contour,omitempty"`

	// Area and Perimeter are in pixels; the Mm variants are in machine units
	// and zero without a coordinate system.
	Area        float64 `json:"area"`
	Perimeter   float64 `json:"perimeter"`
	AreaMm2     float64 `json:"area_mm2,omitempty"`
	PerimeterMm float64 `json:"perimeter_mm,omitempty"`

	// Confidence is the contour's solidity (area over convex hull area) for
	// detected outlines and 0 for fallbacks.
	Confidence float64 `json:"confidence"`
	Fallback   bool    `json:"fallback"`

	// SelfIntersections counts crossing edge pairs. Crossing outlines are
	// kept; the count lets callers judge them.
	SelfIntersections int `json:"self_intersections"`

	// Strategy produced the outline. It is meaningless when Fallback is set
	// by the detector.
	Strategy Kind      `json:"strategy"`
	Attempts []Attempt `json:"attempts,omitempty"`
}

// newResult measures an outline and converts it to machine coordinates.
func newResult(points []geometry.Point, kind Kind, fallback bool, cs *calibration.CoordinateSystem) ContourResult {
	res := ContourResult{
		PixelContour: points,
		Area:         geometry.Area(points),
		Perimeter:    geometry.Perimeter(points),
		Fallback:     fallback,
		Strategy:     kind,
	}
	if !fallback {
		if hull := geometry.Area(geometry.ConvexHull(points)); hull > 0 {
			res.Confidence = res.Area / hull
		}
		res.SelfIntersections = geometry.SelfIntersections(points)
	}
	if cs != nil {
		res.MachineContour = cs.PixelsToMachine(points)
		res.AreaMm2 = geometry.Area(res.MachineContour)
		res.PerimeterMm = geometry.Perimeter(res.MachineContour)
	}
	return res
}

// fallbackOutline returns the synthetic shape centered on seed.
func fallbackOutline(seed geometry.Point, shape Shape, radius float64) []geometry.Point {
	if radius <= 0 {
		radius = DefaultOptions().FallbackRadius
	}
	if shape == ShapeRoundedRect {
		return geometry.RoundedRect(seed, 2*radius, 1.4*radius, radius/4, 8)
	}
	return geometry.Circle(seed, radius, 32)
}
