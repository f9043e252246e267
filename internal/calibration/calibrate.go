package calibration

import (
	"fmt"
	"math"

	"github.com/ironsheep/slabtrace/internal/geometry"
)

// Accepted range of the pixel-to-millimeter ratio, inclusive.
const (
	MinRatio = 0.01
	MaxRatio = 100.0
)

// MinMarkerDistance is the smallest pixel separation between the calibrating
// markers.
const MinMarkerDistance = 10.0

// Reference holds the physical marker distances used for calibration.
type Reference struct {
	Layout Layout `json:"layout"`

	// OriginToXAxisMm is the real distance between Origin and XAxis. It is
	// only used by the four-marker layout.
	OriginToXAxisMm float64 `json:"origin_to_x_axis_mm"`

	// OriginToScaleMm is the real distance between Origin and Scale.
	OriginToScaleMm float64 `json:"origin_to_scale_mm"`

	// Anisotropic keeps separate X and Y ratios in the four-marker layout
	// instead of averaging them.
	Anisotropic bool `json:"anisotropic"`
}

// DefaultReference returns the four-marker layout on a 300×200 mm rectangle.
func DefaultReference() Reference {
	return Reference{
		Layout:          Layout4,
		OriginToXAxisMm: 300,
		OriginToScaleMm: 200,
	}
}

// Calibrate derives a CoordinateSystem from located markers.
//
// The X axis runs from Origin to XAxis. With three markers the ratio is
// OriginToScaleMm over the Origin-Scale pixel distance; with four it is the
// mean of that and OriginToXAxisMm over the Origin-XAxis pixel distance.
// Failures are returned as *CalibrationError.
func Calibrate(markers MarkerSet, ref Reference) (*CoordinateSystem, error) {
	if err := markers.Validate(ref.Layout); err != nil {
		return nil, err
	}
	origin, _ := markers.Get(Origin)
	xAxis, _ := markers.Get(XAxis)
	scale, _ := markers.Get(Scale)

	o := geometry.FromImagePoint(origin.Point())
	x := geometry.FromImagePoint(xAxis.Point())
	s := geometry.FromImagePoint(scale.Point())

	dScale := o.Dist(s)
	if dScale < MinMarkerDistance {
		return nil, &CalibrationError{
			Kind:   ErrDegenerateMarkers,
			Detail: fmt.Sprintf("origin-scale distance %.1f px", dScale),
		}
	}
	dX := o.Dist(x)
	if dX < MinMarkerDistance {
		return nil, &CalibrationError{
			Kind:   ErrDegenerateMarkers,
			Detail: fmt.Sprintf("origin-x axis distance %.1f px", dX),
		}
	}

	angle := math.Atan2(x.Y-o.Y, x.X-o.X)

	ratioY := ref.OriginToScaleMm / dScale
	ratioX := ratioY
	if ref.Layout == Layout4 {
		ratioX = ref.OriginToXAxisMm / dX
	}

	// Only the ratios the transform uses are range checked.
	scaleX, scaleY := ratioX, ratioY
	if !ref.Anisotropic {
		mean := (ratioX + ratioY) / 2
		scaleX, scaleY = mean, mean
	}
	if err := checkRatio(scaleX); err != nil {
		return nil, err
	}
	if err := checkRatio(scaleY); err != nil {
		return nil, err
	}

	cs, err := NewCoordinateSystem(o, angle, scaleX, scaleY)
	if err != nil {
		return nil, err
	}
	cs.Markers = append(MarkerSet(nil), markers...)
	return cs, nil
}

func checkRatio(r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) || r < MinRatio || r > MaxRatio {
		return &CalibrationError{Kind: ErrRatioOutOfRange, Detail: fmt.Sprintf("%g mm/px", r)}
	}
	return nil
}
