package calibration

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/slabtrace/internal/geometry"
)

// CoordinateSystem maps between pixel and machine coordinates.
//
// A CoordinateSystem is immutable once built and safe for concurrent use.
type CoordinateSystem struct {
	// Origin is the pixel position of machine (0,0).
	Origin geometry.Point `json:"origin"`

	// Angle is the direction of the machine X axis in the image, in radians.
	Angle float64 `json:"angle"`

	// ScaleX and ScaleY are millimeters per pixel along each machine axis.
	// They are equal unless calibration was anisotropic.
	ScaleX float64 `json:"scale_x"`
	ScaleY float64 `json:"scale_y"`

	// Markers is the set the system was calibrated from, if any.
	Markers MarkerSet `json:"markers,omitempty"`

	toMachine *mat.Dense
	toPixel   *mat.Dense
}

// NewCoordinateSystem builds the affine map for the given origin, X-axis
// angle and per-axis scales. Scales must be finite and positive.
func NewCoordinateSystem(origin geometry.Point, angle, scaleX, scaleY float64) (*CoordinateSystem, error) {
	for _, s := range []float64{scaleX, scaleY} {
		if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
			return nil, &CalibrationError{Kind: ErrRatioOutOfRange, Detail: fmt.Sprintf("scale %g", s)}
		}
	}

	cos, sin := math.Cos(angle), math.Sin(angle)
	// Rotate the offset from origin into the marker frame, then flip Y so it
	// points up the image.
	m := mat.NewDense(3, 3, []float64{
		scaleX * cos, scaleX * sin, -scaleX * (cos*origin.X + sin*origin.Y),
		scaleY * sin, -scaleY * cos, -scaleY * (sin*origin.X - cos*origin.Y),
		0, 0, 1,
	})

	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return nil, &CalibrationError{Kind: ErrSingularTransform, Detail: err.Error()}
	}

	return &CoordinateSystem{
		Origin:    origin,
		Angle:     angle,
		ScaleX:    scaleX,
		ScaleY:    scaleY,
		toMachine: m,
		toPixel:   &inv,
	}, nil
}

// Ratio returns the mean millimeters per pixel.
func (cs *CoordinateSystem) Ratio() float64 {
	return (cs.ScaleX + cs.ScaleY) / 2
}

// PixelToMachine converts a pixel position to machine millimeters.
func (cs *CoordinateSystem) PixelToMachine(p geometry.Point) geometry.Point {
	return apply(cs.toMachine, p)
}

// MachineToPixel converts machine millimeters to a pixel position.
func (cs *CoordinateSystem) MachineToPixel(p geometry.Point) geometry.Point {
	return apply(cs.toPixel, p)
}

// PixelsToMachine converts a whole contour with one matrix product.
func (cs *CoordinateSystem) PixelsToMachine(points []geometry.Point) []geometry.Point {
	return applyAll(cs.toMachine, points)
}

// MachinesToPixel converts a whole machine-space contour back to pixels.
func (cs *CoordinateSystem) MachinesToPixel(points []geometry.Point) []geometry.Point {
	return applyAll(cs.toPixel, points)
}

// Distance returns the machine distance in millimeters between two pixel
// positions.
func (cs *CoordinateSystem) Distance(a, b geometry.Point) float64 {
	return cs.PixelToMachine(a).Dist(cs.PixelToMachine(b))
}

func apply(m *mat.Dense, p geometry.Point) geometry.Point {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{p.X, p.Y, 1}))
	return geometry.Point{X: out.AtVec(0), Y: out.AtVec(1)}
}

func applyAll(m *mat.Dense, points []geometry.Point) []geometry.Point {
	if len(points) == 0 {
		return []geometry.Point{}
	}
	n := len(points)
	in := mat.NewDense(3, n, nil)
	for i, p := range points {
		in.Set(0, i, p.X)
		in.Set(1, i, p.Y)
		in.Set(2, i, 1)
	}
	var out mat.Dense
	out.Mul(m, in)

	res := make([]geometry.Point, n)
	for i := range res {
		res[i] = geometry.Point{X: out.At(0, i), Y: out.At(1, i)}
	}
	return res
}
