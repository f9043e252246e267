// Package geometry provides the pure 2D geometry used by the vision pipeline:
// points, polygon measures, convex hulls, intersections and contour
// simplification.
//
// Polygons are slices of Point and are implicitly closed: the last point
// connects back to the first. Functions never modify their input slices.
package geometry

import (
	"image"
	"math"
)

// Point is a 2D point with floating-point coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// FromImagePoint converts an integer pixel coordinate.
func FromImagePoint(p image.Point) Point {
	return Point{X: float64(p.X), Y: float64(p.Y)}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p scaled by f.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Image rounds p to the nearest pixel.
func (p Point) Image() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// cross computes the cross product of vectors OA and OB. Positive means
// B lies counter-clockwise of A in a Y-up frame.
func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func distSq(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns MaxX - MinX.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns MaxY - MinY.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// BoundingBox returns the axis-aligned bounds of points. An empty input
// yields the zero Rect.
func BoundingBox(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	r := Rect{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		r.MinX = math.Min(r.MinX, p.X)
		r.MinY = math.Min(r.MinY, p.Y)
		r.MaxX = math.Max(r.MaxX, p.X)
		r.MaxY = math.Max(r.MaxY, p.Y)
	}
	return r
}

// Circle returns n points evenly spaced on a circle, starting at angle 0.
func Circle(center Point, radius float64, n int) []Point {
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		a := float64(i) * 2 * math.Pi / float64(n)
		points[i] = Point{X: center.X + radius*math.Cos(a), Y: center.Y + radius*math.Sin(a)}
	}
	return points
}

// RoundedRect returns a closed outline of a w×h rectangle centered on center
// with corners rounded by radius r, using perCorner points for each arc.
func RoundedRect(center Point, w, h, r float64, perCorner int) []Point {
	r = math.Min(r, math.Min(w, h)/2)
	if perCorner < 2 {
		perCorner = 2
	}
	hx, hy := w/2-r, h/2-r
	corners := []struct {
		cx, cy, start float64
	}{
		{center.X + hx, center.Y + hy, 0},
		{center.X - hx, center.Y + hy, math.Pi / 2},
		{center.X - hx, center.Y - hy, math.Pi},
		{center.X + hx, center.Y - hy, 3 * math.Pi / 2},
	}
	points := make([]Point, 0, 4*perCorner)
	for _, c := range corners {
		for i := 0; i < perCorner; i++ {
			a := c.start + float64(i)*(math.Pi/2)/float64(perCorner-1)
			points = append(points, Point{X: c.cx + r*math.Cos(a), Y: c.cy + r*math.Sin(a)})
		}
	}
	return points
}
