package geometry

import (
	"math"
	"sort"
)

// ConvexHull computes the convex hull of points using a Graham scan.
//
// The pivot is the lowest (smallest Y), then leftmost point. The remaining
// points are sorted by polar angle around the pivot, nearer points first on
// ties, and a stack is maintained by discarding every non-left turn.
// Collinear boundary points are dropped. Inputs with fewer than three points
// are returned as a copy.
func ConvexHull(points []Point) []Point {
	if len(points) < 3 {
		out := make([]Point, len(points))
		copy(out, points)
		return out
	}

	pts := make([]Point, len(points))
	copy(pts, points)

	lowest := 0
	for i := 1; i < len(pts); i++ {
		if pts[i].Y < pts[lowest].Y ||
			(pts[i].Y == pts[lowest].Y && pts[i].X < pts[lowest].X) {
			lowest = i
		}
	}
	pts[0], pts[lowest] = pts[lowest], pts[0]
	pivot := pts[0]

	rest := pts[1:]
	sort.Slice(rest, func(i, j int) bool {
		c := cross(pivot, rest[i], rest[j])
		if c != 0 {
			return c > 0
		}
		return distSq(pivot, rest[i]) < distSq(pivot, rest[j])
	})

	hull := make([]Point, 0, len(pts))
	hull = append(hull, pivot)
	for _, p := range rest {
		if p == pivot {
			continue
		}
		for len(hull) > 1 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull
}

// IsConvex reports whether the polygon turns consistently in one direction.
func IsConvex(polygon []Point) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}
	sign := 0
	for i := 0; i < n; i++ {
		c := cross(polygon[i], polygon[(i+1)%n], polygon[(i+2)%n])
		if c == 0 {
			continue
		}
		s := 1
		if c < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}
	return true
}

// SignedArea returns the shoelace area of the closed polygon. The sign is
// positive for counter-clockwise order in a Y-up frame.
func SignedArea(polygon []Point) float64 {
	n := len(polygon)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	return sum / 2
}

// Area returns the absolute shoelace area of the closed polygon.
func Area(polygon []Point) float64 {
	return math.Abs(SignedArea(polygon))
}

// Perimeter returns the length of the closed polygon including the closing
// edge.
func Perimeter(polygon []Point) float64 {
	n := len(polygon)
	if n < 2 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += polygon[i].Dist(polygon[(i+1)%n])
	}
	return sum
}

// Outset moves every vertex of the closed polygon d units outward with
// mitered joins, so straight edges shift by exactly d. Miters are capped at
// 2d; where the outline doubles back on itself the vertex moves along the
// incoming edge instead.
func Outset(polygon []Point, d float64) []Point {
	n := len(polygon)
	if n < 2 {
		return append([]Point(nil), polygon...)
	}
	sign := 1.0
	if SignedArea(polygon) < 0 {
		sign = -1
	}

	out := make([]Point, n)
	for i, p := range polygon {
		u1, ok1 := unit(p.Sub(polygon[(i+n-1)%n]))
		u2, ok2 := unit(polygon[(i+1)%n].Sub(p))
		switch {
		case !ok1 && !ok2:
			out[i] = p
			continue
		case !ok1:
			u1 = u2
		case !ok2:
			u2 = u1
		}

		// Outward normals sit on the right of the direction of travel for
		// positive area.
		n1 := Point{X: sign * u1.Y, Y: -sign * u1.X}
		n2 := Point{X: sign * u2.Y, Y: -sign * u2.X}
		dot := n1.X*n2.X + n1.Y*n2.Y

		var v Point
		if 1+dot < 1e-9 {
			v = u1
		} else {
			v = n1.Add(n2).Scale(1 / (1 + dot))
			if l := math.Hypot(v.X, v.Y); l > 2 {
				v = v.Scale(2 / l)
			}
		}
		out[i] = p.Add(v.Scale(d))
	}
	return out
}

// unit returns v scaled to length 1, or false for a zero vector.
func unit(v Point) (Point, bool) {
	l := math.Hypot(v.X, v.Y)
	if l == 0 {
		return v, false
	}
	return v.Scale(1 / l), true
}

// Centroid returns the area centroid of the closed polygon. Degenerate
// polygons (zero area) fall back to the mean of the vertices.
func Centroid(polygon []Point) Point {
	n := len(polygon)
	if n == 0 {
		return Point{}
	}
	a := SignedArea(polygon)
	if math.Abs(a) < 1e-12 {
		var sx, sy float64
		for _, p := range polygon {
			sx += p.X
			sy += p.Y
		}
		return Point{X: sx / float64(n), Y: sy / float64(n)}
	}
	var cx, cy float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		f := polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
		cx += (polygon[i].X + polygon[j].X) * f
		cy += (polygon[i].Y + polygon[j].Y) * f
	}
	return Point{X: cx / (6 * a), Y: cy / (6 * a)}
}

// PointInPolygon tests p against the polygon with the ray-casting parity
// rule: a horizontal ray from p crosses the boundary an odd number of times
// exactly when p is inside.
func PointInPolygon(p Point, polygon []Point) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := polygon[i], polygon[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// SegmentIntersection returns the intersection of segments a1-a2 and b1-b2.
//
// The lines are intersected with the determinant method; the point is
// accepted only if it lies within the bounding extents of both segments.
// Parallel and collinear segments report no intersection.
func SegmentIntersection(a1, a2, b1, b2 Point) (Point, bool) {
	denom := (a1.X-a2.X)*(b1.Y-b2.Y) - (a1.Y-a2.Y)*(b1.X-b2.X)
	if math.Abs(denom) < 1e-12 {
		return Point{}, false
	}
	detA := a1.X*a2.Y - a1.Y*a2.X
	detB := b1.X*b2.Y - b1.Y*b2.X
	p := Point{
		X: (detA*(b1.X-b2.X) - (a1.X-a2.X)*detB) / denom,
		Y: (detA*(b1.Y-b2.Y) - (a1.Y-a2.Y)*detB) / denom,
	}
	if !withinExtent(p, a1, a2) || !withinExtent(p, b1, b2) {
		return Point{}, false
	}
	return p, true
}

func withinExtent(p, s1, s2 Point) bool {
	const eps = 1e-9
	return p.X >= math.Min(s1.X, s2.X)-eps && p.X <= math.Max(s1.X, s2.X)+eps &&
		p.Y >= math.Min(s1.Y, s2.Y)-eps && p.Y <= math.Max(s1.Y, s2.Y)+eps
}

// SelfIntersections counts the pairs of non-adjacent edges of the closed
// polygon that intersect. Contours are allowed to self-intersect; the count
// is reported so callers can judge quality.
func SelfIntersections(polygon []Point) int {
	n := len(polygon)
	if n < 4 {
		return 0
	}
	count := 0
	for i := 0; i < n; i++ {
		a1, a2 := polygon[i], polygon[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if _, ok := SegmentIntersection(a1, a2, polygon[j], polygon[(j+1)%n]); ok {
				count++
			}
		}
	}
	return count
}
