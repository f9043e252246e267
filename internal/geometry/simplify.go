package geometry

import "math"

// DouglasPeucker simplifies the polyline with tolerance epsilon.
//
// The first and last points are always kept. Between two kept points the
// point farthest from their chord is kept when its perpendicular distance
// exceeds epsilon, and the two halves are processed in turn; otherwise every
// point in between is dropped. When pinned is non-nil, pinned[i] keeps point
// i regardless of its distance. The result is never longer than the input.
func DouglasPeucker(points []Point, epsilon float64, pinned []bool) []Point {
	n := len(points)
	if n < 3 {
		out := make([]Point, n)
		copy(out, points)
		return out
	}

	keep := make([]bool, n)
	keep[0], keep[n-1] = true, true
	for i := range pinned {
		if i < n && pinned[i] {
			keep[i] = true
		}
	}

	type span struct{ lo, hi int }
	stack := []span{{0, n - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.hi-s.lo < 2 {
			continue
		}

		// Pinned points split the span without a distance test.
		split := -1
		for i := s.lo + 1; i < s.hi; i++ {
			if keep[i] {
				split = i
				break
			}
		}
		if split < 0 {
			maxDist := -1.0
			for i := s.lo + 1; i < s.hi; i++ {
				d := perpendicularDistance(points[i], points[s.lo], points[s.hi])
				if d > maxDist {
					maxDist = d
					split = i
				}
			}
			if maxDist <= epsilon {
				continue
			}
			keep[split] = true
		}
		stack = append(stack, span{s.lo, split}, span{split, s.hi})
	}

	out := make([]Point, 0, n)
	for i, p := range points {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// perpendicularDistance returns the distance from p to the line through a
// and b, or to a when a and b coincide.
func perpendicularDistance(p, a, b Point) float64 {
	length := a.Dist(b)
	if length == 0 {
		return p.Dist(a)
	}
	return math.Abs(cross(a, b, p)) / length
}

// Corners flags the points of a closed contour whose turning angle, measured
// between the neighbors span positions away on each side, exceeds
// thresholdDeg degrees.
func Corners(points []Point, span int, thresholdDeg float64) []bool {
	n := len(points)
	flags := make([]bool, n)
	if span < 1 {
		span = 1
	}
	if n < 2*span+1 || n < 3 {
		return flags
	}
	threshold := thresholdDeg * math.Pi / 180
	for i := 0; i < n; i++ {
		prev := points[(i-span+n)%n]
		next := points[(i+span)%n]
		if turningAngle(prev, points[i], next) > threshold {
			flags[i] = true
		}
	}
	return flags
}

// HasCorner reports whether any flag is set.
func HasCorner(flags []bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}

// turningAngle returns the absolute change of heading at b when walking
// a -> b -> c, in radians within [0, π].
func turningAngle(a, b, c Point) float64 {
	v1 := b.Sub(a)
	v2 := c.Sub(b)
	if (v1.X == 0 && v1.Y == 0) || (v2.X == 0 && v2.Y == 0) {
		return 0
	}
	d := math.Atan2(v2.Y, v2.X) - math.Atan2(v1.Y, v1.X)
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d < -math.Pi {
		d += 2 * math.Pi
	}
	return math.Abs(d)
}

// SmoothClosed applies a circular Gaussian filter to a closed contour.
//
// window is forced odd and at least 3; sigma is window/6. Points flagged in
// pinned keep their original position.
func SmoothClosed(points []Point, window int, pinned []bool) []Point {
	n := len(points)
	out := make([]Point, n)
	copy(out, points)
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	if n < window {
		return out
	}

	half := window / 2
	sigma := float64(window) / 6
	weights := make([]float64, window)
	var total float64
	for k := -half; k <= half; k++ {
		w := math.Exp(-float64(k*k) / (2 * sigma * sigma))
		weights[k+half] = w
		total += w
	}

	for i := 0; i < n; i++ {
		if i < len(pinned) && pinned[i] {
			continue
		}
		var sx, sy float64
		for k := -half; k <= half; k++ {
			p := points[((i+k)%n+n)%n]
			w := weights[k+half]
			sx += p.X * w
			sy += p.Y * w
		}
		out[i] = Point{X: sx / total, Y: sy / total}
	}
	return out
}

// Densify inserts points along the edges of a closed contour until it has
// target points. Extra points are shared out in proportion to edge length
// and placed at even arc-length steps, so every original vertex survives.
func Densify(points []Point, target int) []Point {
	n := len(points)
	if n < 2 || target <= n {
		out := make([]Point, n)
		copy(out, points)
		return out
	}

	perimeter := Perimeter(points)
	if perimeter == 0 {
		out := make([]Point, n)
		copy(out, points)
		return out
	}

	extra := target - n
	counts := make([]int, n)
	assigned := 0
	remainders := make([]float64, n)
	for i := 0; i < n; i++ {
		share := float64(extra) * points[i].Dist(points[(i+1)%n]) / perimeter
		counts[i] = int(share)
		remainders[i] = share - float64(counts[i])
		assigned += counts[i]
	}
	// Hand out what rounding left over to the largest remainders.
	for assigned < extra {
		best := 0
		for i := 1; i < n; i++ {
			if remainders[i] > remainders[best] {
				best = i
			}
		}
		counts[best]++
		remainders[best] = -1
		assigned++
	}

	out := make([]Point, 0, target)
	for i := 0; i < n; i++ {
		a, b := points[i], points[(i+1)%n]
		out = append(out, a)
		for k := 1; k <= counts[i]; k++ {
			t := float64(k) / float64(counts[i]+1)
			out = append(out, Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t})
		}
	}
	return out
}

// Subsample keeps max points spread uniformly by index over the contour.
func Subsample(points []Point, max int) []Point {
	n := len(points)
	if max <= 0 || n <= max {
		out := make([]Point, n)
		copy(out, points)
		return out
	}
	out := make([]Point, max)
	step := float64(n) / float64(max)
	for i := 0; i < max; i++ {
		out[i] = points[int(float64(i)*step)]
	}
	return out
}
