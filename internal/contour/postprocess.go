package contour

import (
	"math"

	"github.com/ironsheep/slabtrace/internal/geometry"
)

// Postprocess turns a raw boundary into the outline reported to callers.
//
// Outlines without sharp corners are replaced by their convex hull unless
// they are convex already. The
// result is simplified with Douglas-Peucker and smoothed; corners are pinned
// through both steps. Hull outlines are rescaled about their centroid after
// smoothing so the enclosed area does not shrink. Finally the point count is
// brought into [MinPoints, MaxPoints].
func Postprocess(points []geometry.Point, opts Options) []geometry.Point {
	if len(points) < 3 {
		out := make([]geometry.Point, len(points))
		copy(out, points)
		return out
	}

	corners := geometry.Corners(points, opts.CornerSpan, opts.CornerAngle)
	hull := !geometry.HasCorner(corners)
	if hull {
		if geometry.IsConvex(points) {
			points = append([]geometry.Point(nil), points...)
		} else if h := geometry.ConvexHull(points); len(h) >= 3 {
			points = h
		}
		corners = nil
	}

	simplified := geometry.DouglasPeucker(points, opts.SimplifyEpsilon, corners)
	pinned := pinnedAfter(points, corners, simplified)

	target := geometry.Area(points)
	smoothed := geometry.SmoothClosed(simplified, opts.SmoothWindow, pinned)
	if hull {
		smoothed = rescale(smoothed, target)
	}

	if opts.MinPoints > 0 && len(smoothed) < opts.MinPoints {
		smoothed = geometry.Densify(smoothed, max(opts.ResampleTarget, opts.MinPoints))
	}
	if opts.MaxPoints > 0 && len(smoothed) > opts.MaxPoints {
		smoothed = geometry.Subsample(smoothed, opts.MaxPoints)
	}
	return smoothed
}

// pinnedAfter maps corner flags from the original points onto the points
// that survived simplification.
func pinnedAfter(original []geometry.Point, corners []bool, kept []geometry.Point) []bool {
	if !geometry.HasCorner(corners) {
		return nil
	}
	set := make(map[geometry.Point]bool)
	for i, c := range corners {
		if c {
			set[original[i]] = true
		}
	}
	pinned := make([]bool, len(kept))
	for i, p := range kept {
		pinned[i] = set[p]
	}
	return pinned
}

// rescale scales points about their centroid until they enclose area.
func rescale(points []geometry.Point, area float64) []geometry.Point {
	current := geometry.Area(points)
	if current <= 0 || area <= 0 {
		return points
	}
	f := math.Sqrt(area / current)
	c := geometry.Centroid(points)
	out := make([]geometry.Point, len(points))
	for i, p := range points {
		out[i] = c.Add(p.Sub(c).Scale(f))
	}
	return out
}
