package boundary

import (
	"context"
	"errors"
	"image"

	"github.com/ironsheep/slabtrace/internal/geometry"
	"github.com/ironsheep/slabtrace/internal/raster"
)

// DefaultMaxSteps bounds the number of moves made by Trace.
const DefaultMaxSteps = 10000

// PixelEdge is the distance from a pixel center to its edge.
const PixelEdge = 0.5

// ErrEmptyMask is returned when there is nothing to trace.
var ErrEmptyMask = errors.New("mask has no foreground pixels")

// Clockwise 8-neighborhood starting east: E, SE, S, SW, W, NW, N, NE.
var mooreDirs = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

const west = 4

func dirIndex(d image.Point) int {
	for i, v := range mooreDirs {
		if v == d {
			return i
		}
	}
	return west
}

// Trace returns the outer boundary of the mask's top-left foreground
// component as an implicitly closed polygon.
//
// The walk visits boundary pixel centers; the returned outline is moved half
// a pixel outward onto the pixel edges, so its area matches the pixel count.
//
// maxSteps <= 0 uses DefaultMaxSteps. Hitting the limit is not an error;
// the partial outline is returned. An isolated pixel yields a single point.
func Trace(ctx context.Context, m *raster.Mask, maxSteps int) ([]geometry.Point, error) {
	start, ok := m.FirstSet()
	if !ok {
		return nil, ErrEmptyMask
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	// The top-left pixel has no foreground to its west.
	c, b := start, start.Add(mooreDirs[west])
	pts := []geometry.Point{geometry.FromImagePoint(start)}
	var first image.Point
	moved := false

	for step := 0; step < maxSteps; step++ {
		if step%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		next, back, found := mooreNext(m, c, b)
		if !found {
			break
		}
		if c == start && moved && next == first {
			break
		}
		if !moved {
			first, moved = next, true
		}
		c, b = next, back
		pts = append(pts, geometry.FromImagePoint(c))
	}

	if n := len(pts); n > 1 && pts[n-1] == pts[0] {
		pts = pts[:n-1]
	}
	return geometry.Outset(pts, PixelEdge), nil
}

// mooreNext scans the neighbors of c clockwise, starting just after the
// backtrack pixel b. It returns the first foreground neighbor and the
// background pixel examined right before it, which becomes the new
// backtrack.
func mooreNext(m *raster.Mask, c, b image.Point) (image.Point, image.Point, bool) {
	d := dirIndex(b.Sub(c))
	for k := 1; k <= 8; k++ {
		i := (d + k) % 8
		t := c.Add(mooreDirs[i])
		if m.At(t.X, t.Y) {
			return t, c.Add(mooreDirs[(i+7)%8]), true
		}
	}
	return c, b, false
}
