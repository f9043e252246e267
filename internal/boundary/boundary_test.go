package boundary

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/ironsheep/slabtrace/internal/geometry"
	"github.com/ironsheep/slabtrace/internal/raster"
)

// createDiskMask creates a mask with a filled disk of radius r at (cx, cy),
// minus the annulus gapFrom < d <= gapTo when gapTo > gapFrom.
func createDiskMask(width, height int, cx, cy, r, gapFrom, gapTo float64) *raster.Mask {
	m := raster.NewMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			if d > r {
				continue
			}
			if gapTo > gapFrom && d > gapFrom && d <= gapTo {
				continue
			}
			m.Set(x, y, true)
		}
	}
	return m
}

func meanRadius(points []geometry.Point, c geometry.Point) float64 {
	var sum float64
	for _, p := range points {
		sum += p.Dist(c)
	}
	return sum / float64(len(points))
}

func TestTrace_Disk(t *testing.T) {
	c := geometry.Pt(60, 60)
	for _, r := range []float64{8, 10, 15, 20, 40} {
		t.Run(fmt.Sprintf("r=%v", r), func(t *testing.T) {
			m := createDiskMask(120, 120, c.X, c.Y, r, 0, 0)
			pts, err := Trace(context.Background(), m, 0)
			if err != nil {
				t.Fatalf("Trace failed: %v", err)
			}
			if len(pts) < int(4*r) {
				t.Fatalf("too few boundary points: %d", len(pts))
			}
			if got := geometry.Centroid(pts); got.Dist(c) > 1 {
				t.Errorf("centroid: got %v, want ≈%v", got, c)
			}
			want := math.Pi * r * r
			if got := geometry.Area(pts); math.Abs(got-want)/want > 0.05 {
				t.Errorf("area: got %f, want %f within 5%%", got, want)
			}
		})
	}
}

func TestTrace_Square(t *testing.T) {
	m := raster.NewMask(4, 4)
	m.Set(1, 1, true)
	m.Set(2, 1, true)
	m.Set(1, 2, true)
	m.Set(2, 2, true)

	pts, err := Trace(context.Background(), m, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []geometry.Point{{X: 0.5, Y: 0.5}, {X: 2.5, Y: 0.5}, {X: 2.5, Y: 2.5}, {X: 0.5, Y: 2.5}}
	if len(pts) != len(want) {
		t.Fatalf("got %v, want %v", pts, want)
	}
	for i := range want {
		if pts[i].Dist(want[i]) > 1e-9 {
			t.Errorf("point %d: got %v, want %v", i, pts[i], want[i])
		}
	}
}

func TestTrace_EdgeCases(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if _, err := Trace(context.Background(), raster.NewMask(5, 5), 0); !errors.Is(err, ErrEmptyMask) {
			t.Errorf("got %v, want ErrEmptyMask", err)
		}
	})

	t.Run("single pixel", func(t *testing.T) {
		m := raster.NewMask(5, 5)
		m.Set(2, 3, true)
		pts, err := Trace(context.Background(), m, 0)
		if err != nil || len(pts) != 1 || pts[0] != geometry.Pt(2, 3) {
			t.Errorf("got %v, %v", pts, err)
		}
	})

	t.Run("step limit", func(t *testing.T) {
		m := createDiskMask(60, 60, 30, 30, 20, 0, 0)
		pts, err := Trace(context.Background(), m, 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(pts) > 6 {
			t.Errorf("step limit 5 produced %d points", len(pts))
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		m := createDiskMask(60, 60, 30, 30, 20, 0, 0)
		if _, err := Trace(ctx, m, 0); !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled", err)
		}
	})

	t.Run("touches border", func(t *testing.T) {
		m := raster.NewMask(10, 10)
		for i := range m.Bits {
			m.Bits[i] = true
		}
		pts, err := Trace(context.Background(), m, 0)
		if err != nil {
			t.Fatal(err)
		}
		if got := geometry.Area(pts); math.Abs(got-100) > 1e-9 {
			t.Errorf("full mask outline area: got %f, want 100", got)
		}
	})
}

func TestRayCast_Disk(t *testing.T) {
	c := geometry.Pt(60, 60)
	for _, r := range []float64{8, 10, 15, 20, 40} {
		t.Run(fmt.Sprintf("r=%v", r), func(t *testing.T) {
			m := createDiskMask(120, 120, c.X, c.Y, r, 0, 0)
			pts := RayCast(m, c, DefaultRayOptions())
			if len(pts) != 360 {
				t.Fatalf("got %d points, want 360", len(pts))
			}
			if got := geometry.Centroid(pts); got.Dist(c) > 1 {
				t.Errorf("centroid: got %v, want ≈%v", got, c)
			}
			want := math.Pi * r * r
			if got := geometry.Area(pts); math.Abs(got-want)/want > 0.05 {
				t.Errorf("area: got %f, want %f within 5%%", got, want)
			}
		})
	}
}

func TestRayCast_Gaps(t *testing.T) {
	c := geometry.Pt(60, 60)
	tests := []struct {
		name       string
		gapTo      float64
		wantRadius float64
	}{
		{"no gap", 0, 40},
		{"short gap bridged", 22, 40},
		{"medium gap bridged", 26, 40},
		{"long gap stops", 32, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := createDiskMask(120, 120, c.X, c.Y, 40, 20, tt.gapTo)
			pts := RayCast(m, c, DefaultRayOptions())
			if got := meanRadius(pts, c); math.Abs(got-tt.wantRadius) > 1.5 {
				t.Errorf("mean radius: got %f, want ≈%f", got, tt.wantRadius)
			}
		})
	}
}

func TestRayCast_MediumGapWithoutSupport(t *testing.T) {
	// A 6-pixel gap followed by only a 1-pixel ring is not bridged.
	c := geometry.Pt(60, 60)
	m := createDiskMask(120, 120, c.X, c.Y, 27, 20, 26)
	pts := RayCast(m, c, DefaultRayOptions())
	if got := meanRadius(pts, c); math.Abs(got-20) > 1.5 {
		t.Errorf("mean radius: got %f, want ≈20", got)
	}
}

func TestRayCast_SeedOutside(t *testing.T) {
	m := createDiskMask(50, 50, 25, 25, 10, 0, 0)
	seed := geometry.Pt(2, 2)
	for _, p := range RayCast(m, seed, DefaultRayOptions()) {
		if p != seed {
			t.Fatalf("seed outside the mask should collapse to the seed, got %v", p)
		}
	}
}

func TestRayCast_StepAndRadius(t *testing.T) {
	m := createDiskMask(120, 120, 60, 60, 40, 0, 0)
	opts := DefaultRayOptions()
	opts.StepDegrees = 10
	opts.MaxRadius = 15
	pts := RayCast(m, geometry.Pt(60, 60), opts)
	if len(pts) != 36 {
		t.Fatalf("got %d points, want 36", len(pts))
	}
	for _, p := range pts {
		if d := p.Dist(geometry.Pt(60, 60)); d > 15+PixelEdge+1e-9 {
			t.Errorf("point %v beyond MaxRadius (%f)", p, d)
		}
	}
}
