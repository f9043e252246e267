package segment

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/slabtrace/internal/geometry"
	"github.com/ironsheep/slabtrace/internal/raster"
)

// createSquareRaster creates a raster filled with bg and a square of fg
// covering [x0,x1)×[y0,y1).
func createSquareRaster(width, height, x0, y0, x1, y1 int, bg, fg color.Color) *raster.Raster {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x >= x0 && x < x1 && y >= y0 && y < y1 {
				img.Set(x, y, fg)
			} else {
				img.Set(x, y, bg)
			}
		}
	}
	return raster.FromImage(img)
}

func maskFromRects(width, height int, rects ...image.Rectangle) *raster.Mask {
	m := raster.NewMask(width, height)
	for _, r := range rects {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				m.Set(x, y, true)
			}
		}
	}
	return m
}

var (
	white = color.RGBA{255, 255, 255, 255}
	dark  = color.RGBA{60, 50, 40, 255}
)

func TestGrow_Intensity(t *testing.T) {
	img := createSquareRaster(60, 50, 10, 10, 40, 30, white, dark)
	pred := NewIntensityPredicate(img, image.Pt(20, 20), 0.05)

	region, err := Grow(context.Background(), img.Width, img.Height, image.Pt(20, 20), pred, GrowOptions{})
	if err != nil {
		t.Fatalf("Grow failed: %v", err)
	}
	if got := region.Count(); got != 30*20 {
		t.Errorf("region area: got %d, want %d", got, 30*20)
	}
	b, _ := region.Bounds()
	if b != image.Rect(10, 10, 40, 30) {
		t.Errorf("region bounds: got %v", b)
	}
}

func TestGrow_Restrict(t *testing.T) {
	img := createSquareRaster(20, 20, 0, 0, 0, 0, white, white)
	restrict := maskFromRects(20, 20, image.Rect(0, 0, 10, 20))
	pred := NewIntensityPredicate(img, image.Pt(2, 2), 0.05).WithRestrict(restrict, image.Pt(2, 2))

	region, err := Grow(context.Background(), 20, 20, image.Pt(2, 2), pred, GrowOptions{})
	if err != nil {
		t.Fatalf("Grow failed: %v", err)
	}
	if got := region.Count(); got != 200 {
		t.Errorf("restricted area: got %d, want 200", got)
	}
}

func TestGrow_Errors(t *testing.T) {
	all := MaskPredicate{Mask: raster.NewMask(50, 50), Want: false}

	t.Run("seed outside", func(t *testing.T) {
		_, err := Grow(context.Background(), 10, 10, image.Pt(10, 3), all, GrowOptions{})
		if !errors.Is(err, ErrSeedOutside) {
			t.Errorf("got %v, want ErrSeedOutside", err)
		}
	})

	t.Run("area limit", func(t *testing.T) {
		region, err := Grow(context.Background(), 50, 50, image.Pt(25, 25), all, GrowOptions{MaxArea: 100})
		if !errors.Is(err, ErrAreaLimit) {
			t.Fatalf("got %v, want ErrAreaLimit", err)
		}
		if region == nil || region.Count() != 101 {
			t.Errorf("partial region should be returned with 101 pixels")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Grow(ctx, 50, 50, image.Pt(25, 25), all, GrowOptions{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled", err)
		}
	})
}

func TestGrow_Connectivity(t *testing.T) {
	m := raster.NewMask(5, 5)
	m.Set(1, 1, true)
	m.Set(2, 2, true)
	m.Set(3, 3, true)
	pred := MaskPredicate{Mask: m, Want: true}

	tests := []struct {
		name string
		conn Connectivity
		want int
	}{
		{"8-connected", Conn8, 3},
		{"4-connected", Conn4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, err := Grow(context.Background(), 5, 5, image.Pt(1, 1), pred, GrowOptions{Connectivity: tt.conn})
			if err != nil {
				t.Fatal(err)
			}
			if got := region.Count(); got != tt.want {
				t.Errorf("got %d pixels, want %d", got, tt.want)
			}
		})
	}
}

func TestHSVDistance(t *testing.T) {
	w := DefaultHSVWeights()
	tests := []struct {
		name string
		a, b HSV
		want float64
	}{
		{"identical", HSV{120, 0.5, 0.5}, HSV{120, 0.5, 0.5}, 0},
		{"hue wraps", HSV{350, 1, 1}, HSV{10, 1, 1}, 0.5 * 20.0 / 180},
		{"opposite hue", HSV{0, 1, 1}, HSV{180, 1, 1}, 0.5},
		{"sat and value", HSV{0, 0.2, 0.9}, HSV{0, 0.7, 0.4}, 0.3*0.5 + 0.2*0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Distance(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestGrow_HSV(t *testing.T) {
	red := color.RGBA{200, 30, 30, 255}
	blue := color.RGBA{30, 30, 200, 255}
	img := createSquareRaster(40, 40, 5, 5, 25, 35, blue, red)

	ref := SampleHSV(img, image.Pt(15, 20), 1)
	pred := NewHSVPredicate(img, ref, DefaultHSVWeights(), 0.12)
	region, err := Grow(context.Background(), 40, 40, image.Pt(15, 20), pred, GrowOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := region.Count(); got != 20*30 {
		t.Errorf("region area: got %d, want %d", got, 20*30)
	}
}

func TestSampleHSV_CircularHue(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	r1, g1, b1 := colorful.Hsv(350, 1, 1).RGB255()
	r2, g2, b2 := colorful.Hsv(10, 1, 1).RGB255()
	img.Set(0, 0, color.RGBA{r1, g1, b1, 255})
	img.Set(1, 0, color.RGBA{r2, g2, b2, 255})

	got := SampleHSV(raster.FromImage(img), image.Pt(0, 0), 1)
	if got.H > 2 && got.H < 358 {
		t.Errorf("mean of 350° and 10° should be near 0°, got %f", got.H)
	}
	if math.Abs(got.S-1) > 0.01 || math.Abs(got.V-1) > 0.01 {
		t.Errorf("saturation/value: got %f/%f, want 1/1", got.S, got.V)
	}
}

func TestDilateErode(t *testing.T) {
	m := raster.NewMask(9, 9)
	m.Set(4, 4, true)

	d := Dilate(m, 3)
	if got := d.Count(); got != 9 {
		t.Errorf("dilated single pixel: got %d, want 9", got)
	}
	if !d.At(3, 3) || !d.At(5, 5) || d.At(6, 4) {
		t.Error("dilation should cover exactly the 3x3 neighborhood")
	}

	e := Erode(d, 3)
	if got := e.Count(); got != 1 || !e.At(4, 4) {
		t.Errorf("eroded 3x3 square: got %d pixels, want only the center", got)
	}

	full := maskFromRects(9, 9, image.Rect(0, 0, 9, 9))
	if got := Erode(full, 5).Count(); got != 81 {
		t.Errorf("eroding a full mask should keep it full, got %d", got)
	}
	if got := Dilate(m, 1).Count(); got != 1 {
		t.Errorf("kernel size 1 should copy, got %d", got)
	}
}

func TestCloseOpen(t *testing.T) {
	// Two blocks separated by a 1-pixel gap
	m := maskFromRects(30, 20, image.Rect(5, 5, 14, 15), image.Rect(15, 5, 25, 15))
	closed := Close(m, 5)
	if !closed.At(14, 10) {
		t.Error("closing should bridge the 1-pixel gap")
	}
	if closed.At(2, 2) {
		t.Error("closing should not add pixels far from the region")
	}

	// A single speck next to a block
	m = maskFromRects(30, 20, image.Rect(5, 5, 20, 15), image.Rect(25, 2, 26, 3))
	opened := Open(m, 3)
	if opened.At(25, 2) {
		t.Error("opening should remove the isolated speck")
	}
	if !opened.At(10, 10) {
		t.Error("opening should keep the block")
	}
}

func TestFillHoles(t *testing.T) {
	ring := maskFromRects(20, 20,
		image.Rect(5, 5, 15, 6), image.Rect(5, 14, 15, 15),
		image.Rect(5, 5, 6, 15), image.Rect(14, 5, 15, 15))
	filled := FillHoles(ring)
	if got := filled.Count(); got != 100 {
		t.Errorf("filled ring: got %d, want 100", got)
	}
	if filled.At(2, 2) {
		t.Error("outside pixels must stay background")
	}
}

func TestLabel(t *testing.T) {
	m := maskFromRects(40, 30, image.Rect(2, 2, 6, 6), image.Rect(20, 10, 30, 20))
	labels := Label(m, Conn8)

	if len(labels.Components) != 2 {
		t.Fatalf("components: got %d, want 2", len(labels.Components))
	}
	small, big := labels.Components[0], labels.Components[1]
	if small.Area != 16 || big.Area != 100 {
		t.Errorf("areas: got %d and %d, want 16 and 100", small.Area, big.Area)
	}
	if big.Bounds != image.Rect(20, 10, 30, 20) {
		t.Errorf("bounds: got %v", big.Bounds)
	}
	if big.Centroid.Dist(geometry.Pt(24.5, 14.5)) > 1e-9 {
		t.Errorf("centroid: got %v, want (24.5,14.5)", big.Centroid)
	}
	if labels.At(3, 3) != small.ID || labels.At(0, 0) != 0 || labels.At(-1, 5) != 0 {
		t.Error("At returns wrong IDs")
	}

	largest, ok := labels.Largest()
	if !ok || largest.ID != big.ID {
		t.Error("Largest should return the 10x10 block")
	}
	if got := labels.Mask(big.ID).Count(); got != 100 {
		t.Errorf("component mask: got %d, want 100", got)
	}
}

func TestLabel_Empty(t *testing.T) {
	labels := Label(raster.NewMask(10, 10), Conn8)
	if len(labels.Components) != 0 {
		t.Error("empty mask should have no components")
	}
	if _, ok := labels.Largest(); ok {
		t.Error("Largest on empty labels should report false")
	}
}
