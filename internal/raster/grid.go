package raster

import (
	"image"
	"image/color"
)

// GrayMap is a width×height grid of intensities in [0,1].
type GrayMap struct {
	Width  int
	Height int
	Pix    []float64
}

// NewGrayMap allocates a zeroed GrayMap.
func NewGrayMap(width, height int) *GrayMap {
	return &GrayMap{Width: width, Height: height, Pix: make([]float64, width*height)}
}

// In reports whether (x, y) lies inside the map.
func (g *GrayMap) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// At returns the value at (x, y).
func (g *GrayMap) At(x, y int) float64 {
	return g.Pix[y*g.Width+x]
}

// Set stores v at (x, y).
func (g *GrayMap) Set(x, y int, v float64) {
	g.Pix[y*g.Width+x] = v
}

// Clone returns a deep copy.
func (g *GrayMap) Clone() *GrayMap {
	c := NewGrayMap(g.Width, g.Height)
	copy(c.Pix, g.Pix)
	return c
}

// Histogram returns a 256-bin histogram of the map's values.
func (g *GrayMap) Histogram() [256]int {
	var hist [256]int
	for _, v := range g.Pix {
		hist[Quantize(v)]++
	}
	return hist
}

// Quantize maps v in [0,1] to an 8-bit bin, clamping out-of-range input.
func Quantize(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// ToImage renders the map as an 8-bit grayscale image.
func (g *GrayMap) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for i, v := range g.Pix {
		img.Pix[i] = Quantize(v)
	}
	return img
}

// GrayFromImage builds a GrayMap from any image using its red channel
// normalized to [0,1]. It is intended for images that are already gray, such
// as the output of bild filters applied to a GrayMap.
func GrayFromImage(img image.Image) *GrayMap {
	b := img.Bounds()
	g := NewGrayMap(b.Dx(), b.Dy())
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			g.Pix[y*g.Width+x] = float64(c.Y) / 255.0
		}
	}
	return g
}

// Mask is a width×height boolean grid. True marks foreground.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// NewMask allocates an all-background mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Bits: make([]bool, width*height)}
}

// In reports whether (x, y) lies inside the mask.
func (m *Mask) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// At returns the bit at (x, y). Coordinates outside the mask are background.
func (m *Mask) At(x, y int) bool {
	if !m.In(x, y) {
		return false
	}
	return m.Bits[y*m.Width+x]
}

// Set stores v at (x, y). Coordinates outside the mask are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if m.In(x, y) {
		m.Bits[y*m.Width+x] = v
	}
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	c := NewMask(m.Width, m.Height)
	copy(c.Bits, m.Bits)
	return c
}

// Invert returns a new mask with every bit flipped.
func (m *Mask) Invert() *Mask {
	c := NewMask(m.Width, m.Height)
	for i, b := range m.Bits {
		c.Bits[i] = !b
	}
	return c
}

// Bounds returns the bounding rectangle of the foreground (Max exclusive)
// and false when the mask is empty.
func (m *Mask) Bounds() (image.Rectangle, bool) {
	minX, minY := m.Width, m.Height
	maxX, maxY := -1, -1
	for y := 0; y < m.Height; y++ {
		row := y * m.Width
		for x := 0; x < m.Width; x++ {
			if !m.Bits[row+x] {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// FirstSet returns the first foreground pixel in row-major order.
func (m *Mask) FirstSet() (image.Point, bool) {
	for i, b := range m.Bits {
		if b {
			return image.Pt(i%m.Width, i/m.Width), true
		}
	}
	return image.Point{}, false
}
