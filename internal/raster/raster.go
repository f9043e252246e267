package raster

import (
	"image"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"
)

// BT.601 luminance weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Raster is an immutable 8-bit RGBA photograph.
//
// Pixels are stored non-premultiplied in the same layout as image.NRGBA with
// a stride of 4*Width.
type Raster struct {
	Width  int
	Height int
	Pix    []uint8
}

// FromImage copies img into a new Raster.
//
// The copy is made with imaging.Clone, which converts any color model to
// NRGBA and re-bases the bounds so the top-left pixel is (0,0).
func FromImage(img image.Image) *Raster {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	return &Raster{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    nrgba.Pix,
	}
}

// In reports whether (x, y) lies inside the raster.
func (r *Raster) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < r.Width && y < r.Height
}

// RGB returns the 8-bit color channels at (x, y). The caller must ensure the
// coordinates are inside the raster.
func (r *Raster) RGB(x, y int) (uint8, uint8, uint8) {
	i := (y*r.Width + x) * 4
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

// Luminance returns the BT.601 luminance at (x, y) in [0,1].
func (r *Raster) Luminance(x, y int) float64 {
	cr, cg, cb := r.RGB(x, y)
	return Luminance(cr, cg, cb)
}

// Luminance converts 8-bit RGB to BT.601 luminance in [0,1].
func Luminance(r, g, b uint8) float64 {
	return (lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b)) / 255.0
}

// Gray converts the raster to a GrayMap.
//
// Rows are split across goroutines with bild's parallel.Line; every worker
// writes a disjoint row range so no locking is needed.
func (r *Raster) Gray() *GrayMap {
	g := NewGrayMap(r.Width, r.Height)
	parallel.Line(r.Height, func(start, end int) {
		for y := start; y < end; y++ {
			row := y * r.Width
			for x := 0; x < r.Width; x++ {
				i := (row + x) * 4
				g.Pix[row+x] = Luminance(r.Pix[i], r.Pix[i+1], r.Pix[i+2])
			}
		}
	})
	return g
}

// Image returns the raster as an *image.NRGBA sharing the pixel buffer.
// The returned image must not be modified.
func (r *Raster) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    r.Pix,
		Stride: r.Width * 4,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}
