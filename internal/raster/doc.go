// Package raster provides the pixel containers shared by every stage of the
// slab vision pipeline.
//
// Three grid types are defined, all stored as flat row-major slices:
//
//   - Raster: the decoded photograph as 8-bit non-premultiplied RGBA. It is
//     produced once by the capture layer (or Cache) and never mutated.
//   - GrayMap: float64 intensities in [0,1]. Grayscale conversions, blurred
//     images and edge magnitudes are all GrayMaps.
//   - Mask: a boolean foreground grid used by segmentation and boundary
//     extraction.
//
// # Coordinate System
//
// All coordinates are 0-based with (0,0) at the top-left corner, X increasing
// rightward and Y increasing downward. A Raster built from an image whose
// bounds do not start at the origin is re-based so that its top-left pixel is
// (0,0).
//
// # Luminance
//
// Luminance uses the ITU-R BT.601 weights (0.299*R + 0.587*G + 0.114*B) on
// 8-bit channels normalized to [0,1].
//
// # Ownership
//
// GrayMaps and Masks belong to the stage that created them. Stages that need
// to modify a grid received from another stage must Clone it first.
package raster
