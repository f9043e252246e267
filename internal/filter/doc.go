// Package filter implements the intensity filters used by marker location and
// contour segmentation.
//
// Every filter takes a *raster.GrayMap and returns a newly allocated result;
// inputs are never modified. Values are intensities normalized to [0,1].
//
// # Filters
//
//   - GaussianBlur: noise reduction, delegated to bild's blur.Gaussian
//   - Equalize: global histogram equalization
//   - SobelMagnitude: 3x3 Sobel gradient magnitude normalized to [0,1]
//   - Threshold / OtsuThreshold: global binarization
//   - AdaptiveThreshold: local-mean binarization over an integral image
//
// # Parallelism
//
// Per-pixel filters split rows across goroutines with bild's parallel.Line.
// Each worker writes only its own rows.
package filter
