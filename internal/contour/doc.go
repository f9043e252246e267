// Package contour detects the outline of a slab around a seed point.
//
// # Strategies
//
// Three segmentation families implement the Strategy interface:
//
//   - Threshold: region growing on luminance and RGB distance with a
//     tolerance derived from the Otsu threshold, then closing and Moore
//     boundary tracing. Optionally restricted by an adaptive threshold.
//   - Edge: equalize, blur, Sobel and binarize, then close the edge map and
//     cast rays from the seed through the enclosed region. The closing kernel
//     grows on retry when the outline is too short or the region leaks.
//   - Color: region growing on a weighted HSV distance to the seed color,
//     then closing and Moore boundary tracing.
//
// A strategy always returns a usable result. When it cannot segment the
// image it returns a disk around the seed marked as a fallback, together with
// the error explaining why.
//
// # Detector
//
// Detector tries the strategies of a Registry in the configured order
// (Threshold, Edge, Color by default) and keeps the first result that passes
// validation: enough points, finite coordinates, a plausible area that does
// not swallow the whole image. Each attempt runs in its own goroutine under
// the request's time budget and a panic guard. When every strategy fails the
// detector returns a synthetic disk or rounded rectangle centered on the seed
// with Fallback set. Detect never returns an error; the attempt log in the
// result records what went wrong.
//
// # Post-processing
//
// Every strategy passes its raw outline through the same chain:
//
//  1. Corner detection by turning angle
//  2. Convex hull replacement when no corners were found
//  3. Douglas-Peucker simplification, corners kept
//  4. Circular Gaussian smoothing, corners pinned
//  5. Resampling to between MinPoints and MaxPoints points
package contour
