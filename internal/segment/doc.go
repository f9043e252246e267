// Package segment turns a photograph into binary masks: region growing from
// a seed, morphology, and connected-component labeling.
//
// # Region Growing
//
// Grow performs a breadth-first fill from a seed pixel with an explicit queue
// over a flat visited grid, so region size is bounded only by the image. A
// Predicate decides which pixels join the region:
//
//   - IntensityPredicate: luminance delta or RGB distance to the seed color
//   - HSVPredicate: weighted hue/saturation/value distance, hue compared
//     circularly
//   - MaskPredicate: membership in an existing mask
//
// Neighbors are 8-connected unless Conn4 is requested.
//
// # Morphology
//
// Dilate, Erode, Close and Open use a square structuring element and are
// computed separably (rows then columns) with running counts, so their cost
// does not depend on the kernel size. Pixels outside the image count as
// background for dilation and as foreground for erosion, which keeps closing
// from eating into regions that touch the image border.
//
// # Cancellation
//
// Grow checks its context every few thousand pixels and returns ctx.Err() when
// the caller's time budget has run out.
package segment
