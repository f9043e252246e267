// Package boundary extracts ordered outlines from binary masks.
//
// Two techniques are provided and the contour strategies pick whichever
// suits their mask:
//
//   - Trace walks the outer perimeter of a mask with Moore-neighbor tracing.
//     It starts at the top-left foreground pixel and scans the 8 neighbors
//     clockwise from the backtrack pixel. Tracing stops when the walk is about
//     to repeat its first move, or after a step limit.
//   - RayCast sweeps rays from a seed and records, per angle, the last pixel
//     inside the mask. Short gaps in the mask are bridged so that thin cracks
//     or noise do not cut the outline short.
//
// Both return points in pixel coordinates. Traced outlines run clockwise on
// screen; ray-cast outlines are ordered by angle starting at 0 (pointing
// right) and also run clockwise on screen because Y grows downward.
package boundary
