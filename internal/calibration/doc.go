// Package calibration finds the reference markers in a photograph and turns
// them into a coordinate system that maps pixels to machine millimeters.
//
// # Markers
//
// A workpiece photo carries three or four high-contrast markers placed on a
// rectangle of known size:
//
//	Scale ─────── TopRight
//	  │               │
//	  │               │
//	Origin ─────── XAxis
//
// The Origin marker is the machine's (0,0). XAxis fixes the direction of the
// machine X axis and Scale fixes the Y axis; the known distances between them
// give the pixel-to-millimeter ratio. TopRight is present only in the
// four-marker layout, which is the default.
//
// # Locating
//
// Locate scores a sliding window by its contrast with the surrounding search
// region. If the region is mostly bright the marker is assumed dark and vice
// versa. Window means come from an integral image so each position costs
// constant time. DetectMarkers searches the four image corners; LocateNear
// searches around a user tap and falls back to the tap itself.
//
// # Coordinate System
//
// Calibrate validates a MarkerSet and builds a CoordinateSystem. The affine
// pixel-to-machine matrix and its inverse are held as gonum matrices so that
// whole contours convert with a single matrix product.
//
// Machine coordinates are right-handed with Y pointing from Origin towards
// Scale, which is up in the photograph.
package calibration
