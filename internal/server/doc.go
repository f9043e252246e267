// Package server implements the MCP (Model Context Protocol) server for slab
// outlining.
//
// This package provides a JSON-RPC 2.0 server that exposes marker
// calibration and contour detection through the MCP protocol, so that a
// client can load a workpiece photograph, calibrate it against the reference
// markers and obtain the slab outline in machine millimeters.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Capture:
//   - slab_load: Load a photograph and make it the current capture
//
// Calibration:
//   - slab_detect_markers: Find the corner markers and assign roles
//   - slab_refine_marker: Re-locate one marker around a tap
//   - slab_calibrate: Build the pixel-to-machine coordinate system
//
// Contour:
//   - slab_detect_contour: Outline the slab around a seed pixel
//
// Measurement:
//   - slab_pixel_to_machine: Convert pixel positions to millimeters
//   - slab_measure_distance: Measure between two pixel positions
//
// # Session State
//
// The server holds a single session.Session. Loading a new image drops the
// markers and calibration of the previous one. Decoded images are cached by
// path for the lifetime of the process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Contour detection itself never fails once an image is loaded; a slab that
// cannot be segmented is reported with "fallback": true.
//
// # Usage
//
//	srv := server.New(session.DefaultConfig(), version)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
