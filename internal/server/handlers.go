package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/ironsheep/slabtrace/internal/calibration"
	"github.com/ironsheep/slabtrace/internal/contour"
	"github.com/ironsheep/slabtrace/internal/geometry"
	"github.com/ironsheep/slabtrace/internal/raster"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "slab_load", "slab_detect_contour").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads the image into the session when a path is given
//  4. Calls the session
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Capture
	case "slab_load":
		return s.handleSlabLoad(args)

	// Calibration
	case "slab_detect_markers":
		return s.handleSlabDetectMarkers(ctx, args)
	case "slab_refine_marker":
		return s.handleSlabRefineMarker(args)
	case "slab_calibrate":
		return s.handleSlabCalibrate(args)

	// Contour
	case "slab_detect_contour":
		return s.handleSlabDetectContour(ctx, args)

	// Measurement
	case "slab_pixel_to_machine":
		return s.handleSlabPixelToMachine(args)
	case "slab_measure_distance":
		return s.handleSlabMeasureDistance(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// capture loads path through the cache into the session.
func (s *Server) capture(path string) (*raster.Info, error) {
	info, err := raster.LoadInfo(s.cache, path)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	s.session.Capture(img)
	return info, nil
}

// === Capture Handlers ===

type slabLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleSlabLoad(args json.RawMessage) (interface{}, error) {
	var a slabLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return s.capture(a.Path)
}

// === Calibration Handlers ===

type markersResult struct {
	Markers calibration.MarkerSet `json:"markers"`
	Layout  int                   `json:"layout"`
}

func (s *Server) handleSlabDetectMarkers(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a slabLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path != "" {
		if _, err := s.capture(a.Path); err != nil {
			return nil, err
		}
	}
	set, err := s.session.DetectMarkers(ctx)
	if err != nil {
		return nil, err
	}
	return &markersResult{Markers: set, Layout: len(s.session.Reference().Layout.Roles())}, nil
}

type slabRefineMarkerArgs struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Role string  `json:"role"`
}

type refineResult struct {
	Marker calibration.MarkerPoint `json:"marker"`
	Found  bool                    `json:"found"`
}

func (s *Server) handleSlabRefineMarker(args json.RawMessage) (interface{}, error) {
	var a slabRefineMarkerArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	role, err := calibration.ParseRole(a.Role)
	if err != nil {
		return nil, err
	}
	m, found, err := s.session.Refine(geometry.Pt(a.X, a.Y).Image(), role)
	if err != nil {
		return nil, err
	}
	return &refineResult{Marker: m, Found: found}, nil
}

type slabCalibrateArgs struct {
	Markers         calibration.MarkerSet `json:"markers"`
	OriginToXAxisMm float64               `json:"origin_to_x_axis_mm"`
	OriginToScaleMm float64               `json:"origin_to_scale_mm"`
	Layout          int                   `json:"layout"`
	Anisotropic     *bool                 `json:"anisotropic"`
}

type calibrationResult struct {
	Origin        geometry.Point        `json:"origin"`
	AngleRad      float64               `json:"angle_rad"`
	AngleDeg      float64               `json:"angle_deg"`
	ScaleX        float64               `json:"scale_x_mm_per_px"`
	ScaleY        float64               `json:"scale_y_mm_per_px"`
	Ratio         float64               `json:"ratio_mm_per_px"`
	Markers       calibration.MarkerSet `json:"markers"`
	ReferenceUsed calibration.Reference `json:"reference"`
}

func (s *Server) handleSlabCalibrate(args json.RawMessage) (interface{}, error) {
	var a slabCalibrateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	ref := s.session.Reference()
	if a.OriginToXAxisMm > 0 {
		ref.OriginToXAxisMm = a.OriginToXAxisMm
	}
	if a.OriginToScaleMm > 0 {
		ref.OriginToScaleMm = a.OriginToScaleMm
	}
	switch a.Layout {
	case 0:
	case 3:
		ref.Layout = calibration.Layout3
	case 4:
		ref.Layout = calibration.Layout4
	default:
		return nil, fmt.Errorf("layout must be 3 or 4, got %d", a.Layout)
	}
	if a.Anisotropic != nil {
		ref.Anisotropic = *a.Anisotropic
	}

	cs, err := s.session.CalibrateWith(ref, a.Markers)
	if err != nil {
		return nil, err
	}
	return &calibrationResult{
		Origin:        cs.Origin,
		AngleRad:      cs.Angle,
		AngleDeg:      cs.Angle * 180 / math.Pi,
		ScaleX:        cs.ScaleX,
		ScaleY:        cs.ScaleY,
		Ratio:         cs.Ratio(),
		Markers:       cs.Markers,
		ReferenceUsed: ref,
	}, nil
}

// === Contour Handlers ===

type slabDetectContourArgs struct {
	Path string   `json:"path"`
	X    *float64 `json:"x"`
	Y    *float64 `json:"y"`
}

func (s *Server) handleSlabDetectContour(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a slabDetectContourArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path != "" {
		if _, err := s.capture(a.Path); err != nil {
			return nil, err
		}
	}

	var seed *geometry.Point
	if a.X != nil && a.Y != nil {
		p := geometry.Pt(*a.X, *a.Y)
		seed = &p
	}
	res, err := s.session.DetectContour(ctx, seed)
	if err != nil {
		return nil, err
	}
	s.debugf("slab_detect_contour: %s", contourSummary(&res))
	return &res, nil
}

// === Measurement Handlers ===

type slabPixelToMachineArgs struct {
	Points []geometry.Point `json:"points"`
}

type pixelToMachineResult struct {
	Points []geometry.Point `json:"points"`
}

func (s *Server) handleSlabPixelToMachine(args json.RawMessage) (interface{}, error) {
	var a slabPixelToMachineArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	out := make([]geometry.Point, len(a.Points))
	for i, p := range a.Points {
		m, err := s.session.PixelToMachine(p)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return &pixelToMachineResult{Points: out}, nil
}

type slabMeasureDistanceArgs struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type distanceResult struct {
	Pixels     float64  `json:"pixels"`
	Mm         *float64 `json:"mm,omitempty"`
	Calibrated bool     `json:"calibrated"`
}

func (s *Server) handleSlabMeasureDistance(args json.RawMessage) (interface{}, error) {
	var a slabMeasureDistanceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p1, p2 := geometry.Pt(a.X1, a.Y1), geometry.Pt(a.X2, a.Y2)
	res := &distanceResult{Pixels: p1.Dist(p2)}
	if mm, err := s.session.Distance(p1, p2); err == nil {
		res.Mm = &mm
		res.Calibrated = true
	}
	return res, nil
}

// contourSummary condenses a result for the debug log.
func contourSummary(res *contour.ContourResult) string {
	if res.Fallback {
		return fmt.Sprintf("fallback after %d attempts", len(res.Attempts))
	}
	return fmt.Sprintf("%s: %d points, area %.0f px, confidence %.2f",
		res.Strategy, len(res.PixelContour), res.Area, res.Confidence)
}
