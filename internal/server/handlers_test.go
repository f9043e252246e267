package server

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"testing"
)

// createTestImageFile creates a uniform test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writePNG(t, img)
}

// createWorkpieceFile writes a 600x450 photograph with four corner markers
// and a dark elliptical slab centered in the frame.
func createWorkpieceFile(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 600, 450))
	slab := color.RGBA{40, 40, 40, 255}
	for y := 0; y < 450; y++ {
		for x := 0; x < 600; x++ {
			dx := float64(x-300) / 80
			dy := float64(y-225) / 50
			if dx*dx+dy*dy <= 1 {
				img.Set(x, y, slab)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	for _, c := range []image.Point{{60, 60}, {540, 60}, {60, 390}, {540, 390}} {
		for y := c.Y - 20; y < c.Y+20; y++ {
			for x := c.X - 20; x < c.X+20; x++ {
				img.Set(x, y, color.Black)
			}
		}
	}
	return writePNG(t, img)
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "handler-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to encode image: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })
	return tmpFile.Name()
}

// callTool runs one tools/call and decodes the text content of a successful
// response.
func callTool(t *testing.T, s *Server, name string, args interface{}) (map[string]interface{}, *MCPError) {
	t.Helper()

	params := map[string]interface{}{"name": name, "arguments": args}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}
	resp := s.handleToolsCall(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleToolsCall returned nil")
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	return out, nil
}

func mustCall(t *testing.T, s *Server, name string, args interface{}) map[string]interface{} {
	t.Helper()
	out, rpcErr := callTool(t, s, name, args)
	if rpcErr != nil {
		t.Fatalf("%s failed: %v (%v)", name, rpcErr.Message, rpcErr.Data)
	}
	return out
}

func TestHandleToolsCall_SlabLoad(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	out := mustCall(t, s, "slab_load", map[string]interface{}{"path": path})
	if out["width"] != float64(100) || out["height"] != float64(80) {
		t.Errorf("dimensions: got %vx%v, want 100x80", out["width"], out["height"])
	}
	if out["format"] != "png" {
		t.Errorf("format: got %v, want png", out["format"])
	}
	if s.session.Image() == nil {
		t.Error("slab_load should capture the image")
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		args     interface{}
		wantCode int
	}{
		{"nonexistent file", "slab_load", map[string]interface{}{"path": "/nonexistent/image.png"}, -32000},
		{"missing path", "slab_load", map[string]interface{}{}, -32000},
		{"unknown tool", "image_crop", map[string]interface{}{}, -32000},
		{"bad role", "slab_refine_marker", map[string]interface{}{"x": 1, "y": 1, "role": "corner"}, -32000},
		{"no image for markers", "slab_detect_markers", map[string]interface{}{}, -32000},
		{"no image for contour", "slab_detect_contour", map[string]interface{}{}, -32000},
		{"not calibrated", "slab_pixel_to_machine", map[string]interface{}{"points": []map[string]float64{{"x": 1, "y": 2}}}, -32000},
		{"bad layout", "slab_calibrate", map[string]interface{}{"layout": 5}, -32000},
		{"no markers", "slab_calibrate", map[string]interface{}{}, -32000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			_, rpcErr := callTool(t, s, tt.tool, tt.args)
			if rpcErr == nil {
				t.Fatal("expected an error")
			}
			if rpcErr.Code != tt.wantCode {
				t.Errorf("code: got %d, want %d", rpcErr.Code, tt.wantCode)
			}
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer()
	resp := s.handleToolsCall(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`{"name": 12}`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("got %+v, want invalid params", resp.Error)
	}
}

func TestHandleToolsCall_Workflow(t *testing.T) {
	s := newTestServer()
	path := createWorkpieceFile(t)

	markers := mustCall(t, s, "slab_detect_markers", map[string]interface{}{"path": path})
	if list, ok := markers["markers"].([]interface{}); !ok || len(list) != 4 {
		t.Fatalf("markers: got %v", markers["markers"])
	}
	if markers["layout"] != float64(4) {
		t.Errorf("layout: got %v, want 4", markers["layout"])
	}

	refined := mustCall(t, s, "slab_refine_marker", map[string]interface{}{"x": 70, "y": 70, "role": "scale"})
	if refined["found"] != true {
		t.Errorf("refine: got %v", refined)
	}

	cal := mustCall(t, s, "slab_calibrate", map[string]interface{}{})
	ratio := cal["ratio_mm_per_px"].(float64)
	if ratio < 0.5 || ratio > 0.75 {
		t.Errorf("ratio: got %v mm/px, want about 0.6", ratio)
	}

	res := mustCall(t, s, "slab_detect_contour", map[string]interface{}{"x": 300, "y": 225})
	if res["fallback"] != false {
		t.Fatalf("contour fell back: %v", res["attempts"])
	}
	if res["strategy"] != "threshold" {
		t.Errorf("strategy: got %v", res["strategy"])
	}
	pixels, _ := res["pixel_contour"].([]interface{})
	machine, _ := res["machine_contour"].([]interface{})
	if len(pixels) < 10 || len(machine) != len(pixels) {
		t.Errorf("contour: %d pixel points, %d machine points", len(pixels), len(machine))
	}
	if res["area_mm2"].(float64) <= 0 {
		t.Errorf("area_mm2: got %v", res["area_mm2"])
	}

	conv := mustCall(t, s, "slab_pixel_to_machine", map[string]interface{}{
		"points": []map[string]float64{{"x": 300, "y": 225}},
	})
	if pts := conv["points"].([]interface{}); len(pts) != 1 {
		t.Errorf("points: got %v", pts)
	}

	dist := mustCall(t, s, "slab_measure_distance", map[string]interface{}{"x1": 0, "y1": 0, "x2": 30, "y2": 40})
	if dist["pixels"] != float64(50) || dist["calibrated"] != true {
		t.Errorf("distance: got %v", dist)
	}
	if mm := dist["mm"].(float64); math.Abs(mm-50*ratio) > 1e-6 {
		t.Errorf("mm: got %v, want %v", mm, 50*ratio)
	}
}

func TestHandleToolsCall_CalibrateWithMarkers(t *testing.T) {
	s := newTestServer()
	cal := mustCall(t, s, "slab_calibrate", map[string]interface{}{
		"layout":             3,
		"origin_to_scale_mm": 50,
		"markers": []map[string]interface{}{
			{"x": 100, "y": 400, "role": "origin"},
			{"x": 500, "y": 400, "role": "x_axis"},
			{"x": 100, "y": 100, "role": "scale"},
		},
	})

	if got := cal["ratio_mm_per_px"].(float64); math.Abs(got-50.0/300.0) > 1e-9 {
		t.Errorf("ratio: got %v, want %v", got, 50.0/300.0)
	}
	if got := cal["angle_deg"].(float64); math.Abs(got) > 1e-9 {
		t.Errorf("angle: got %v, want 0", got)
	}

	conv := mustCall(t, s, "slab_pixel_to_machine", map[string]interface{}{
		"points": []map[string]float64{{"x": 100, "y": 100}},
	})
	p := conv["points"].([]interface{})[0].(map[string]interface{})
	if math.Abs(p["x"].(float64)) > 1e-9 || math.Abs(p["y"].(float64)-50) > 1e-9 {
		t.Errorf("scale marker in machine space: got %v, want (0,50)", p)
	}
}

func TestHandleToolsCall_CalibrateKeepsStateOnFailure(t *testing.T) {
	s := newTestServer()
	before := s.session.Reference()

	_, rpcErr := callTool(t, s, "slab_calibrate", map[string]interface{}{
		"layout":             3,
		"origin_to_scale_mm": 50,
		"anisotropic":        true,
		"markers": []map[string]interface{}{
			{"x": 100, "y": 400, "role": "origin"},
			{"x": 500, "y": 400, "role": "x_axis"},
			{"x": 104, "y": 397, "role": "scale"},
		},
	})
	if rpcErr == nil || rpcErr.Code != -32000 {
		t.Fatalf("degenerate markers should fail, got %+v", rpcErr)
	}
	if got := s.session.Reference(); got != before {
		t.Errorf("reference changed by a failed call: got %+v, want %+v", got, before)
	}
	if got := s.session.Markers(); len(got) != 0 {
		t.Errorf("markers stored by a failed call: %v", got)
	}
}

func TestHandleToolsCall_CalibrateOmittedFieldsKept(t *testing.T) {
	s := newTestServer()
	markers := []map[string]interface{}{
		{"x": 100, "y": 400, "role": "origin"},
		{"x": 500, "y": 400, "role": "x_axis"},
		{"x": 100, "y": 100, "role": "scale"},
		{"x": 500, "y": 100, "role": "top_right"},
	}
	mustCall(t, s, "slab_calibrate", map[string]interface{}{"anisotropic": true, "markers": markers})
	if !s.session.Reference().Anisotropic {
		t.Fatal("anisotropic should be stored after a successful call")
	}

	cal := mustCall(t, s, "slab_calibrate", map[string]interface{}{"origin_to_scale_mm": 150})
	if !s.session.Reference().Anisotropic {
		t.Error("omitted anisotropic should keep the stored value")
	}
	// 300 mm over 400 px and 150 mm over 300 px stay separate.
	if x, y := cal["scale_x_mm_per_px"].(float64), cal["scale_y_mm_per_px"].(float64); math.Abs(x-0.75) > 1e-9 || math.Abs(y-0.5) > 1e-9 {
		t.Errorf("scales: got %v/%v, want 0.75/0.5", x, y)
	}
}

func TestHandleToolsCall_ContourFallback(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, 200, 150, color.White)

	res := mustCall(t, s, "slab_detect_contour", map[string]interface{}{"path": path})
	if res["fallback"] != true {
		t.Errorf("uniform image should fall back, got %v", res["fallback"])
	}
	if res["confidence"] != float64(0) {
		t.Errorf("confidence: got %v, want 0", res["confidence"])
	}
	if attempts, _ := res["attempts"].([]interface{}); len(attempts) != 3 {
		t.Errorf("attempts: got %d, want 3", len(attempts))
	}
	if _, ok := res["machine_contour"]; ok {
		t.Error("uncalibrated result should omit machine_contour")
	}
}

func TestHandleToolsCall_MeasureUncalibrated(t *testing.T) {
	s := newTestServer()
	dist := mustCall(t, s, "slab_measure_distance", map[string]interface{}{"x1": 0, "y1": 0, "x2": 3, "y2": 4})
	if dist["pixels"] != float64(5) {
		t.Errorf("pixels: got %v, want 5", dist["pixels"])
	}
	if dist["calibrated"] != false {
		t.Error("calibrated should be false")
	}
	if _, ok := dist["mm"]; ok {
		t.Error("mm should be omitted without calibration")
	}
}
