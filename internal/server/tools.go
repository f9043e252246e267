package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pointProperties(suffix, what string) map[string]interface{} {
	return map[string]interface{}{
		"x" + suffix: map[string]interface{}{
			"type":        "number",
			"description": "X pixel coordinate of " + what + " (0-based, from left)",
		},
		"y" + suffix: map[string]interface{}{
			"type":        "number",
			"description": "Y pixel coordinate of " + what + " (0-based, from top)",
		},
	}
}

func merge(maps ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

var roleSchema = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"origin", "x_axis", "scale", "top_right"},
	"description": "Marker role",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Capture
		{
			Name:        "slab_load",
			Description: "Load a workpiece photograph and make it the current capture. Clears any markers and calibration from the previous capture.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Calibration
		{
			Name:        "slab_detect_markers",
			Description: "Find the reference markers in the corners of the current capture and assign their roles (origin, x_axis, scale, top_right).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Optional image to load first. Defaults to the current capture.",
					},
				},
			},
		},
		{
			Name:        "slab_refine_marker",
			Description: "Re-locate one marker near a tapped pixel. If no marker stands out the tap itself is used with zero confidence.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(pointProperties("", "the tap"), map[string]interface{}{
					"role": roleSchema,
				}),
				"required": []string{"x", "y", "role"},
			},
		},
		{
			Name:        "slab_calibrate",
			Description: "Build the pixel-to-machine coordinate system from the current markers, or from markers given here, and the real distances between them in millimeters.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"markers": map[string]interface{}{
						"type":        "array",
						"description": "Optional marker positions replacing the detected ones",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":    map[string]interface{}{"type": "integer"},
								"y":    map[string]interface{}{"type": "integer"},
								"role": roleSchema,
							},
							"required": []string{"x", "y", "role"},
						},
					},
					"origin_to_x_axis_mm": map[string]interface{}{
						"type":        "number",
						"description": "Real distance between the origin and x_axis markers. Default 300.",
					},
					"origin_to_scale_mm": map[string]interface{}{
						"type":        "number",
						"description": "Real distance between the origin and scale markers. Default 200.",
					},
					"layout": map[string]interface{}{
						"type":        "integer",
						"enum":        []int{3, 4},
						"description": "Number of markers. Default 4.",
					},
					"anisotropic": map[string]interface{}{
						"type":        "boolean",
						"description": "Keep separate X and Y ratios instead of averaging them",
					},
				},
			},
		},

		// Contour
		{
			Name:        "slab_detect_contour",
			Description: "Outline the slab around a seed pixel. Tries threshold, edge and color segmentation in turn and falls back to a fixed shape around the seed. Machine coordinates are included when calibrated.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(pointProperties("", "a pixel inside the slab; defaults to the image center"), map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Optional image to load first. Defaults to the current capture.",
					},
				}),
			},
		},

		// Measurement
		{
			Name:        "slab_pixel_to_machine",
			Description: "Convert pixel positions to machine millimeters with the current calibration.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"points": map[string]interface{}{
						"type":        "array",
						"description": "Pixel positions to convert",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x": map[string]interface{}{"type": "number"},
								"y": map[string]interface{}{"type": "number"},
							},
							"required": []string{"x", "y"},
						},
					},
				},
				"required": []string{"points"},
			},
		},
		{
			Name:        "slab_measure_distance",
			Description: "Measure the distance between two pixel positions in pixels and, when calibrated, in millimeters.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": merge(pointProperties("1", "the first point"), pointProperties("2", "the second point")),
				"required":   []string{"x1", "y1", "x2", "y2"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
