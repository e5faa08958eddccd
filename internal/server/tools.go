package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the file",
}

var boxProperty = map[string]interface{}{
	"type":        "array",
	"items":       map[string]interface{}{"type": "number"},
	"minItems":    4,
	"maxItems":    4,
	"description": "Bounding box as [x1, y1, x2, y2] or [x, y, w, h]",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Moderation
		{
			Name:        "moderate_image",
			Description: "Detect people and exposed anatomy in an image and return a SAFE, SUGGESTIVE or NSFW verdict with the observations behind it and a text description.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"annotate": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return a PNG with person ROIs and observation boxes drawn on it. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "redact_image",
			Description: "Moderate an image and, unless it is SAFE, blur every sensitive region and save the result. A SAFE image is saved unchanged.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Where to write the redacted image. The extension selects the format",
					},
					"intensity": map[string]interface{}{
						"type":        "integer",
						"description": "Blur intensity (kernel size hint). Default from configuration (75)",
						"minimum":     1,
						"maximum":     255,
					},
					"margin_pct": map[string]interface{}{
						"type":             "number",
						"description":      "Margin around each region as a percentage of its size. Default from configuration (40)",
						"exclusiveMinimum": 0,
					},
				},
				"required": []string{"path", "output_path"},
			},
		},

		// Video Moderation
		{
			Name:        "moderate_video",
			Description: "Run the two-pass video moderation: detect and temporally confirm nudity, build redaction intervals and, when output_path is given, write a redacted copy of the video.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path for the redacted video (mp4)",
					},
					"detect_every_n_frames": map[string]interface{}{
						"type":        "integer",
						"description": "Run detection on every n-th frame only. Default from configuration (1)",
						"minimum":     1,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "describe_video",
			Description: "Sample a video at a fixed interval and describe where suggestive or explicit content appears, with HH:MM:SS timestamps. Nothing is redacted.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"interval_seconds": map[string]interface{}{
						"type":        "number",
						"description": "Seconds between analyzed frames. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
		},

		// Analysis Helpers
		{
			Name:        "evaluate_detections",
			Description: "Grade raw detector output without running any model. Detections are {label, score, box} triples; persons, when given, gate the evaluation the way the person locator does.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Frame width in pixels",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Frame height in pixels",
					},
					"offset_x": map[string]interface{}{
						"type":        "integer",
						"description": "X origin of the region the detections were found in. Default 0",
						"default":     0,
					},
					"offset_y": map[string]interface{}{
						"type":        "integer",
						"description": "Y origin of the region the detections were found in. Default 0",
						"default":     0,
					},
					"persons": map[string]interface{}{
						"type":        "array",
						"description": "Optional person detections. An empty list means no person was found",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"box":        boxProperty,
								"confidence": map[string]interface{}{"type": "number"},
							},
						},
					},
					"detections": map[string]interface{}{
						"type":        "array",
						"description": "Anatomical region detections",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"label": map[string]interface{}{"type": "string"},
								"score": map[string]interface{}{"type": "number"},
								"box":   boxProperty,
							},
							"required": []string{"label", "score", "box"},
						},
					},
				},
				"required": []string{"width", "height", "detections"},
			},
		},
		{
			Name:        "schedule_intervals",
			Description: "Turn flagged timestamps into merged redaction intervals clamped to the video duration.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"timestamps": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "number"},
						"description": "Flagged timestamps in seconds",
					},
					"duration": map[string]interface{}{
						"type":        "number",
						"description": "Video duration in seconds",
					},
					"margin_before": map[string]interface{}{
						"type":        "number",
						"description": "Seconds added before each timestamp. Default from configuration (2.0)",
					},
					"margin_after": map[string]interface{}{
						"type":        "number",
						"description": "Seconds added after each timestamp. Default from configuration (1.0)",
					},
				},
				"required": []string{"timestamps", "duration"},
			},
		},

		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The image stays cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
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
