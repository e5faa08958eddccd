package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
	"github.com/ironsheep/content-guard-mcp/internal/detection"
	"github.com/ironsheep/content-guard-mcp/internal/imaging"
	"github.com/ironsheep/content-guard-mcp/internal/moderation"
	"github.com/ironsheep/content-guard-mcp/internal/schedule"
	"github.com/ironsheep/content-guard-mcp/internal/severity"
	"github.com/ironsheep/content-guard-mcp/internal/video"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "moderate_image", "redact_image").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

var errNoPipeline = errors.New("moderation pipeline not configured")

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

	log := s.logger.WithField("tool", params.Name)
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		log.WithError(err).Warn("Tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	log.Debug("Tool executed")

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
//  3. Loads images from cache or opens a video session as needed
//  4. Calls the moderation pipeline
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image Moderation
	case "moderate_image":
		return s.handleModerateImage(ctx, args)
	case "redact_image":
		return s.handleRedactImage(ctx, args)

	// Video Moderation
	case "moderate_video":
		return s.handleModerateVideo(ctx, args)
	case "describe_video":
		return s.handleDescribeVideo(ctx, args)

	// Analysis Helpers
	case "evaluate_detections":
		return s.handleEvaluateDetections(args)
	case "schedule_intervals":
		return s.handleScheduleIntervals(args)

	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

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

func requirePath(path string) error {
	if path == "" {
		return errors.New("path is required")
	}
	return nil
}

// === Image Moderation Handlers ===

type moderateImageArgs struct {
	Path     string `json:"path"`
	Annotate bool   `json:"annotate"`
}

type moderateImageResult struct {
	*moderation.ImageReport
	Annotation *imaging.AnnotationResult `json:"annotation,omitempty"`
}

func (s *Server) handleModerateImage(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a moderateImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	if s.pipeline == nil {
		return nil, errNoPipeline
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	report, err := s.pipeline.ModerateImage(ctx, img)
	if err != nil {
		return nil, err
	}
	report.Path = a.Path

	result := moderateImageResult{ImageReport: report}
	if a.Annotate {
		rois := make([]anatomy.Box, 0, len(report.Persons))
		for _, person := range report.Persons {
			rois = append(rois, person.Box)
		}
		result.Annotation, err = imaging.AnnotateEncoded(img, report.Observations, imaging.AnnotateOptions{
			ROIs:       rois,
			ShowLabels: true,
		})
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

type redactImageArgs struct {
	Path       string   `json:"path"`
	OutputPath string   `json:"output_path"`
	Intensity  *int     `json:"intensity,omitempty"`
	MarginPct  *float64 `json:"margin_pct,omitempty"`
}

func (s *Server) handleRedactImage(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a redactImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	if a.OutputPath == "" {
		return nil, errors.New("output_path is required")
	}
	if s.pipeline == nil {
		return nil, errNoPipeline
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	cfg := s.pipeline.Options().Redact
	if a.Intensity != nil {
		if *a.Intensity < 1 || *a.Intensity > 255 {
			return nil, fmt.Errorf("intensity must be between 1 and 255, got %d", *a.Intensity)
		}
		cfg.Intensity = *a.Intensity
	}
	if a.MarginPct != nil {
		if *a.MarginPct <= 0 {
			return nil, fmt.Errorf("margin_pct must be greater than 0, got %g", *a.MarginPct)
		}
		cfg.MarginPct = *a.MarginPct
	}

	out, report, err := s.pipeline.RedactImage(ctx, img, &cfg)
	if err != nil {
		return nil, err
	}
	if err := imaging.Save(out, a.OutputPath); err != nil {
		return nil, err
	}
	s.cache.Evict(a.OutputPath)

	report.Path = a.Path
	report.OutputPath = a.OutputPath
	return report, nil
}

// === Video Moderation Handlers ===

type moderateVideoArgs struct {
	Path               string `json:"path"`
	OutputPath         string `json:"output_path,omitempty"`
	DetectEveryNFrames int    `json:"detect_every_n_frames,omitempty"`
}

func (s *Server) openVideo(ctx context.Context, path string) (*video.Session, error) {
	if err := requirePath(path); err != nil {
		return nil, err
	}
	if s.pipeline == nil {
		return nil, errNoPipeline
	}
	if s.ffmpeg == nil {
		return nil, video.ErrFFmpegUnavailable
	}
	return s.ffmpeg.Open(ctx, path, s.tempDir)
}

func (s *Server) handleModerateVideo(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a moderateVideoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.openVideo(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	p := s.pipeline
	if a.DetectEveryNFrames > 0 {
		p = p.WithDetectEveryNFrames(a.DetectEveryNFrames)
	}

	var sink video.Sink
	if a.OutputPath != "" {
		sink, err = sess.Sink(a.OutputPath, s.crf)
		if err != nil {
			return nil, err
		}
	}

	report, err := p.ProcessVideo(ctx, sess.Source(), sink)
	if err != nil {
		return nil, err
	}
	report.Path = a.Path
	report.OutputPath = a.OutputPath
	return report, nil
}

type describeVideoArgs struct {
	Path            string  `json:"path"`
	IntervalSeconds float64 `json:"interval_seconds,omitempty"`
}

func (s *Server) handleDescribeVideo(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a describeVideoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.openVideo(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	desc, err := s.pipeline.DescribeVideo(ctx, sess.Source(), a.IntervalSeconds)
	if err != nil {
		return nil, err
	}
	desc.Path = a.Path
	return desc, nil
}

// === Analysis Helper Handlers ===

type evaluateDetectionsArgs struct {
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	OffsetX    int             `json:"offset_x"`
	OffsetY    int             `json:"offset_y"`
	Persons    json.RawMessage `json:"persons,omitempty"`
	Detections json.RawMessage `json:"detections"`
}

type evaluationResult struct {
	*moderation.FrameAnalysis
	Description severity.Description `json:"description"`
}

func (s *Server) handleEvaluateDetections(args json.RawMessage) (interface{}, error) {
	var a evaluateDetectionsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Width <= 0 || a.Height <= 0 {
		return nil, fmt.Errorf("width and height must be positive, got %dx%d", a.Width, a.Height)
	}
	if s.pipeline == nil {
		return nil, errNoPipeline
	}

	dets, err := detection.DecodeDetections(a.Detections)
	if err != nil {
		return nil, fmt.Errorf("detections: %w", err)
	}

	var analysis *moderation.FrameAnalysis
	if len(a.Persons) > 0 && string(a.Persons) != "null" {
		persons, err := detection.DecodePersons(a.Persons)
		if err != nil {
			return nil, fmt.Errorf("persons: %w", err)
		}
		analysis = s.pipeline.EvaluateWithPersons(persons, dets, a.OffsetX, a.OffsetY, a.Width, a.Height)
	} else {
		analysis = s.pipeline.EvaluateDetections(dets, a.OffsetX, a.OffsetY, a.Width, a.Height)
	}

	return evaluationResult{
		FrameAnalysis: analysis,
		Description:   severity.Describe(analysis.Verdict, analysis.Observations),
	}, nil
}

type scheduleIntervalsArgs struct {
	Timestamps   []float64 `json:"timestamps"`
	Duration     float64   `json:"duration"`
	MarginBefore *float64  `json:"margin_before,omitempty"`
	MarginAfter  *float64  `json:"margin_after,omitempty"`
}

type scheduleIntervalsResult struct {
	Intervals     schedule.Intervals `json:"intervals"`
	TotalDuration float64            `json:"total_duration"`
	Coverage      float64            `json:"coverage"`
}

func (s *Server) handleScheduleIntervals(args json.RawMessage) (interface{}, error) {
	var a scheduleIntervalsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Duration < 0 {
		return nil, fmt.Errorf("duration must not be negative, got %v", a.Duration)
	}

	before, after := schedule.DefaultMarginBefore, schedule.DefaultMarginAfter
	if s.pipeline != nil {
		opts := s.pipeline.Options().Schedule
		before, after = opts.MarginBefore, opts.MarginAfter
	}
	if a.MarginBefore != nil {
		before = *a.MarginBefore
	}
	if a.MarginAfter != nil {
		after = *a.MarginAfter
	}

	intervals := schedule.Build(a.Timestamps, a.Duration, before, after)
	result := scheduleIntervalsResult{
		Intervals:     intervals,
		TotalDuration: intervals.TotalDuration(),
	}
	if result.Intervals == nil {
		result.Intervals = schedule.Intervals{}
	}
	if a.Duration > 0 {
		result.Coverage = result.TotalDuration / a.Duration
	}
	return result, nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}
