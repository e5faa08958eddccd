// Package server implements the MCP (Model Context Protocol) server for content moderation tools.
//
// This package provides a JSON-RPC 2.0 server that exposes nudity detection,
// severity grading and redaction through the MCP protocol, so that MCP clients
// can moderate images and videos without handling the models themselves.
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
// Image Moderation:
//   - moderate_image: Verdict, observations and description for one image
//   - redact_image: Blur sensitive regions and save the result
//
// Video Moderation (requires ffmpeg):
//   - moderate_video: Two-pass detection, temporal confirmation and redaction
//   - describe_video: Text-only account of flagged moments
//
// Analysis Helpers:
//   - evaluate_detections: Grade raw detector output without models
//   - schedule_intervals: Merge flagged timestamps into redaction intervals
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// # Image Caching
//
// Images are cached by path and reused across tool calls. Writing a redacted
// image evicts its output path from the cache.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(pipeline, server.Options{FFmpeg: ff, Logger: logger})
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal(err)
//	}
package server
