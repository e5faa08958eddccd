package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/content-guard-mcp/internal/imaging"
	"github.com/ironsheep/content-guard-mcp/internal/moderation"
	"github.com/ironsheep/content-guard-mcp/internal/video"
)

// Name and Version identify the server in the initialize handshake.
const Name = "content-guard-mcp"

var Version = "0.1.0"

// Options carries the optional collaborators of a Server.
type Options struct {
	// FFmpeg enables the video tools. Without it they fail with
	// video.ErrFFmpegUnavailable.
	FFmpeg *video.FFmpeg

	// TempDir is where video sessions extract frames. Empty means os.TempDir.
	TempDir string

	// CRF is the x264 quality used for redacted videos.
	CRF int

	Logger *logrus.Logger
}

// Server handles MCP protocol communication
type Server struct {
	cache    *imaging.ImageCache
	pipeline *moderation.Pipeline
	ffmpeg   *video.FFmpeg
	tempDir  string
	crf      int
	logger   *logrus.Entry
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a new MCP server around a moderation pipeline.
func New(pipeline *moderation.Pipeline, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	crf := opts.CRF
	if crf <= 0 {
		crf = 23
	}
	return &Server{
		cache:    imaging.NewImageCache(),
		pipeline: pipeline,
		ffmpeg:   opts.FFmpeg,
		tempDir:  opts.TempDir,
		crf:      crf,
		logger:   logger.WithField("component", "server"),
	}
}

// Run serves MCP requests from stdin to stdout until stdin closes or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w.
// It returns when r is exhausted or ctx is cancelled, without waiting for a
// pending read to complete.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines, readErr := readLines(ctx, r)
	encoder := json.NewEncoder(w)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("scanner error: %w", err)
				}
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(line) == 0 {
				continue
			}

			var req MCPRequest
			if err := json.Unmarshal(line, &req); err != nil {
				s.logger.WithError(err).Warn("Failed to parse request")
				continue
			}

			resp := s.handleRequest(ctx, &req)
			if resp != nil {
				if err := encoder.Encode(resp); err != nil {
					s.logger.WithError(err).Error("Failed to encode response")
				}
			}
		}
	}
}

// readLines scans r on its own goroutine. The lines channel is closed when r
// is exhausted; readErr then carries the scanner error, if any.
func readLines(ctx context.Context, r io.Reader) (<-chan []byte, <-chan error) {
	lines := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		// Increase buffer size for large requests
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)

		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
		readErr <- scanner.Err()
	}()
	return lines, readErr
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.logger.WithField("method", req.Method).Debug("Request received")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    Name,
				"version": Version,
			},
		},
	}
}
