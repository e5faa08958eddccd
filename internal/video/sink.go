package video

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
)

// Sink receives output frames. WriteFrame may be called concurrently for
// different indices; Close finishes the output once every frame is written.
type Sink interface {
	WriteFrame(i int, img image.Image) error
	Close(ctx context.Context) error
}

// DirSink writes frames to a directory and encodes them into a video on Close.
type DirSink struct {
	ff     *FFmpeg
	dir    string
	output string
	opts   EncodeOptions
}

// NewDirSink creates the frame directory for an encode into output.
func NewDirSink(ff *FFmpeg, dir, output string, opts EncodeOptions) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frame directory: %w", err)
	}
	return &DirSink{ff: ff, dir: dir, output: output, opts: opts}, nil
}

func (s *DirSink) WriteFrame(i int, img image.Image) error {
	path := filepath.Join(s.dir, fmt.Sprintf(FramePattern, i+1))
	if err := imaging.Save(img, path, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", i, err)
	}
	return nil
}

func (s *DirSink) Close(ctx context.Context) error {
	return s.ff.Encode(ctx, s.dir, s.output, s.opts)
}

// MemorySink keeps output frames in memory.
type MemorySink struct {
	mu     sync.Mutex
	frames map[int]image.Image
	closed bool
}

func NewMemorySink() *MemorySink {
	return &MemorySink{frames: make(map[int]image.Image)}
}

func (s *MemorySink) WriteFrame(i int, img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sink closed")
	}
	s.frames[i] = img
	return nil
}

func (s *MemorySink) Close(context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Frame returns frame i, or nil if it was never written.
func (s *MemorySink) Frame(i int) image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames[i]
}

// Len returns the number of frames written.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Closed reports whether Close was called.
func (s *MemorySink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
