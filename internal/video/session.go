package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Session holds the scratch files for one input video: its extracted frames
// and audio track. Close removes them.
type Session struct {
	ff     *FFmpeg
	root   string
	info   Info
	source *DirSource
	audio  string
}

// Open probes input and extracts its frames and audio under a new directory
// in tempDir.
func (f *FFmpeg) Open(ctx context.Context, input, tempDir string) (*Session, error) {
	info, err := f.Probe(ctx, input)
	if err != nil {
		return nil, err
	}

	root, err := os.MkdirTemp(tempDir, "content-guard-video-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	s := &Session{ff: f, root: root, info: *info}

	framesDir := filepath.Join(root, "frames")
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		s.Close()
		return nil, err
	}
	count, err := f.ExtractFrames(ctx, input, framesDir)
	if err != nil {
		s.Close()
		return nil, err
	}
	if count == 0 {
		s.Close()
		return nil, fmt.Errorf("no frames extracted from %s", input)
	}
	s.info.Frames = count
	s.info.Duration = max(s.info.Duration, Timestamp(count, s.info.FPS))
	s.source = NewDirSource(framesDir, count, s.info.FPS)

	if info.HasAudio {
		audio := filepath.Join(root, "audio.aac")
		if f.ExtractAudio(ctx, input, audio) {
			s.audio = audio
		}
	}

	f.logger.WithFields(logrus.Fields{
		"path":      input,
		"frames":    count,
		"fps":       s.info.FPS,
		"duration":  s.info.Duration,
		"has_audio": s.audio != "",
	}).Info("video extracted")
	return s, nil
}

// Info returns the probed metadata, with Frames set to the extracted count.
func (s *Session) Info() Info { return s.info }

// Source returns the extracted frames.
func (s *Session) Source() Source { return s.source }

// Sink returns a sink that encodes into output at the input frame rate with
// the input's audio track.
func (s *Session) Sink(output string, crf int) (Sink, error) {
	return NewDirSink(s.ff, filepath.Join(s.root, "out"), output, EncodeOptions{
		FPS:   s.info.FPS,
		CRF:   crf,
		Audio: s.audio,
	})
}

// Close deletes the session's scratch directory.
func (s *Session) Close() error {
	return os.RemoveAll(s.root)
}
