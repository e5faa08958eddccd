// Package video wraps ffmpeg and ffprobe for frame extraction and
// re-encoding, and defines the frame source and sink used by the
// moderation pipeline.
package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrFFmpegUnavailable is returned when ffmpeg or ffprobe cannot be run.
var ErrFFmpegUnavailable = errors.New("ffmpeg unavailable")

// DefaultFPS is assumed when the stream reports no usable frame rate.
const DefaultFPS = 30.0

// FramePattern is the file name pattern for extracted frames. ffmpeg numbers
// them from 1.
const FramePattern = "frame_%06d.jpg"

// Info describes a probed video.
type Info struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
	Duration float64 `json:"duration"`
	Frames   int     `json:"frames"`
	Codec    string  `json:"codec,omitempty"`
	HasAudio bool    `json:"has_audio"`
}

// FFmpeg runs the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	logger      *logrus.Entry
}

// NewFFmpeg checks that both binaries run and returns a wrapper for them.
func NewFFmpeg(ctx context.Context, ffmpegPath, ffprobePath string, logger *logrus.Entry) (*FFmpeg, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	f := &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		logger:      logger.WithField("component", "ffmpeg"),
	}
	for _, bin := range []string{ffmpegPath, ffprobePath} {
		if err := exec.CommandContext(ctx, bin, "-version").Run(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrFFmpegUnavailable, bin, err)
		}
	}
	return f, nil
}

// Probe reads stream and container metadata.
func (f *FFmpeg) Probe(ctx context.Context, path string) (*Info, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	output, err := exec.CommandContext(ctx, f.ffprobePath, args...).Output()
	if err != nil {
		f.logger.WithError(err).WithField("path", path).Error("ffprobe failed")
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbe(output)
}

// ffprobe JSON output structures
type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

type ffprobeStream struct {
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	Duration   string `json:"duration"`
	NbFrames   string `json:"nb_frames"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

func parseProbe(data []byte) (*Info, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &Info{}
	var streamDuration float64
	var videoFound bool
	for _, s := range probe.Streams {
		switch s.CodecType {
		case "video":
			if videoFound {
				continue
			}
			videoFound = true
			info.Width = s.Width
			info.Height = s.Height
			info.Codec = s.CodecName
			info.FPS = parseFrameRate(s.RFrameRate)
			streamDuration, _ = strconv.ParseFloat(s.Duration, 64)
			info.Frames, _ = strconv.Atoi(s.NbFrames)
		case "audio":
			info.HasAudio = true
		}
	}
	if !videoFound {
		return nil, errors.New("no video stream found")
	}
	if info.FPS <= 0 {
		info.FPS = DefaultFPS
	}

	info.Duration = streamDuration
	if info.Duration <= 0 {
		info.Duration, _ = strconv.ParseFloat(probe.Format.Duration, 64)
	}
	if info.Frames <= 0 && info.Duration > 0 {
		info.Frames = int(info.Duration * info.FPS)
	}
	return info, nil
}

// parseFrameRate converts a rate such as "30000/1001" to frames per second.
func parseFrameRate(rate string) float64 {
	parts := strings.Split(rate, "/")
	if len(parts) == 1 {
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0
		}
		return v
	}
	if len(parts) != 2 {
		return 0
	}

	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}

	return num / den
}

// ExtractFrames decodes every frame of input into dir using FramePattern and
// returns the number of frames written.
func (f *FFmpeg) ExtractFrames(ctx context.Context, input, dir string) (int, error) {
	args := []string{
		"-y",
		"-i", input,
		"-q:v", "2",
		filepath.Join(dir, FramePattern),
	}
	if err := f.run(ctx, args); err != nil {
		return 0, fmt.Errorf("frame extraction failed: %w", err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "frame_*.jpg"))
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

// ExtractAudio copies the audio track of input to dst. It reports false
// when the video has no audio or the track cannot be copied.
func (f *FFmpeg) ExtractAudio(ctx context.Context, input, dst string) bool {
	args := []string{
		"-y",
		"-i", input,
		"-vn",
		"-acodec", "copy",
		dst,
	}
	if err := f.run(ctx, args); err != nil {
		f.logger.WithError(err).Debug("no audio track extracted")
		return false
	}
	st, err := os.Stat(dst)
	return err == nil && st.Size() > 0
}

// EncodeOptions controls re-encoding of a frame directory.
type EncodeOptions struct {
	FPS   float64
	CRF   int
	Audio string
}

// Encode assembles the frames in dir into output with H.264, muxing in the
// audio file when one is given.
func (f *FFmpeg) Encode(ctx context.Context, dir, output string, opts EncodeOptions) error {
	fps := opts.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	args := []string{
		"-y",
		"-framerate", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", filepath.Join(dir, FramePattern),
	}
	if opts.Audio != "" {
		args = append(args, "-i", opts.Audio)
	}
	args = append(args,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-crf", strconv.Itoa(opts.CRF),
	)
	if opts.Audio != "" {
		args = append(args, "-c:a", "aac", "-shortest")
	}
	args = append(args, output)

	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := f.run(ctx, args); err != nil {
		return fmt.Errorf("encoding failed: %w", err)
	}
	return nil
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.WithFields(logrus.Fields{
			"args":   strings.Join(args, " "),
			"output": tail(string(out), 512),
		}).Debug("ffmpeg failed")
		return fmt.Errorf("%s execution failed: %w (%s)", filepath.Base(f.ffmpegPath), err, tail(string(out), 512))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
