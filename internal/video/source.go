package video

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Source gives random access to decoded frames. Frame indices run from 0 to
// Len()-1 and a frame's timestamp is Index/FPS.
type Source interface {
	Len() int
	FPS() float64
	Frame(i int) (image.Image, error)
}

// Timestamp returns the time of frame i in seconds.
func Timestamp(i int, fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(i) / fps
}

// Duration returns the length of src in seconds.
func Duration(src Source) float64 {
	return Timestamp(src.Len(), src.FPS())
}

// DirSource reads frames extracted by FFmpeg.ExtractFrames.
type DirSource struct {
	dir   string
	count int
	fps   float64
}

// NewDirSource wraps a directory of count extracted frames.
func NewDirSource(dir string, count int, fps float64) *DirSource {
	return &DirSource{dir: dir, count: count, fps: fps}
}

func (s *DirSource) Len() int     { return s.count }
func (s *DirSource) FPS() float64 { return s.fps }

// Path returns the file holding frame i.
func (s *DirSource) Path(i int) string {
	return filepath.Join(s.dir, fmt.Sprintf(FramePattern, i+1))
}

func (s *DirSource) Frame(i int) (image.Image, error) {
	if i < 0 || i >= s.count {
		return nil, fmt.Errorf("frame %d out of range [0,%d)", i, s.count)
	}
	img, err := imaging.Open(s.Path(i))
	if err != nil {
		return nil, fmt.Errorf("failed to read frame %d: %w", i, err)
	}
	return img, nil
}

// MemorySource serves frames held in memory.
type MemorySource struct {
	Frames []image.Image
	Rate   float64
}

func (s *MemorySource) Len() int     { return len(s.Frames) }
func (s *MemorySource) FPS() float64 { return s.Rate }

func (s *MemorySource) Frame(i int) (image.Image, error) {
	if i < 0 || i >= len(s.Frames) {
		return nil, fmt.Errorf("frame %d out of range [0,%d)", i, len(s.Frames))
	}
	return s.Frames[i], nil
}
