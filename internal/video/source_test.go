package video

import (
	"context"
	"image"
	"image/color"
	"os"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func solidFrame(c color.Color) image.Image {
	return imaging.New(16, 12, c)
}

func TestTimestampAndDuration(t *testing.T) {
	require.InDelta(t, 0.5, Timestamp(15, 30), 1e-9)
	require.Equal(t, 0.0, Timestamp(10, 0))

	src := &MemorySource{Frames: make([]image.Image, 50), Rate: 25}
	require.InDelta(t, 2.0, Duration(src), 1e-9)
}

func TestMemorySource(t *testing.T) {
	src := &MemorySource{Frames: []image.Image{solidFrame(color.White), solidFrame(color.Black)}, Rate: 10}
	require.Equal(t, 2, src.Len())
	require.InDelta(t, 10.0, src.FPS(), 1e-9)

	img, err := src.Frame(1)
	require.NoError(t, err)
	require.NotNil(t, img)

	_, err = src.Frame(2)
	require.Error(t, err)
	_, err = src.Frame(-1)
	require.Error(t, err)
}

func TestDirSourceReadsNumberedFrames(t *testing.T) {
	dir := t.TempDir()
	src := NewDirSource(dir, 2, 24)
	require.NoError(t, imaging.Save(solidFrame(color.RGBA{200, 0, 0, 255}), src.Path(0)))
	require.NoError(t, imaging.Save(solidFrame(color.RGBA{0, 0, 200, 255}), src.Path(1)))

	require.Contains(t, src.Path(0), "frame_000001.jpg")

	img, err := src.Frame(1)
	require.NoError(t, err)
	r, _, b, _ := img.At(4, 4).RGBA()
	require.Greater(t, b>>8, r>>8)

	_, err = src.Frame(2)
	require.Error(t, err)
}

func TestMemorySink(t *testing.T) {
	sink := NewMemorySink()
	require.NoError(t, sink.WriteFrame(3, solidFrame(color.White)))
	require.Equal(t, 1, sink.Len())
	require.NotNil(t, sink.Frame(3))
	require.Nil(t, sink.Frame(0))

	require.NoError(t, sink.Close(context.Background()))
	require.True(t, sink.Closed())
	require.Error(t, sink.WriteFrame(4, solidFrame(color.White)))
}

func TestDirSinkWritesFrames(t *testing.T) {
	dir := t.TempDir() + "/out"
	sink, err := NewDirSink(nil, dir, "unused.mp4", EncodeOptions{})
	require.NoError(t, err)
	require.NoError(t, sink.WriteFrame(0, solidFrame(color.White)))

	_, err = os.Stat(NewDirSource(dir, 1, 1).Path(0))
	require.NoError(t, err)
}
