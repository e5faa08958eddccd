package video

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		rate string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 29.97002997},
		{"25", 25},
		{"0/0", 0},
		{"abc/1", 0},
		{"", 0},
		{"1/2/3", 0},
	}
	for _, tt := range tests {
		t.Run(tt.rate, func(t *testing.T) {
			require.InDelta(t, tt.want, parseFrameRate(tt.rate), 1e-6)
		})
	}
}

func TestParseProbe(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"codec_name": "h264", "codec_type": "video", "width": 1280, "height": 720,
			 "r_frame_rate": "25/1", "duration": "4.000000", "nb_frames": "100"},
			{"codec_name": "aac", "codec_type": "audio"}
		],
		"format": {"duration": "4.021000"}
	}`)

	info, err := parseProbe(data)
	require.NoError(t, err)
	require.Equal(t, 1280, info.Width)
	require.Equal(t, 720, info.Height)
	require.Equal(t, "h264", info.Codec)
	require.InDelta(t, 25.0, info.FPS, 1e-9)
	require.InDelta(t, 4.0, info.Duration, 1e-9)
	require.Equal(t, 100, info.Frames)
	require.True(t, info.HasAudio)
}

func TestParseProbeFallbacks(t *testing.T) {
	data := []byte(`{
		"streams": [{"codec_type": "video", "width": 64, "height": 48, "r_frame_rate": "0/0"}],
		"format": {"duration": "2.5"}
	}`)

	info, err := parseProbe(data)
	require.NoError(t, err)
	require.InDelta(t, DefaultFPS, info.FPS, 1e-9)
	require.InDelta(t, 2.5, info.Duration, 1e-9)
	require.Equal(t, 75, info.Frames)
	require.False(t, info.HasAudio)
}

func TestParseProbeErrors(t *testing.T) {
	_, err := parseProbe([]byte(`{"streams": [{"codec_type": "audio"}]}`))
	require.Error(t, err)

	_, err = parseProbe([]byte(`not json`))
	require.Error(t, err)
}

func TestNewFFmpegUnavailable(t *testing.T) {
	_, err := NewFFmpeg(context.Background(), "/nonexistent/ffmpeg", "/nonexistent/ffprobe", nil)
	require.ErrorIs(t, err, ErrFFmpegUnavailable)
}

func TestTail(t *testing.T) {
	require.Equal(t, "abc", tail("  abc \n", 10))
	require.Equal(t, "def", tail("abcdef", 3))
}
