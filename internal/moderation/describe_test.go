package moderation

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/content-guard-mcp/internal/severity"
	"github.com/ironsheep/content-guard-mcp/internal/video"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{59.9, "00:00:59"},
		{61, "00:01:01"},
		{3725.9, "01:02:05"},
		{-4, "00:00:00"},
		{math.NaN(), "00:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatClock(tt.seconds), "seconds=%v", tt.seconds)
	}
}

func TestSummarize(t *testing.T) {
	assert.Equal(t,
		"No sensitive content detected in the video (12 frames analyzed).",
		Summarize(severity.Safe, 0, 12))
	assert.Equal(t,
		"Explicit content (NSFW) detected at 3 timestamp(s) (25.0% of the video).",
		Summarize(severity.NSFW, 3, 12))
	assert.Equal(t,
		"Suggestive content detected at 1 timestamp(s) (10.0% of the video).",
		Summarize(severity.Suggestive, 1, 10))
}

func TestDescribeVideoSafe(t *testing.T) {
	p := replayPipeline(t, explicitLabels(), testOptions())

	desc, err := p.DescribeVideo(context.Background(), memoryVideo(20, 10), 0.5)
	require.NoError(t, err)

	assert.False(t, desc.HasNudity)
	assert.Equal(t, severity.Safe, desc.Level)
	assert.Equal(t, 4, desc.FramesAnalyzed)
	assert.Empty(t, desc.Moments)
	assert.Equal(t, "00:00:02", desc.DurationText)
	assert.Contains(t, desc.Summary, "No sensitive content")
}

func TestDescribeVideoReportsConfirmedMoments(t *testing.T) {
	p := replayPipeline(t, explicitLabels(10, 15, 20), testOptions())

	desc, err := p.DescribeVideo(context.Background(), memoryVideo(30, 10), 0.5)
	require.NoError(t, err)

	assert.Equal(t, 6, desc.FramesAnalyzed)
	assert.InDelta(t, 0.5, desc.Interval, 1e-9)
	assert.True(t, desc.HasNudity)
	assert.Equal(t, severity.NSFW, desc.Level)
	assert.Contains(t, desc.Summary, "Explicit content (NSFW)")

	var confirmedAtTwo bool
	for _, m := range desc.Moments {
		assert.NotEqual(t, severity.Safe, m.Level)
		assert.NotEmpty(t, m.Description)
		if m.Time == "00:00:02" && m.Confirmed {
			confirmedAtTwo = true
		}
	}
	assert.True(t, confirmedAtTwo)
	assert.Equal(t, 3, desc.Statistics.NSFWFrames)
}

func TestDescribeVideoDefaultsInterval(t *testing.T) {
	p := replayPipeline(t, explicitLabels(), testOptions())

	desc, err := p.DescribeVideo(context.Background(), memoryVideo(25, 10), 0)
	require.NoError(t, err)
	assert.InDelta(t, DefaultDescribeInterval, desc.Interval, 1e-9)
	assert.Equal(t, 3, desc.FramesAnalyzed)
}

func TestDescribeVideoRejectsEmptySource(t *testing.T) {
	p := replayPipeline(t, explicitLabels(), testOptions())
	_, err := p.DescribeVideo(context.Background(), &video.MemorySource{Rate: 10}, 1)
	require.Error(t, err)
}
