package moderation

import (
	"context"
	"image"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
	"github.com/ironsheep/content-guard-mcp/internal/detection"
	"github.com/ironsheep/content-guard-mcp/internal/schedule"
	"github.com/ironsheep/content-guard-mcp/internal/severity"
	"github.com/ironsheep/content-guard-mcp/internal/video"
)

// explicitLabels records a person with exposed genitalia on each of frames.
func explicitLabels(frames ...int) *detection.VideoLabels {
	labels := &detection.VideoLabels{Classes: []string{"person", "FEMALE_GENITALIA_EXPOSED"}}
	for _, f := range frames {
		labels.Frames = append(labels.Frames, &detection.FrameLabels{
			Frame: f,
			Objects: []detection.LabeledObject{
				{Class: 0, Confidence: 0.9, Box: [4]float64{20, 20, 180, 180}},
				{Class: 1, Confidence: 0.8, Box: [4]float64{40, 40, 100, 100}},
			},
		})
	}
	return labels
}

func memoryVideo(n int, fps float64) *video.MemorySource {
	src := &video.MemorySource{Rate: fps}
	for i := 0; i < n; i++ {
		src.Frames = append(src.Frames, checkerboard(200, 200))
	}
	return src
}

func replayPipeline(t *testing.T, labels *detection.VideoLabels, opts Options) *Pipeline {
	t.Helper()
	replay := detection.NewReplay(labels)
	return newPipeline(t, replay, replay, opts)
}

func TestProcessVideoRedactsAroundConfirmedNudity(t *testing.T) {
	p := replayPipeline(t, explicitLabels(10, 11, 12), testOptions())
	src := memoryVideo(30, 10)
	sink := video.NewMemorySink()

	rep, err := p.ProcessVideo(context.Background(), src, sink)
	require.NoError(t, err)

	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, 30, rep.TotalFrames)
	assert.Equal(t, 30, rep.SampledFrames)
	assert.InDelta(t, 3.0, rep.Duration, 1e-9)
	assert.True(t, rep.Conservative)
	assert.True(t, rep.ConfirmedNudity)
	assert.Equal(t, severity.NSFW, rep.MaxLevel)
	assert.InDeltaSlice(t, []float64{1.0, 1.1, 1.2}, rep.Timestamps, 1e-9)

	require.Len(t, rep.Intervals, 1)
	assert.InDelta(t, 0.0, rep.Intervals[0].Start, 1e-9)
	assert.InDelta(t, 2.2, rep.Intervals[0].End, 1e-9)

	require.Len(t, rep.Frames, 30)
	assert.False(t, rep.Frames[9].Flagged)
	assert.True(t, rep.Frames[10].Flagged)
	assert.Equal(t, 1, rep.Frames[10].Sensitive)
	assert.True(t, rep.Frames[12].Temporal.ConfirmedNudity)
	assert.Equal(t, 3, rep.Statistics.NSFWFrames)

	require.NotNil(t, rep.Redaction)
	assert.Equal(t, rep.Redaction.FramesInIntervals, rep.Redaction.RedactedFrames)
	assert.Zero(t, rep.Redaction.FallbackFrames)
	assert.Equal(t, 3, rep.Redaction.Sources[schedule.SourceDirect])
	assert.Equal(t, 1, rep.Redaction.Sources[schedule.SourceSearch])
	assert.Positive(t, rep.Redaction.Sources[schedule.SourceCarried])

	assert.True(t, sink.Closed())
	require.Equal(t, 30, sink.Len())

	original := checkerboard(200, 200)
	for i := 0; i < 30; i++ {
		out := sink.Frame(i)
		require.NotNil(t, out, "frame %d", i)
		switch {
		case i <= 21:
			assert.NotEqual(t, original.At(70, 70), out.At(70, 70), "frame %d should be blurred", i)
		case i >= 23:
			assert.Equal(t, original.At(70, 70), out.At(70, 70), "frame %d should be untouched", i)
		}
	}
}

func TestProcessVideoSafeVideoPassesThrough(t *testing.T) {
	p := replayPipeline(t, explicitLabels(), testOptions())
	src := memoryVideo(12, 24)
	sink := video.NewMemorySink()

	rep, err := p.ProcessVideo(context.Background(), src, sink)
	require.NoError(t, err)

	assert.False(t, rep.ConfirmedNudity)
	assert.Equal(t, severity.Safe, rep.MaxLevel)
	assert.Empty(t, rep.Timestamps)
	assert.Empty(t, rep.Intervals)
	assert.Zero(t, rep.Redaction.FramesInIntervals)
	assert.Zero(t, rep.Redaction.RedactedFrames)
	assert.Equal(t, 12, sink.Len())
	assert.Same(t, src.Frames[5], sink.Frame(5))
}

func TestProcessVideoWithoutSinkSkipsRedaction(t *testing.T) {
	p := replayPipeline(t, explicitLabels(0, 1, 2), testOptions())

	rep, err := p.ProcessVideo(context.Background(), memoryVideo(5, 5), nil)
	require.NoError(t, err)
	assert.True(t, rep.ConfirmedNudity)
	assert.Nil(t, rep.Redaction)
	assert.NotEmpty(t, rep.Intervals)
}

func TestProcessVideoSamplesEveryNFrames(t *testing.T) {
	opts := testOptions()
	opts.Schedule.DetectEveryNFrames = 5
	p := replayPipeline(t, explicitLabels(10), opts)
	sink := video.NewMemorySink()

	rep, err := p.ProcessVideo(context.Background(), memoryVideo(30, 10), sink)
	require.NoError(t, err)

	assert.Equal(t, 7, rep.SampledFrames)
	require.Len(t, rep.Frames, 7)
	var sampled []int
	for _, f := range rep.Frames {
		sampled = append(sampled, f.Frame)
	}
	assert.Equal(t, []int{0, 5, 10, 15, 20, 25, 29}, sampled)

	assert.Equal(t, 1, rep.Redaction.Sources[schedule.SourceDirect])
	assert.Positive(t, rep.Redaction.Sources[schedule.SourceNeighbor])
	assert.Equal(t, 30, sink.Len())
}

func TestProcessVideoDedupReusesAnalysis(t *testing.T) {
	var calls atomic.Int32
	persons := detection.PersonLocatorFunc(func(context.Context, detection.Frame) ([]detection.Person, error) {
		calls.Add(1)
		return []detection.Person{{Box: anatomy.Box{X1: 20, Y1: 20, X2: 180, Y2: 180}, Confidence: 0.9}}, nil
	})
	regions := detection.StaticDetector{Regions: []anatomy.Detection{
		{Label: "FEMALE_GENITALIA_EXPOSED", Score: 0.8, Box: [4]float64{40, 40, 100, 100}},
	}}

	opts := testOptions()
	opts.DedupDistance = 5
	p := newPipeline(t, persons, regions, opts)

	rep, err := p.ProcessVideo(context.Background(), memoryVideo(10, 10), nil)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 9, rep.ReusedFrames)
	assert.False(t, rep.Frames[0].Reused)
	assert.True(t, rep.Frames[9].Reused)
	assert.InDelta(t, 0.9, rep.Frames[9].Timestamp, 1e-9)
	assert.Len(t, rep.Timestamps, 10)
	assert.True(t, rep.ConfirmedNudity)
}

func TestProcessVideoCancelled(t *testing.T) {
	p := replayPipeline(t, explicitLabels(1), testOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ProcessVideo(ctx, memoryVideo(4, 10), video.NewMemorySink())
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcessVideoRejectsEmptySource(t *testing.T) {
	p := replayPipeline(t, explicitLabels(), testOptions())
	_, err := p.ProcessVideo(context.Background(), &video.MemorySource{Rate: 30}, nil)
	require.Error(t, err)
}

func TestProcessVideoPropagatesFrameErrors(t *testing.T) {
	p := replayPipeline(t, explicitLabels(), testOptions())
	src := &video.MemorySource{Rate: 10, Frames: []image.Image{checkerboard(20, 20), nil}}

	_, err := p.ProcessVideo(context.Background(), src, nil)
	require.Error(t, err)
}
