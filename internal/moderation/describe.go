package moderation

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/content-guard-mcp/internal/severity"
	"github.com/ironsheep/content-guard-mcp/internal/temporal"
	"github.com/ironsheep/content-guard-mcp/internal/video"
)

// DefaultDescribeInterval is the sampling interval for DescribeVideo in seconds.
const DefaultDescribeInterval = 1.0

// Moment is one flagged point in a video description.
type Moment struct {
	Timestamp   float64        `json:"timestamp"`
	Time        string         `json:"time"`
	Level       severity.Level `json:"level"`
	Confirmed   bool           `json:"confirmed_nudity"`
	Description string         `json:"description"`
}

// VideoDescription is a text-only account of where sensitive content appears.
type VideoDescription struct {
	ID             string              `json:"id"`
	Path           string              `json:"path,omitempty"`
	HasNudity      bool                `json:"has_nudity"`
	Level          severity.Level      `json:"level"`
	Summary        string              `json:"summary"`
	Duration       float64             `json:"duration"`
	DurationText   string              `json:"duration_formatted"`
	Interval       float64             `json:"interval_seconds"`
	FramesAnalyzed int                 `json:"frames_analyzed"`
	Moments        []Moment            `json:"moments"`
	Statistics     temporal.Statistics `json:"statistics"`
}

// FormatClock renders seconds as HH:MM:SS, truncating fractions.
func FormatClock(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	s := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// Summarize builds the one-line description of a whole video.
func Summarize(level severity.Level, moments, frames int) string {
	if level == severity.Safe {
		return fmt.Sprintf("No sensitive content detected in the video (%d frames analyzed).", frames)
	}
	pct := 0.0
	if frames > 0 {
		pct = float64(moments) / float64(frames) * 100
	}
	switch level {
	case severity.NSFW:
		return fmt.Sprintf("Explicit content (NSFW) detected at %d timestamp(s) (%.1f%% of the video).", moments, pct)
	case severity.Suggestive:
		return fmt.Sprintf("Suggestive content detected at %d timestamp(s) (%.1f%% of the video).", moments, pct)
	}
	return fmt.Sprintf("Content detected at %d timestamp(s).", moments)
}

// DescribeVideo samples src every interval seconds and reports each moment
// whose temporally smoothed level is not SAFE. Nothing is redacted.
func (p *Pipeline) DescribeVideo(ctx context.Context, src video.Source, interval float64) (*VideoDescription, error) {
	if interval <= 0 {
		interval = DefaultDescribeInterval
	}
	total := src.Len()
	if total == 0 {
		return nil, fmt.Errorf("video has no frames")
	}
	fps := src.FPS()
	step := max(1, int(math.Round(interval*fps)))

	var indices []int
	for i := 0; i < total; i += step {
		indices = append(indices, i)
	}

	analyses, err := p.detectFrames(ctx, src, indices, p.evaluator)
	if err != nil {
		return nil, err
	}

	desc := &VideoDescription{
		ID:             uuid.NewString(),
		Duration:       video.Duration(src),
		Interval:       interval,
		FramesAnalyzed: len(indices),
	}
	desc.DurationText = FormatClock(desc.Duration)

	agg := temporal.New(p.opts.Temporal)
	for _, a := range analyses {
		res := agg.Add(a.Verdict)
		if !res.ConfirmedNudity && res.Level == severity.Safe {
			continue
		}
		v := res.Frame
		v.Level = res.Level
		desc.Moments = append(desc.Moments, Moment{
			Timestamp:   a.Timestamp,
			Time:        FormatClock(a.Timestamp),
			Level:       res.Level,
			Confirmed:   res.ConfirmedNudity,
			Description: severity.Describe(v, a.Observations).Text,
		})
		desc.Level = severity.Max(desc.Level, res.Level)
	}
	desc.HasNudity = len(desc.Moments) > 0
	desc.Statistics = agg.Statistics()
	desc.Summary = Summarize(desc.Level, len(desc.Moments), len(indices))

	p.logger.WithFields(logrus.Fields{
		"id":      desc.ID,
		"frames":  len(indices),
		"moments": len(desc.Moments),
		"level":   desc.Level.String(),
	}).Info("Video described")
	return desc, nil
}
