package moderation

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
	"github.com/ironsheep/content-guard-mcp/internal/detection"
	"github.com/ironsheep/content-guard-mcp/internal/nudity"
	"github.com/ironsheep/content-guard-mcp/internal/redact"
	"github.com/ironsheep/content-guard-mcp/internal/schedule"
	"github.com/ironsheep/content-guard-mcp/internal/severity"
	"github.com/ironsheep/content-guard-mcp/internal/temporal"
	"github.com/ironsheep/content-guard-mcp/internal/video"
)

// FrameRecord is the pass 1 outcome for one sampled frame.
type FrameRecord struct {
	Frame     int              `json:"frame"`
	Timestamp float64          `json:"timestamp"`
	Reused    bool             `json:"reused,omitempty"`
	Persons   int              `json:"persons"`
	Parts     int              `json:"parts"`
	Sensitive int              `json:"sensitive_parts"`
	Verdict   severity.Verdict `json:"verdict"`
	Temporal  temporal.Result  `json:"temporal"`
	Flagged   bool             `json:"flagged"`
}

// RedactionSummary counts pass 2 outcomes.
type RedactionSummary struct {
	FramesInIntervals int                     `json:"frames_in_intervals"`
	RedactedFrames    int                     `json:"redacted_frames"`
	FallbackFrames    int                     `json:"fallback_frames"`
	Regions           int                     `json:"regions"`
	Sources           map[schedule.Source]int `json:"stand_in_sources"`
}

// VideoReport is the result of processing one video.
type VideoReport struct {
	ID              string              `json:"id"`
	Path            string              `json:"path,omitempty"`
	OutputPath      string              `json:"output_path,omitempty"`
	FPS             float64             `json:"fps"`
	Duration        float64             `json:"duration"`
	TotalFrames     int                 `json:"total_frames"`
	SampledFrames   int                 `json:"sampled_frames"`
	ReusedFrames    int                 `json:"reused_frames"`
	Conservative    bool                `json:"conservative"`
	Frames          []FrameRecord       `json:"frames"`
	Timestamps      []float64           `json:"timestamps"`
	Intervals       schedule.Intervals  `json:"intervals"`
	ConfirmedNudity bool                `json:"confirmed_nudity"`
	MaxLevel        severity.Level      `json:"max_level"`
	Statistics      temporal.Statistics `json:"statistics"`
	Redaction       *RedactionSummary   `json:"redaction,omitempty"`
	ElapsedSeconds  float64             `json:"elapsed_seconds"`
}

// ProcessVideo runs the two-pass video algorithm over src.
//
// Pass 1 analyzes every sampled frame in parallel, then feeds the verdicts
// through a fresh temporal aggregator in frame order and collects the
// timestamps of flagged frames. The timestamps become redaction intervals.
// Pass 2 writes every frame to sink; frames whose timestamp falls inside an
// interval are blurred using their own or a stand-in sample's observations,
// with the whole-frame fallback when nothing can be resolved. A nil sink
// skips pass 2.
//
// Cancelling ctx abandons the video; nothing is persisted except frames
// already handed to sink.
func (p *Pipeline) ProcessVideo(ctx context.Context, src video.Source, sink video.Sink) (*VideoReport, error) {
	start := time.Now()
	total := src.Len()
	fps := src.FPS()
	every := p.opts.Schedule.DetectEveryNFrames

	report := &VideoReport{
		ID:           uuid.NewString(),
		FPS:          fps,
		Duration:     video.Duration(src),
		TotalFrames:  total,
		Conservative: p.opts.Schedule.Conservative,
	}
	log := p.logger.WithField("video", report.ID)
	if total == 0 {
		return nil, fmt.Errorf("video has no frames")
	}

	ev := p.evaluator
	if p.opts.Schedule.Conservative {
		cfg := ev.Config()
		cfg.MinCorrelatedParts = 1
		ev = nudity.NewEvaluator(cfg)
	}

	var indices []int
	for i := 0; i < total; i++ {
		if schedule.ShouldDetect(i, total, every) {
			indices = append(indices, i)
		}
	}
	report.SampledFrames = len(indices)

	log.WithFields(logrus.Fields{
		"frames":       total,
		"sampled":      len(indices),
		"fps":          fps,
		"conservative": report.Conservative,
	}).Info("Pass 1: detecting")

	analyses, err := p.detectFrames(ctx, src, indices, ev)
	if err != nil {
		return nil, err
	}

	agg := temporal.New(p.opts.Temporal)
	samples := make(map[int]schedule.Sample, len(indices))
	for k, i := range indices {
		a := analyses[k]
		sensitive := anatomy.FilterSensitive(a.Observations)
		res := agg.Add(a.Verdict)

		flagged := a.IsNudity || a.Verdict.Level != severity.Safe ||
			(report.Conservative && len(sensitive) > 0)
		if flagged {
			report.Timestamps = append(report.Timestamps, a.Timestamp)
		}
		if res.ConfirmedNudity {
			report.ConfirmedNudity = true
		}
		report.MaxLevel = severity.Max(report.MaxLevel, a.Verdict.Level)
		if a.Frame != i {
			report.ReusedFrames++
		}

		samples[i] = schedule.Sample{
			Frame:        i,
			Timestamp:    video.Timestamp(i, fps),
			Observations: sensitive,
			Level:        a.Verdict.Level,
			IsNudity:     a.IsNudity,
		}
		report.Frames = append(report.Frames, FrameRecord{
			Frame:     i,
			Timestamp: video.Timestamp(i, fps),
			Reused:    a.Frame != i,
			Persons:   len(a.Persons),
			Parts:     len(a.Observations),
			Sensitive: len(sensitive),
			Verdict:   a.Verdict,
			Temporal:  res,
			Flagged:   flagged,
		})

		log.WithFields(logrus.Fields{
			"frame":      i,
			"level":      a.Verdict.Level.String(),
			"confidence": a.Verdict.Confidence,
			"temporal":   res.Level.String(),
			"trigger":    string(res.Trigger),
			"flagged":    flagged,
		}).Debug("Frame decided")
	}
	report.Statistics = agg.Statistics()

	report.Intervals = schedule.Build(report.Timestamps, report.Duration,
		p.opts.Schedule.MarginBefore, p.opts.Schedule.MarginAfter)

	log.WithFields(logrus.Fields{
		"flagged":   len(report.Timestamps),
		"intervals": len(report.Intervals),
		"covered":   report.Intervals.TotalDuration(),
	}).Info("Pass 1 complete")

	if sink != nil {
		interp := schedule.NewInterpolator(samples, total, every, p.opts.Schedule.SearchRadius)
		summary, err := p.redactFrames(ctx, src, sink, report.Intervals, interp)
		if err != nil {
			return nil, err
		}
		report.Redaction = summary
		log.WithFields(logrus.Fields{
			"redacted": summary.RedactedFrames,
			"fallback": summary.FallbackFrames,
		}).Info("Pass 2 complete")
	}

	report.ElapsedSeconds = time.Since(start).Seconds()
	return report, nil
}

// detectFrames analyzes the frames at indices in parallel. When dedup is on,
// a frame that hashes close to the last analyzed frame shares its analysis;
// the shared analysis keeps the original Frame number.
func (p *Pipeline) detectFrames(ctx context.Context, src video.Source, indices []int, ev *nudity.Evaluator) ([]*FrameAnalysis, error) {
	reuse, err := p.dedupPlan(ctx, src, indices)
	if err != nil {
		return nil, err
	}

	fps := src.FPS()
	analyses := make([]*FrameAnalysis, len(indices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for k, i := range indices {
		if reuse[k] >= 0 {
			continue
		}
		g.Go(func() error {
			img, err := src.Frame(i)
			if err != nil {
				return err
			}
			a, err := p.analyze(gctx, detection.Frame{Index: i, Timestamp: video.Timestamp(i, fps), Image: img}, ev)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			analyses[k] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for k, i := range indices {
		if r := reuse[k]; r >= 0 {
			shared := *analyses[r]
			shared.Timestamp = video.Timestamp(i, fps)
			analyses[k] = &shared
		}
	}
	return analyses, nil
}

// dedupPlan returns, for each sampled frame, the index into indices of the
// analysis it should reuse, or -1 to analyze it.
func (p *Pipeline) dedupPlan(ctx context.Context, src video.Source, indices []int) ([]int, error) {
	reuse := make([]int, len(indices))
	for k := range reuse {
		reuse[k] = -1
	}
	if p.opts.DedupDistance <= 0 || len(indices) < 2 {
		return reuse, nil
	}

	hashes := make([]*goimagehash.ImageHash, len(indices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for k, i := range indices {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := src.Frame(i)
			if err != nil {
				return err
			}
			hashes[k] = frameHash(img)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	anchor := 0
	for k := 1; k < len(indices); k++ {
		if hashes[k] != nil && hashes[anchor] != nil {
			if d, err := hashes[k].Distance(hashes[anchor]); err == nil && d <= p.opts.DedupDistance {
				reuse[k] = anchor
				continue
			}
		}
		anchor = k
	}
	return reuse, nil
}

// frameHash returns the dHash of img, or nil when it cannot be hashed.
func frameHash(img image.Image) *goimagehash.ImageHash {
	h, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return nil
	}
	return h
}

type framePlan struct {
	index  int
	redact bool
	obs    []anatomy.Observation
}

type frameOutcome struct {
	report redact.Report
	redact bool
}

// redactFrames is pass 2. Stand-ins are resolved in frame order because the
// interpolator carries state; reading, blurring and writing run in parallel
// one batch at a time.
func (p *Pipeline) redactFrames(ctx context.Context, src video.Source, sink video.Sink, intervals schedule.Intervals, interp *schedule.Interpolator) (*RedactionSummary, error) {
	total := src.Len()
	fps := src.FPS()
	batch := p.opts.Workers * 4
	summary := &RedactionSummary{Sources: make(map[schedule.Source]int)}

	for start := 0; start < total; start += batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(total, start+batch)

		plans := make([]framePlan, end-start)
		for i := start; i < end; i++ {
			plan := framePlan{index: i}
			if intervals.Contains(video.Timestamp(i, fps)) {
				s, source := interp.StandIn(i)
				plan.redact = true
				plan.obs = s.Observations
				summary.FramesInIntervals++
				summary.Sources[source]++
			}
			plans[i-start] = plan
		}

		outcomes := make([]frameOutcome, len(plans))
		var g errgroup.Group
		g.SetLimit(p.opts.Workers)
		for k, plan := range plans {
			g.Go(func() error {
				img, err := src.Frame(plan.index)
				if err != nil {
					return err
				}
				var out image.Image = img
				if plan.redact {
					redacted, rep := p.redactor.Redact(img, plan.obs, true)
					out = redacted
					outcomes[k] = frameOutcome{report: rep, redact: true}
				}
				return sink.WriteFrame(plan.index, out)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for _, o := range outcomes {
			if !o.redact {
				continue
			}
			if o.report.Applied() {
				summary.RedactedFrames++
			}
			if o.report.Fallback {
				summary.FallbackFrames++
			}
			summary.Regions += len(o.report.Regions)
		}
	}

	if err := sink.Close(ctx); err != nil {
		return nil, fmt.Errorf("failed to finish output: %w", err)
	}
	return summary, nil
}
