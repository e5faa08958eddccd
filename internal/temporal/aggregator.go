// Package temporal smooths per-frame severity verdicts across a video so that
// a single noisy frame neither confirms nor clears nudity.
//
// An Aggregator is created per video and fed verdicts strictly in timestamp
// order. It is not safe for concurrent use; the video pipeline serializes all
// calls through one goroutine.
package temporal

import (
	"fmt"
	"math"

	"github.com/bmharper/ringbuffer"

	"github.com/ironsheep/content-guard-mcp/internal/severity"
)

// Defaults for Config.
const (
	DefaultMinConsecutiveFrames = 3
	DefaultMinAccumulatedScore  = 2.0
	DefaultWindowSize           = 10
	DefaultWindowNSFWRatio      = 0.6
)

const (
	safeDecay       = 0.1
	suggestiveDecay = 0.05
)

// Config holds the confirmation thresholds.
type Config struct {
	MinConsecutiveFrames int
	MinAccumulatedScore  float64
	WindowSize           int
	WindowNSFWRatio      float64
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		MinConsecutiveFrames: DefaultMinConsecutiveFrames,
		MinAccumulatedScore:  DefaultMinAccumulatedScore,
		WindowSize:           DefaultWindowSize,
		WindowNSFWRatio:      DefaultWindowNSFWRatio,
	}
}

// Trigger names the condition that confirmed nudity.
type Trigger string

const (
	TriggerNone        Trigger = ""
	TriggerConsecutive Trigger = "consecutive"
	TriggerAccumulated Trigger = "accumulated"
	TriggerWindow      Trigger = "window"
)

// ReasonNotConfirmed is the reason reported when no trigger fired.
const ReasonNotConfirmed = "nudity not temporally confirmed"

// Result is the aggregator output for one frame.
type Result struct {
	ConfirmedNudity  bool             `json:"confirmed_nudity"`
	Level            severity.Level   `json:"level"`
	Confidence       float64          `json:"confidence"`
	ConsecutiveNSFW  int              `json:"consecutive_frames"`
	AccumulatedScore float64          `json:"accumulated_score"`
	Trigger          Trigger          `json:"trigger,omitempty"`
	Reason           string           `json:"reason"`
	Frame            severity.Verdict `json:"frame_verdict"`
}

// Statistics are cumulative counts over every frame since the last reset.
type Statistics struct {
	TotalFrames      int     `json:"total_frames"`
	NSFWFrames       int     `json:"nsfw_frames"`
	SuggestiveFrames int     `json:"suggestive_frames"`
	SafeFrames       int     `json:"safe_frames"`
	NSFWRatio        float64 `json:"nsfw_ratio"`
	ConsecutiveNSFW  int     `json:"consecutive_nsfw"`
	AccumulatedScore float64 `json:"accumulated_score"`
}

// Aggregator is the per-video temporal state.
type Aggregator struct {
	cfg         Config
	window      ringbuffer.RingP[severity.Level]
	consecutive int
	accumulated float64

	total      int
	nsfw       int
	suggestive int
	safe       int
}

// New creates an aggregator. Zero fields in cfg take their defaults.
func New(cfg Config) *Aggregator {
	if cfg.MinConsecutiveFrames <= 0 {
		cfg.MinConsecutiveFrames = DefaultMinConsecutiveFrames
	}
	if cfg.MinAccumulatedScore <= 0 {
		cfg.MinAccumulatedScore = DefaultMinAccumulatedScore
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.WindowNSFWRatio <= 0 {
		cfg.WindowNSFWRatio = DefaultWindowNSFWRatio
	}
	a := &Aggregator{cfg: cfg}
	a.Reset()
	return a
}

// ringSize returns the RingP size that holds at least n items. RingP keeps
// one slot free, so the size must exceed n.
func ringSize(n int) int {
	return nextPowerOf2(n + 1)
}

func nextPowerOf2(n int) int {
	return 1 << int(math.Ceil(math.Log2(float64(n))))
}

// Config returns the effective configuration.
func (a *Aggregator) Config() Config {
	return a.cfg
}

// Reset discards all state so the aggregator can be reused for another video.
func (a *Aggregator) Reset() {
	a.window = ringbuffer.NewRingP[severity.Level](ringSize(a.cfg.WindowSize))
	a.consecutive = 0
	a.accumulated = 0
	a.total = 0
	a.nsfw = 0
	a.suggestive = 0
	a.safe = 0
}

// Add feeds the verdict of the next frame and returns the smoothed result.
//
// NSFW frames extend the consecutive run and add their confidence to the
// accumulated score. SAFE frames break the run and decay the score by 0.1;
// SUGGESTIVE frames leave the run alone and decay the score by 0.05. The
// score never drops below zero.
//
// Nudity is confirmed when the run reaches MinConsecutiveFrames, or the score
// reaches MinAccumulatedScore, or the window is full and its NSFW share is at
// least WindowNSFWRatio. A confirmed frame is NSFW; otherwise a SUGGESTIVE
// frame stays SUGGESTIVE and everything else is SAFE.
//
// Verdicts must be added in timestamp order.
func (a *Aggregator) Add(v severity.Verdict) Result {
	a.total++
	switch v.Level {
	case severity.NSFW:
		a.nsfw++
		a.consecutive++
		a.accumulated += v.Confidence
	case severity.Safe:
		a.safe++
		a.consecutive = 0
		a.accumulated = max(0, a.accumulated-safeDecay)
	default:
		a.suggestive++
		a.accumulated = max(0, a.accumulated-suggestiveDecay)
	}
	a.window.Add(v.Level)

	res := Result{
		Confidence:       v.Confidence,
		ConsecutiveNSFW:  a.consecutive,
		AccumulatedScore: a.accumulated,
		Frame:            v,
	}

	switch {
	case a.consecutive >= a.cfg.MinConsecutiveFrames:
		res.Trigger = TriggerConsecutive
		res.Reason = fmt.Sprintf("nudity confirmed: %d consecutive NSFW frames", a.consecutive)
	case a.accumulated >= a.cfg.MinAccumulatedScore:
		res.Trigger = TriggerAccumulated
		res.Reason = fmt.Sprintf("nudity confirmed: accumulated score %.2f >= %.2f", a.accumulated, a.cfg.MinAccumulatedScore)
	default:
		if ratio, full := a.WindowRatio(); full && ratio >= a.cfg.WindowNSFWRatio {
			res.Trigger = TriggerWindow
			res.Reason = fmt.Sprintf("nudity confirmed: %.1f%% of window frames are NSFW", ratio*100)
		}
	}

	res.ConfirmedNudity = res.Trigger != TriggerNone
	switch {
	case res.ConfirmedNudity:
		res.Level = severity.NSFW
	case v.Level == severity.Suggestive:
		res.Level = severity.Suggestive
	default:
		res.Level = severity.Safe
	}
	if !res.ConfirmedNudity {
		res.Reason = ReasonNotConfirmed
	}
	return res
}

// WindowRatio returns the share of NSFW verdicts among the most recent
// WindowSize frames, and whether that many frames have been seen.
func (a *Aggregator) WindowRatio() (float64, bool) {
	n := min(a.window.Len(), a.cfg.WindowSize)
	if n == 0 {
		return 0, false
	}
	nsfw := 0
	last := a.window.Len() - 1
	for i := 0; i < n; i++ {
		if a.window.Peek(last-i) == severity.NSFW {
			nsfw++
		}
	}
	return float64(nsfw) / float64(n), a.total >= a.cfg.WindowSize
}

// Statistics returns cumulative counts since the last Reset.
func (a *Aggregator) Statistics() Statistics {
	s := Statistics{
		TotalFrames:      a.total,
		NSFWFrames:       a.nsfw,
		SuggestiveFrames: a.suggestive,
		SafeFrames:       a.safe,
		ConsecutiveNSFW:  a.consecutive,
		AccumulatedScore: a.accumulated,
	}
	if a.total > 0 {
		s.NSFWRatio = float64(a.nsfw) / float64(a.total)
	}
	return s
}
