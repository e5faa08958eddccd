package moderation

import (
	"runtime"

	"github.com/ironsheep/content-guard-mcp/internal/config"
	"github.com/ironsheep/content-guard-mcp/internal/imaging"
	"github.com/ironsheep/content-guard-mcp/internal/nudity"
	"github.com/ironsheep/content-guard-mcp/internal/redact"
	"github.com/ironsheep/content-guard-mcp/internal/schedule"
	"github.com/ironsheep/content-guard-mcp/internal/temporal"
)

// ScheduleOptions controls video sampling and redaction intervals.
type ScheduleOptions struct {
	MarginBefore       float64
	MarginAfter        float64
	DetectEveryNFrames int
	SearchRadius       int

	// Conservative lowers the correlated-part requirement to one and
	// schedules redaction around any frame with a sensitive part, even one
	// whose verdict is SAFE.
	Conservative bool
}

// PersonOptions controls person filtering and ROI expansion.
type PersonOptions struct {
	MinConfidence float64
	Expansion     imaging.Expansion
}

// Options configures a Pipeline.
type Options struct {
	Analyzer nudity.Config
	Temporal temporal.Config
	Schedule ScheduleOptions
	Redact   redact.Config
	Person   PersonOptions

	// Workers bounds parallel detection and redaction in video passes.
	Workers int

	// DedupDistance, when positive, lets a sampled video frame reuse the
	// previous analysis if their dHash distance is at most this value.
	DedupDistance int
}

// DefaultOptions returns the stock pipeline settings.
func DefaultOptions() Options {
	return Options{
		Analyzer: nudity.DefaultConfig(),
		Temporal: temporal.DefaultConfig(),
		Schedule: ScheduleOptions{
			MarginBefore:       schedule.DefaultMarginBefore,
			MarginAfter:        schedule.DefaultMarginAfter,
			DetectEveryNFrames: 1,
			SearchRadius:       schedule.DefaultSearchRadius,
			Conservative:       true,
		},
		Redact: redact.DefaultConfig(),
		Person: PersonOptions{
			MinConfidence: 0.25,
			Expansion:     imaging.DefaultExpansion(),
		},
		Workers: max(1, runtime.NumCPU()),
	}
}

// OptionsFromConfig maps loaded configuration onto pipeline options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Analyzer: nudity.Config{
			BaseThreshold:            cfg.Analyzer.BaseThreshold,
			SpatialGroupingThreshold: cfg.Analyzer.SpatialGroupingThreshold,
			MinCorrelatedParts:       cfg.Analyzer.MinCorrelatedParts,
		},
		Temporal: temporal.Config{
			MinConsecutiveFrames: cfg.Temporal.MinConsecutiveFrames,
			MinAccumulatedScore:  cfg.Temporal.MinAccumulatedScore,
			WindowSize:           cfg.Temporal.WindowSize,
			WindowNSFWRatio:      cfg.Temporal.WindowNSFWRatio,
		},
		Schedule: ScheduleOptions{
			MarginBefore:       cfg.Schedule.MarginBefore,
			MarginAfter:        cfg.Schedule.MarginAfter,
			DetectEveryNFrames: cfg.Schedule.DetectEveryNFrames,
			SearchRadius:       cfg.Schedule.SearchRadius,
			Conservative:       cfg.Schedule.Conservative,
		},
		Redact: redact.Config{
			Intensity:     cfg.Redact.Intensity,
			MarginPct:     cfg.Redact.MarginPct,
			MinMarginPx:   cfg.Redact.MinMarginPx,
			FallbackSigma: cfg.Redact.FallbackSigma,
		},
		Person: PersonOptions{
			MinConfidence: cfg.Person.MinConfidence,
			Expansion: imaging.Expansion{
				Ratio:       cfg.Person.ExpandRatio,
				BottomRatio: cfg.Person.ExpandBottomRatio,
				MinPx:       cfg.Person.ExpandMinPx,
			},
		},
		Workers:       cfg.Video.Workers,
		DedupDistance: cfg.Video.DedupDistance,
	}
}
