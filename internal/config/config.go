// Package config loads runtime settings from an optional .env file and
// CONTENT_GUARD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CONTENT_GUARD_"

// Config is the complete runtime configuration.
type Config struct {
	Analyzer AnalyzerConfig
	Temporal TemporalConfig
	Schedule ScheduleConfig
	Redact   RedactConfig
	Person   PersonConfig
	Video    VideoConfig
	Detector DetectorConfig
	Log      LogConfig
}

type AnalyzerConfig struct {
	BaseThreshold            float64 `validate:"gt=0,lte=1"`
	SpatialGroupingThreshold float64 `validate:"gt=0,lte=1"`
	MinCorrelatedParts       int     `validate:"gte=1"`
}

type TemporalConfig struct {
	MinConsecutiveFrames int     `validate:"gte=1"`
	MinAccumulatedScore  float64 `validate:"gt=0"`
	WindowSize           int     `validate:"gte=1,lte=4096"`
	WindowNSFWRatio      float64 `validate:"gt=0,lte=1"`
}

type ScheduleConfig struct {
	MarginBefore       float64 `validate:"gte=0"`
	MarginAfter        float64 `validate:"gte=0"`
	DetectEveryNFrames int     `validate:"gte=1"`
	SearchRadius       int     `validate:"gte=0"`
	Conservative       bool
}

type RedactConfig struct {
	Intensity     int     `validate:"gte=1,lte=255"`
	MarginPct     float64 `validate:"gt=0,lte=500"`
	MinMarginPx   int     `validate:"gte=1"`
	FallbackSigma float64 `validate:"gt=0"`
}

type PersonConfig struct {
	MinConfidence     float64 `validate:"gte=0,lte=1"`
	ExpandRatio       float64 `validate:"gte=0,lte=1"`
	ExpandBottomRatio float64 `validate:"gte=0,lte=1"`
	ExpandMinPx       int     `validate:"gte=0"`
}

type VideoConfig struct {
	FFmpegPath    string `validate:"required"`
	FFprobePath   string `validate:"required"`
	Workers       int    `validate:"gte=1"`
	DedupDistance int    `validate:"gte=0,lte=64"`
	CRF           int    `validate:"gte=0,lte=51"`
	TempDir       string
}

type DetectorConfig struct {
	PersonCommand string
	RegionCommand string
	LabelFile     string
	Timeout       time.Duration `validate:"gt=0"`
}

type LogConfig struct {
	Level      string `validate:"oneof=trace debug info warn warning error"`
	MaxSizeMB  int    `validate:"gte=1"`
	MaxBackups int    `validate:"gte=0"`
	File       string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{
			BaseThreshold:            0.3,
			SpatialGroupingThreshold: 0.3,
			MinCorrelatedParts:       2,
		},
		Temporal: TemporalConfig{
			MinConsecutiveFrames: 3,
			MinAccumulatedScore:  2.0,
			WindowSize:           10,
			WindowNSFWRatio:      0.6,
		},
		Schedule: ScheduleConfig{
			MarginBefore:       2.0,
			MarginAfter:        1.0,
			DetectEveryNFrames: 1,
			SearchRadius:       20,
			Conservative:       true,
		},
		Redact: RedactConfig{
			Intensity:     75,
			MarginPct:     40,
			MinMarginPx:   30,
			FallbackSigma: 8,
		},
		Person: PersonConfig{
			MinConfidence:     0.25,
			ExpandRatio:       0.12,
			ExpandBottomRatio: 0.25,
			ExpandMinPx:       10,
		},
		Video: VideoConfig{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
			Workers:     max(1, runtime.NumCPU()),
			CRF:         23,
		},
		Detector: DetectorConfig{
			Timeout: 60 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
		},
	}
}

// Load builds a Config from defaults, the given .env files and the process
// environment, in that order of increasing precedence.
//
// With no files, a .env in the working directory is loaded if present. Named
// files must exist.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := Default()
	var errs []error
	e := &envReader{errs: &errs}

	e.getFloat("BASE_THRESHOLD", &cfg.Analyzer.BaseThreshold)
	e.getFloat("SPATIAL_GROUPING_THRESHOLD", &cfg.Analyzer.SpatialGroupingThreshold)
	e.getInt("MIN_CORRELATED_PARTS", &cfg.Analyzer.MinCorrelatedParts)

	e.getInt("MIN_CONSECUTIVE_FRAMES", &cfg.Temporal.MinConsecutiveFrames)
	e.getFloat("MIN_ACCUMULATED_SCORE", &cfg.Temporal.MinAccumulatedScore)
	e.getInt("WINDOW_SIZE", &cfg.Temporal.WindowSize)
	e.getFloat("WINDOW_NSFW_RATIO", &cfg.Temporal.WindowNSFWRatio)

	e.getFloat("MARGIN_BEFORE", &cfg.Schedule.MarginBefore)
	e.getFloat("MARGIN_AFTER", &cfg.Schedule.MarginAfter)
	e.getInt("DETECT_EVERY_N_FRAMES", &cfg.Schedule.DetectEveryNFrames)
	e.getInt("SEARCH_RADIUS", &cfg.Schedule.SearchRadius)
	e.getBool("CONSERVATIVE", &cfg.Schedule.Conservative)

	e.getInt("BLUR_INTENSITY", &cfg.Redact.Intensity)
	e.getFloat("BLUR_MARGIN_PCT", &cfg.Redact.MarginPct)
	e.getInt("BLUR_MIN_MARGIN_PX", &cfg.Redact.MinMarginPx)
	e.getFloat("FALLBACK_SIGMA", &cfg.Redact.FallbackSigma)

	e.getFloat("PERSON_MIN_CONFIDENCE", &cfg.Person.MinConfidence)
	e.getFloat("PERSON_EXPAND_RATIO", &cfg.Person.ExpandRatio)
	e.getFloat("PERSON_EXPAND_BOTTOM_RATIO", &cfg.Person.ExpandBottomRatio)
	e.getInt("PERSON_EXPAND_MIN_PX", &cfg.Person.ExpandMinPx)

	e.getString("FFMPEG_PATH", &cfg.Video.FFmpegPath)
	e.getString("FFPROBE_PATH", &cfg.Video.FFprobePath)
	e.getInt("WORKERS", &cfg.Video.Workers)
	e.getInt("DEDUP_DISTANCE", &cfg.Video.DedupDistance)
	e.getString("TEMP_DIR", &cfg.Video.TempDir)
	e.getInt("VIDEO_CRF", &cfg.Video.CRF)

	e.getString("PERSON_COMMAND", &cfg.Detector.PersonCommand)
	e.getString("REGION_COMMAND", &cfg.Detector.RegionCommand)
	e.getString("LABEL_FILE", &cfg.Detector.LabelFile)
	e.getDuration("DETECTOR_TIMEOUT", &cfg.Detector.Timeout)

	e.getString("LOG_LEVEL", &cfg.Log.Level)
	e.getString("LOG_FILE", &cfg.Log.File)
	e.getInt("LOG_MAX_SIZE_MB", &cfg.Log.MaxSizeMB)
	e.getInt("LOG_MAX_BACKUPS", &cfg.Log.MaxBackups)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks every field against its range constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// envReader overlays environment variables onto config fields, collecting
// parse errors rather than stopping at the first one.
type envReader struct {
	errs *[]error
}

func (e *envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) fail(key string, err error) {
	*e.errs = append(*e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
}

func (e *envReader) getString(key string, dst *string) {
	if v, ok := e.lookup(key); ok {
		*dst = v
	}
}

func (e *envReader) getInt(key string, dst *int) {
	if v, ok := e.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) getFloat(key string, dst *float64) {
	if v, ok := e.lookup(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) getBool(key string, dst *bool) {
	if v, ok := e.lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) getDuration(key string, dst *time.Duration) {
	if v, ok := e.lookup(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = d
	}
}
