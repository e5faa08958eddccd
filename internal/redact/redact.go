package redact

import (
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
)

// Config controls redaction geometry and strength. Zero or negative fields
// select the defaults, so every region keeps a margin of at least one pixel.
type Config struct {
	Intensity     int
	MarginPct     float64
	MinMarginPx   int
	FallbackSigma float64
}

// DefaultConfig returns the stock redaction settings.
func DefaultConfig() Config {
	return Config{
		Intensity:     DefaultIntensity,
		MarginPct:     DefaultMarginPct,
		MinMarginPx:   DefaultMinMarginPx,
		FallbackSigma: DefaultFallbackSigma,
	}
}

// RegionReport describes one blurred region.
type RegionReport struct {
	Type    anatomy.Type `json:"type"`
	Label   string       `json:"label"`
	Box     anatomy.Box  `json:"box"`
	Region  anatomy.Box  `json:"region"`
	Kernels []int        `json:"kernels"`
	DeltaE  float64      `json:"mean_delta_e"`
}

// Report summarizes the redaction of one frame.
type Report struct {
	Regions  []RegionReport `json:"regions"`
	Skipped  int            `json:"skipped"`
	Ignored  int            `json:"ignored"`
	Fallback bool           `json:"fallback"`
	DeltaE   float64        `json:"mean_delta_e"`
}

// Applied reports whether any pixels were changed.
func (r Report) Applied() bool {
	return len(r.Regions) > 0 || r.Fallback
}

// Redactor blurs sensitive regions of frames. It is safe for concurrent use.
type Redactor struct {
	cfg Config
	log *logrus.Entry
}

// New creates a redactor. Zero fields in cfg take their defaults.
func New(cfg Config, log *logrus.Entry) *Redactor {
	if cfg.Intensity <= 0 {
		cfg.Intensity = DefaultIntensity
	}
	if cfg.MarginPct <= 0 {
		cfg.MarginPct = DefaultMarginPct
	}
	if cfg.MinMarginPx <= 0 {
		cfg.MinMarginPx = DefaultMinMarginPx
	}
	if cfg.FallbackSigma <= 0 {
		cfg.FallbackSigma = DefaultFallbackSigma
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Redactor{cfg: cfg, log: log.WithField("component", "redact")}
}

// Config returns the effective configuration.
func (r *Redactor) Config() Config {
	return r.cfg
}

// Redact returns a copy of img with every sensitive observation blurred.
//
// Observations of non-sensitive types are ignored. An observation whose
// region cannot be computed is skipped. When required is true and no region
// was blurred, the whole frame is blurred with FallbackSigma instead.
// When required is false and nothing is blurred, the copy equals img.
func (r *Redactor) Redact(img image.Image, obs []anatomy.Observation, required bool) (*image.NRGBA, Report) {
	out := imaging.Clone(img)
	bounds := out.Bounds()
	var rep Report

	for _, o := range obs {
		if !o.Type.Sensitive() {
			rep.Ignored++
			continue
		}
		rect, ok := Region(o, obs, bounds, r.cfg.MarginPct, r.cfg.MinMarginPx)
		if !ok {
			rep.Skipped++
			r.log.WithFields(logrus.Fields{"label": o.RawLabel, "box": o.Box}).Debug("Skipping unresolvable redaction region")
			continue
		}

		kernels := KernelSchedule(r.cfg.Intensity, rect.Dx(), rect.Dy())
		before := imaging.Crop(out, rect)
		var blurred image.Image = before
		for _, k := range kernels {
			blurred = blur.Gaussian(blurred, KernelRadius(k))
		}
		draw.Draw(out, rect, blurred, blurred.Bounds().Min, draw.Src)

		rep.Regions = append(rep.Regions, RegionReport{
			Type:    o.Type,
			Label:   o.RawLabel,
			Box:     o.Box,
			Region:  anatomy.Box{X1: rect.Min.X, Y1: rect.Min.Y, X2: rect.Max.X, Y2: rect.Max.Y},
			Kernels: kernels,
			DeltaE:  MeanDeltaE(before, blurred),
		})
	}

	if len(rep.Regions) == 0 && required {
		blurredFrame := imaging.Blur(img, r.cfg.FallbackSigma)
		rep.Fallback = true
		rep.DeltaE = MeanDeltaE(img, blurredFrame)
		r.log.WithFields(logrus.Fields{
			"observations": len(obs),
			"skipped":      rep.Skipped,
			"sigma":        r.cfg.FallbackSigma,
		}).Warn("No redaction region resolved, blurring whole frame")
		return blurredFrame, rep
	}

	if n := len(rep.Regions); n > 0 {
		sum := 0.0
		for _, reg := range rep.Regions {
			sum += reg.DeltaE
		}
		rep.DeltaE = sum / float64(n)
	}
	return out, rep
}
