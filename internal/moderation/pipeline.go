// Package moderation runs images and videos through person location, region
// classification, nudity evaluation, severity classification and redaction.
//
// A Pipeline is built once from its two detectors and reused. Image calls are
// independent and safe to run concurrently. Video calls create their own
// temporal state, so concurrent videos do not interfere.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
	"github.com/ironsheep/content-guard-mcp/internal/detection"
	"github.com/ironsheep/content-guard-mcp/internal/imaging"
	"github.com/ironsheep/content-guard-mcp/internal/nudity"
	"github.com/ironsheep/content-guard-mcp/internal/redact"
	"github.com/ironsheep/content-guard-mcp/internal/severity"
)

var (
	ErrNoPersonLocator  = errors.New("no person locator configured")
	ErrNoRegionDetector = errors.New("no region detector configured")
)

// Pipeline holds the detectors and the analysis stages built from Options.
type Pipeline struct {
	persons   detection.PersonLocator
	regions   detection.RegionDetector
	opts      Options
	adapter   *anatomy.Adapter
	evaluator *nudity.Evaluator
	redactor  *redact.Redactor
	logger    *logrus.Entry
}

// New builds a pipeline. Both detectors are required.
func New(persons detection.PersonLocator, regions detection.RegionDetector, opts Options, logger *logrus.Entry) (*Pipeline, error) {
	if persons == nil {
		return nil, ErrNoPersonLocator
	}
	if regions == nil {
		return nil, ErrNoRegionDetector
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Schedule.DetectEveryNFrames < 1 {
		opts.Schedule.DetectEveryNFrames = 1
	}

	evaluator := nudity.NewEvaluator(opts.Analyzer)
	opts.Analyzer = evaluator.Config()

	return &Pipeline{
		persons:   persons,
		regions:   regions,
		opts:      opts,
		adapter:   anatomy.NewAdapter(opts.Analyzer.BaseThreshold),
		evaluator: evaluator,
		redactor:  redact.New(opts.Redact, logger),
		logger:    logger.WithField("component", "pipeline"),
	}, nil
}

// Options returns the effective options.
func (p *Pipeline) Options() Options {
	return p.opts
}

// WithDetectEveryNFrames returns a copy of p that samples every n-th video
// frame. Values below 1 mean every frame.
func (p *Pipeline) WithDetectEveryNFrames(n int) *Pipeline {
	cp := *p
	cp.opts.Schedule.DetectEveryNFrames = max(1, n)
	return &cp
}

// FrameAnalysis is the outcome of analyzing one frame.
type FrameAnalysis struct {
	Frame        int                   `json:"frame"`
	Timestamp    float64               `json:"timestamp"`
	Persons      []detection.Person    `json:"persons"`
	ROIs         []anatomy.Box         `json:"rois,omitempty"`
	Observations []anatomy.Observation `json:"observations"`
	Dropped      int                   `json:"dropped"`
	IsNudity     bool                  `json:"is_nudity"`
	Rule         nudity.Rule           `json:"rule"`
	Verdict      severity.Verdict      `json:"verdict"`

	evaluation nudity.Evaluation
}

// Evaluation returns the evaluator output behind the verdict.
func (a *FrameAnalysis) Evaluation() nudity.Evaluation {
	return a.evaluation
}

// AnalyzeFrame locates people in f, classifies regions inside each person's
// expanded ROI and grades the result.
//
// A frame with no person above the confidence floor is SAFE and the region
// detector is not called. Malformed region detections are dropped and
// counted. Detector failures are returned as errors.
func (p *Pipeline) AnalyzeFrame(ctx context.Context, f detection.Frame) (*FrameAnalysis, error) {
	return p.analyze(ctx, f, p.evaluator)
}

func (p *Pipeline) analyze(ctx context.Context, f detection.Frame, ev *nudity.Evaluator) (*FrameAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Image == nil {
		return nil, errors.New("frame has no image")
	}
	bounds := f.Image.Bounds()

	located, err := p.persons.LocatePersons(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("person locator: %w", err)
	}

	a := &FrameAnalysis{Frame: f.Index, Timestamp: f.Timestamp}
	a.Persons = p.keepPersons(located)

	if len(a.Persons) == 0 {
		a.evaluation = ev.Evaluate(nil, bounds.Dx(), bounds.Dy())
		a.Verdict = severity.SafeVerdict(severity.ReasonNoPerson)
		p.logFrame(a)
		return a, nil
	}

	for _, person := range a.Persons {
		roi := imaging.ExpandPersonBox(person.Box, bounds, p.opts.Person.Expansion)
		if !roi.Valid() {
			continue
		}
		crop, err := imaging.CropROI(f.Image, roi.Rect())
		if err != nil {
			p.logger.WithError(err).WithField("frame", f.Index).Debug("Skipping person ROI")
			continue
		}
		a.ROIs = append(a.ROIs, roi)

		dets, err := p.regions.DetectRegions(ctx, f, roi.Rect(), crop)
		if err != nil {
			return nil, fmt.Errorf("region detector: %w", err)
		}
		obs, dropped := p.adapter.AdaptAll(dets, roi.X1, roi.Y1)
		a.Observations = append(a.Observations, obs...)
		a.Dropped += dropped
	}

	p.grade(a, ev, bounds.Dx(), bounds.Dy())
	p.logFrame(a)
	return a, nil
}

func (p *Pipeline) keepPersons(located []detection.Person) []detection.Person {
	var kept []detection.Person
	for _, person := range located {
		if person.Confidence >= p.opts.Person.MinConfidence && person.Box.Valid() {
			kept = append(kept, person)
		}
	}
	return kept
}

func (p *Pipeline) grade(a *FrameAnalysis, ev *nudity.Evaluator, width, height int) {
	a.evaluation = ev.Evaluate(a.Observations, width, height)
	a.IsNudity = a.evaluation.IsNudity
	a.Rule = a.evaluation.Rule
	a.Verdict = severity.Classify(a.evaluation)
}

func (p *Pipeline) logFrame(a *FrameAnalysis) {
	p.logger.WithFields(logrus.Fields{
		"frame":      a.Frame,
		"persons":    len(a.Persons),
		"parts":      len(a.Observations),
		"dropped":    a.Dropped,
		"rule":       a.Rule.String(),
		"level":      a.Verdict.Level.String(),
		"confidence": a.Verdict.Confidence,
	}).Debug("Frame analyzed")
}

// EvaluateDetections grades raw region detections without running any
// detector. Detections are translated by (offsetX, offsetY) and evaluated
// against a frame of width x height.
func (p *Pipeline) EvaluateDetections(dets []anatomy.Detection, offsetX, offsetY, width, height int) *FrameAnalysis {
	a := &FrameAnalysis{}
	a.Observations, a.Dropped = p.adapter.AdaptAll(dets, offsetX, offsetY)
	p.grade(a, p.evaluator, width, height)
	p.logFrame(a)
	return a
}

// EvaluateWithPersons is EvaluateDetections gated on person detections. When
// no person passes the confidence floor the frame is SAFE and dets are not
// evaluated.
func (p *Pipeline) EvaluateWithPersons(persons []detection.Person, dets []anatomy.Detection, offsetX, offsetY, width, height int) *FrameAnalysis {
	kept := p.keepPersons(persons)
	if len(kept) == 0 {
		a := &FrameAnalysis{Verdict: severity.SafeVerdict(severity.ReasonNoPerson)}
		a.evaluation = p.evaluator.Evaluate(nil, width, height)
		p.logFrame(a)
		return a
	}
	a := p.EvaluateDetections(dets, offsetX, offsetY, width, height)
	a.Persons = kept
	return a
}

// ImageReport is the result of moderating one image.
type ImageReport struct {
	ID           string                `json:"id"`
	Path         string                `json:"path,omitempty"`
	Width        int                   `json:"width"`
	Height       int                   `json:"height"`
	Persons      []detection.Person    `json:"persons"`
	Observations []anatomy.Observation `json:"observations"`
	Dropped      int                   `json:"dropped"`
	IsNudity     bool                  `json:"is_nudity"`
	Rule         nudity.Rule           `json:"rule"`
	Verdict      severity.Verdict      `json:"verdict"`
	Description  severity.Description  `json:"description"`
	Redaction    *redact.Report        `json:"redaction,omitempty"`
	OutputPath   string                `json:"output_path,omitempty"`
}

func newImageReport(img image.Image, a *FrameAnalysis) *ImageReport {
	b := img.Bounds()
	return &ImageReport{
		ID:           uuid.NewString(),
		Width:        b.Dx(),
		Height:       b.Dy(),
		Persons:      a.Persons,
		Observations: a.Observations,
		Dropped:      a.Dropped,
		IsNudity:     a.IsNudity,
		Rule:         a.Rule,
		Verdict:      a.Verdict,
		Description:  severity.Describe(a.Verdict, a.Observations),
	}
}

// ModerateImage analyzes a still image.
func (p *Pipeline) ModerateImage(ctx context.Context, img image.Image) (*ImageReport, error) {
	a, err := p.AnalyzeFrame(ctx, detection.Frame{Image: img})
	if err != nil {
		return nil, err
	}
	return newImageReport(img, a), nil
}

// RedactImage analyzes a still image and blurs its sensitive regions when the
// verdict is not SAFE. A SAFE image is returned as an unmodified copy.
//
// overrides, when non-nil, replaces the pipeline's redaction settings for
// this call only.
func (p *Pipeline) RedactImage(ctx context.Context, img image.Image, overrides *redact.Config) (*image.NRGBA, *ImageReport, error) {
	a, err := p.AnalyzeFrame(ctx, detection.Frame{Image: img})
	if err != nil {
		return nil, nil, err
	}
	report := newImageReport(img, a)

	redactor := p.redactor
	if overrides != nil {
		redactor = redact.New(*overrides, p.logger)
	}

	required := a.Verdict.Level != severity.Safe
	var obs []anatomy.Observation
	if required {
		obs = anatomy.FilterSensitive(a.Observations)
	}
	out, rep := redactor.Redact(img, obs, required)
	report.Redaction = &rep

	p.logger.WithFields(logrus.Fields{
		"id":       report.ID,
		"level":    a.Verdict.Level.String(),
		"regions":  len(rep.Regions),
		"fallback": rep.Fallback,
	}).Info("Image redacted")
	return out, report, nil
}
