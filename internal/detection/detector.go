package detection

import (
	"context"
	"errors"
	"image"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
)

// ErrDetectorUnavailable is returned when a collaborator cannot be started.
var ErrDetectorUnavailable = errors.New("detector unavailable")

// Frame is one image handed to the detectors. Index and Timestamp are zero
// for still images.
type Frame struct {
	Index     int
	Timestamp float64
	Image     image.Image
}

// Person is one located person.
type Person struct {
	Box        anatomy.Box `json:"box"`
	Confidence float64     `json:"confidence"`
}

// PersonLocator finds people in a frame.
type PersonLocator interface {
	LocatePersons(ctx context.Context, f Frame) ([]Person, error)
}

// RegionDetector finds anatomical regions in the crop of frame f covered by roi.
type RegionDetector interface {
	DetectRegions(ctx context.Context, f Frame, roi image.Rectangle, crop image.Image) ([]anatomy.Detection, error)
}

// PersonLocatorFunc adapts a function to PersonLocator.
type PersonLocatorFunc func(ctx context.Context, f Frame) ([]Person, error)

func (fn PersonLocatorFunc) LocatePersons(ctx context.Context, f Frame) ([]Person, error) {
	return fn(ctx, f)
}

// RegionDetectorFunc adapts a function to RegionDetector.
type RegionDetectorFunc func(ctx context.Context, f Frame, roi image.Rectangle, crop image.Image) ([]anatomy.Detection, error)

func (fn RegionDetectorFunc) DetectRegions(ctx context.Context, f Frame, roi image.Rectangle, crop image.Image) ([]anatomy.Detection, error) {
	return fn(ctx, f, roi, crop)
}

// WholeFrameLocator reports a single person covering the entire frame. It is
// used when content is known to be people-centric and no person model exists.
type WholeFrameLocator struct{}

func (WholeFrameLocator) LocatePersons(_ context.Context, f Frame) ([]Person, error) {
	if f.Image == nil {
		return nil, nil
	}
	b := f.Image.Bounds()
	if b.Empty() {
		return nil, nil
	}
	return []Person{{
		Box:        anatomy.Box{X1: b.Min.X, Y1: b.Min.Y, X2: b.Max.X, Y2: b.Max.Y},
		Confidence: 1,
	}}, nil
}

// StaticDetector returns the same persons and regions for every frame. It
// stands in for real models in tests and in the evaluate_detections tool,
// where the caller already holds detector output.
type StaticDetector struct {
	Persons []Person
	Regions []anatomy.Detection
}

func (s StaticDetector) LocatePersons(_ context.Context, _ Frame) ([]Person, error) {
	return append([]Person(nil), s.Persons...), nil
}

// DetectRegions returns every region, ignoring roi. Region boxes are
// expected in ROI coordinates already.
func (s StaticDetector) DetectRegions(_ context.Context, _ Frame, _ image.Rectangle, _ image.Image) ([]anatomy.Detection, error) {
	return append([]anatomy.Detection(nil), s.Regions...), nil
}
