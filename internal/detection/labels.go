package detection

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
)

// PersonClass is the class name that marks a labelled object as a person.
const PersonClass = "person"

// VideoLabels holds recorded detections for each frame of a video, or for a
// single image as frame 0.
type VideoLabels struct {
	Classes []string       `json:"classes"`
	Frames  []*FrameLabels `json:"frames"`
}

// FrameLabels holds the objects recorded for one frame.
type FrameLabels struct {
	Frame   int             `json:"frame,omitempty"`
	Objects []LabeledObject `json:"objects"`
}

// LabeledObject is one recorded detection. Class indexes VideoLabels.Classes
// and Box is absolute [x1, y1, x2, y2].
type LabeledObject struct {
	Class      int        `json:"class"`
	Confidence float64    `json:"confidence"`
	Box        [4]float64 `json:"box"`
}

// LoadLabels reads a label file.
func LoadLabels(path string) (*VideoLabels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}
	var labels VideoLabels
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("failed to parse label file %s: %w", path, err)
	}
	return &labels, nil
}

// Replay serves recorded labels as both a PersonLocator and a RegionDetector.
type Replay struct {
	classes []string
	frames  map[int]*FrameLabels
}

// NewReplay indexes labels by frame number.
func NewReplay(labels *VideoLabels) *Replay {
	r := &Replay{
		classes: labels.Classes,
		frames:  make(map[int]*FrameLabels, len(labels.Frames)),
	}
	for _, f := range labels.Frames {
		if f != nil {
			r.frames[f.Frame] = f
		}
	}
	return r
}

// Class returns the name of class index c, or "" when out of range.
func (r *Replay) Class(c int) string {
	if c < 0 || c >= len(r.classes) {
		return ""
	}
	return r.classes[c]
}

func (r *Replay) isPerson(c int) bool {
	return strings.EqualFold(r.Class(c), PersonClass)
}

func (r *Replay) LocatePersons(_ context.Context, f Frame) ([]Person, error) {
	fl, ok := r.frames[f.Index]
	if !ok {
		return nil, nil
	}
	var bounds image.Rectangle
	if f.Image != nil {
		bounds = f.Image.Bounds()
	}
	var out []Person
	for _, obj := range fl.Objects {
		if !r.isPerson(obj.Class) {
			continue
		}
		box := anatomy.Box{X1: int(obj.Box[0]), Y1: int(obj.Box[1]), X2: int(obj.Box[2]), Y2: int(obj.Box[3])}
		if !bounds.Empty() {
			box = box.Clip(bounds)
		}
		if box.Valid() {
			out = append(out, Person{Box: box, Confidence: obj.Confidence})
		}
	}
	return out, nil
}

// DetectRegions returns the recorded regions whose center lies inside roi,
// translated into the ROI's coordinates.
func (r *Replay) DetectRegions(_ context.Context, f Frame, roi image.Rectangle, _ image.Image) ([]anatomy.Detection, error) {
	fl, ok := r.frames[f.Index]
	if !ok {
		return nil, nil
	}
	var out []anatomy.Detection
	for _, obj := range fl.Objects {
		if r.isPerson(obj.Class) {
			continue
		}
		cx := int((obj.Box[0] + obj.Box[2]) / 2)
		cy := int((obj.Box[1] + obj.Box[3]) / 2)
		if !image.Pt(cx, cy).In(roi) {
			continue
		}
		dx, dy := float64(roi.Min.X), float64(roi.Min.Y)
		out = append(out, anatomy.Detection{
			Label: r.Class(obj.Class),
			Score: obj.Confidence,
			Box:   [4]float64{obj.Box[0] - dx, obj.Box[1] - dy, obj.Box[2] - dx, obj.Box[3] - dy},
		})
	}
	return out, nil
}
