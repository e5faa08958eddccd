package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
)

// Expansion controls how a person box is grown into a region of interest.
//
// Each side is padded by a fraction of the box size, never less than MinPx.
// The bottom uses its own ratio because person models tend to cut boxes off
// at the hips or thighs.
type Expansion struct {
	Ratio       float64
	BottomRatio float64
	MinPx       int
}

// DefaultExpansion matches the person model's usual under-coverage.
func DefaultExpansion() Expansion {
	return Expansion{Ratio: 0.12, BottomRatio: 0.25, MinPx: 10}
}

// ExpandPersonBox pads a person box and clips it to bounds.
func ExpandPersonBox(box anatomy.Box, bounds image.Rectangle, e Expansion) anatomy.Box {
	w, h := box.Width(), box.Height()
	padX := max(int(float64(w)*e.Ratio), e.MinPx)
	padTop := max(int(float64(h)*e.Ratio), e.MinPx)
	padBottom := max(int(float64(h)*e.BottomRatio), e.MinPx)
	return box.ExpandSides(padX, padTop, padX, padBottom, bounds)
}

// CropROI extracts roi from img. The result's bounds start at (0,0).
func CropROI(img image.Image, roi image.Rectangle) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if !roi.In(bounds) {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			roi.Min.X, roi.Min.Y, roi.Max.X, roi.Max.Y, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if roi.Empty() {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}
	return imaging.Crop(img, roi), nil
}
