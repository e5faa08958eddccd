package anatomy

import (
	"image"
	"math"
)

// BoxEpsilon is the pixel spread below which a raw quadruple is read as [x, y, w, h].
const BoxEpsilon = 10.0

// Box is a resolved absolute rectangle.
//
// X1,Y1 is the inclusive top-left corner and X2,Y2 the exclusive bottom-right
// corner, in full-frame pixel coordinates. OffsetX and OffsetY record the ROI
// origin that was added during resolution.
type Box struct {
	X1      int `json:"x1"`
	Y1      int `json:"y1"`
	X2      int `json:"x2"`
	Y2      int `json:"y2"`
	OffsetX int `json:"offset_x,omitempty"`
	OffsetY int `json:"offset_y,omitempty"`
}

// Width returns X2-X1.
func (b Box) Width() int { return b.X2 - b.X1 }

// Height returns Y2-Y1.
func (b Box) Height() int { return b.Y2 - b.Y1 }

// Valid reports whether the box has positive area.
func (b Box) Valid() bool { return b.X2 > b.X1 && b.Y2 > b.Y1 }

// Center returns the geometric center of the box.
func (b Box) Center() (float64, float64) {
	return float64(b.X1+b.X2) / 2, float64(b.Y1+b.Y2) / 2
}

// Rect converts the box to an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// ResolveBox converts an ambiguous four-value box into an absolute Box.
//
// The upstream model does not say whether it emitted [x, y, w, h] or
// [x1, y1, x2, y2], so the encoding is inferred:
//
//  1. diffX = |v2-v0| and diffY = |v3-v1|. If both are below BoxEpsilon the
//     values are read as [x, y, w, h].
//  2. Otherwise, if v2 > v0 and v3 > v1 the values are read as [x1, y1, x2, y2].
//  3. Otherwise they are read as [x, y, w, h].
//
// The result is translated by (offsetX, offsetY) and truncated to whole
// pixels. The second return value is false when the resolved box has zero or
// negative area, or any value is not finite; such boxes must be discarded.
func ResolveBox(raw [4]float64, offsetX, offsetY int) (Box, bool) {
	for _, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Box{}, false
		}
	}

	v0, v1, v2, v3 := raw[0], raw[1], raw[2], raw[3]
	diffX := math.Abs(v2 - v0)
	diffY := math.Abs(v3 - v1)

	var x1, y1, x2, y2 float64
	switch {
	case diffX < BoxEpsilon && diffY < BoxEpsilon:
		x1, y1, x2, y2 = v0, v1, v0+v2, v1+v3
	case v2 > v0 && v3 > v1:
		x1, y1, x2, y2 = v0, v1, v2, v3
	default:
		x1, y1, x2, y2 = v0, v1, v0+v2, v1+v3
	}

	b := Box{
		X1:      int(x1) + offsetX,
		Y1:      int(y1) + offsetY,
		X2:      int(x2) + offsetX,
		Y2:      int(y2) + offsetY,
		OffsetX: offsetX,
		OffsetY: offsetY,
	}
	if !b.Valid() {
		return Box{}, false
	}
	return b, true
}

// Expand grows the box by dx on the left and right and dy on the top and
// bottom, then clips it to bounds.
func (b Box) Expand(dx, dy int, bounds image.Rectangle) Box {
	return b.ExpandSides(dx, dy, dx, dy, bounds)
}

// ExpandSides grows each side of the box independently and clips the result to bounds.
func (b Box) ExpandSides(left, top, right, bottom int, bounds image.Rectangle) Box {
	out := b
	out.X1 = max(bounds.Min.X, b.X1-left)
	out.Y1 = max(bounds.Min.Y, b.Y1-top)
	out.X2 = min(bounds.Max.X, b.X2+right)
	out.Y2 = min(bounds.Max.Y, b.Y2+bottom)
	return out
}

// Clip restricts the box to bounds.
func (b Box) Clip(bounds image.Rectangle) Box {
	return b.ExpandSides(0, 0, 0, 0, bounds)
}

// IOU returns the intersection over union of two boxes.
func (b Box) IOU(o Box) float64 {
	inter := b.Rect().Intersect(o.Rect())
	if inter.Empty() {
		return 0
	}
	i := float64(inter.Dx() * inter.Dy())
	u := float64(b.Width()*b.Height()+o.Width()*o.Height()) - i
	if u <= 0 {
		return 0
	}
	return i / u
}
