package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
)

// typeColors are the outline colors for each anatomical type.
var typeColors = map[anatomy.Type]string{
	anatomy.Genitalia: "#ff1744",
	anatomy.Anus:      "#d500f9",
	anatomy.Breast:    "#ff9100",
	anatomy.Nipple:    "#ffea00",
	anatomy.Buttocks:  "#2979ff",
	anatomy.Other:     "#9e9e9e",
}

// AnnotateOptions selects what Annotate draws.
type AnnotateOptions struct {
	// ROIs are drawn as thin outlines in ROIColor.
	ROIs []anatomy.Box

	// ROIColor is a hex color such as "#00e676". Invalid values fall back to green.
	ROIColor string

	// Thickness is the outline width for observation boxes. Zero means 2.
	Thickness int

	// ShowLabels draws the type name and score percentage above each box.
	ShowLabels bool
}

// AnnotationResult contains an annotated image encoded for transport.
type AnnotationResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Boxes       int    `json:"boxes"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Annotate draws observation boxes (and optionally person ROIs) over a copy
// of img.
func Annotate(img image.Image, obs []anatomy.Observation, opts AnnotateOptions) *image.RGBA {
	bounds := img.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	roiColor := hexColor(opts.ROIColor, color.RGBA{0, 230, 118, 255})
	for _, roi := range opts.ROIs {
		drawRect(result, roi.Rect(), 1, roiColor)
	}

	thickness := opts.Thickness
	if thickness <= 0 {
		thickness = 2
	}
	for _, o := range obs {
		c := hexColor(typeColors[o.Type], color.RGBA{255, 255, 255, 255})
		drawRect(result, o.Box.Rect(), thickness, c)
		if opts.ShowLabels {
			text := fmt.Sprintf("%s %d%%", o.Type, int(o.Score*100+0.5))
			drawLabel(result, o.Box.X1, o.Box.Y1-labelHeight, text, color.RGBA{0, 0, 0, 255}, c)
		}
	}
	return result
}

// AnnotateEncoded runs Annotate and encodes the result as a base64 PNG.
func AnnotateEncoded(img image.Image, obs []anatomy.Observation, opts AnnotateOptions) (*AnnotationResult, error) {
	annotated := Annotate(img, obs, opts)
	encoded, err := EncodePNGBase64(annotated)
	if err != nil {
		return nil, err
	}
	b := annotated.Bounds()
	return &AnnotationResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		Boxes:       len(obs),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// hexColor parses a "#rrggbb" string, returning fallback on error.
func hexColor(hex string, fallback color.RGBA) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		return fallback
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// drawRect outlines r with the given thickness, growing inward.
func drawRect(img *image.RGBA, r image.Rectangle, thickness int, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	u := image.NewUniform(c)
	for i := 0; i < thickness; i++ {
		inner := r.Inset(i)
		if inner.Empty() {
			return
		}
		draw.Draw(img, image.Rect(inner.Min.X, inner.Min.Y, inner.Max.X, inner.Min.Y+1), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(inner.Min.X, inner.Max.Y-1, inner.Max.X, inner.Max.Y), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(inner.Min.X, inner.Min.Y, inner.Min.X+1, inner.Max.Y), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(inner.Max.X-1, inner.Min.Y, inner.Max.X, inner.Max.Y), u, image.Point{}, draw.Src)
	}
}

// labelHeight is the height of a label strip in pixels.
var labelHeight = basicfont.Face7x13.Height

// drawLabel draws text on a filled background at (x, y), clamped into the image.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	bounds := img.Bounds()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: basicfont.Face7x13,
	}
	labelWidth := d.MeasureString(text).Ceil() + 2

	x = max(bounds.Min.X, min(x, bounds.Max.X-labelWidth))
	y = max(bounds.Min.Y, min(y, bounds.Max.Y-labelHeight))

	draw.Draw(img, image.Rect(x, y, x+labelWidth, y+labelHeight).Intersect(bounds), image.NewUniform(bg), image.Point{}, draw.Src)

	d.Dot = fixed.P(x+1, y+basicfont.Face7x13.Ascent)
	d.DrawString(text)
}
