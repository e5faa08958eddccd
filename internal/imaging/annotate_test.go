package imaging

import (
	"encoding/base64"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
)

func rgbAt(img image.Image, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func TestAnnotate_DrawsBoxOutline(t *testing.T) {
	img := fillImage(100, 100, color.Black)
	obs := []anatomy.Observation{
		anatomy.NewObservation("FEMALE_GENITALIA_EXPOSED", 0.9, anatomy.Box{X1: 20, Y1: 20, X2: 60, Y2: 60}),
	}

	out := Annotate(img, obs, AnnotateOptions{})

	if r, g, b := rgbAt(out, 20, 40); r != 0xff || g != 0x17 || b != 0x44 {
		t.Errorf("left edge color: got (%d,%d,%d)", r, g, b)
	}
	if r, g, b := rgbAt(out, 21, 40); r != 0xff || g != 0x17 || b != 0x44 {
		t.Errorf("second outline pixel: got (%d,%d,%d)", r, g, b)
	}
	if r, g, b := rgbAt(out, 40, 40); r != 0 || g != 0 || b != 0 {
		t.Errorf("box interior must be untouched, got (%d,%d,%d)", r, g, b)
	}
	if r, _, _ := rgbAt(img, 20, 40); r != 0 {
		t.Error("Annotate modified its input")
	}
}

func TestAnnotate_ROIsAndFallbackColor(t *testing.T) {
	img := fillImage(50, 50, color.Black)
	out := Annotate(img, nil, AnnotateOptions{
		ROIs:     []anatomy.Box{{X1: 5, Y1: 5, X2: 45, Y2: 45}},
		ROIColor: "not-a-color",
	})

	if r, g, b := rgbAt(out, 5, 20); r != 0 || g != 230 || b != 118 {
		t.Errorf("ROI outline: got (%d,%d,%d), want fallback green", r, g, b)
	}
	if r, g, b := rgbAt(out, 6, 20); r != 0 || g != 0 || b != 0 {
		t.Errorf("ROI outline should be one pixel wide, got (%d,%d,%d)", r, g, b)
	}
}

func TestAnnotate_LabelsStayInBounds(t *testing.T) {
	img := fillImage(30, 30, color.Black)
	obs := []anatomy.Observation{
		anatomy.NewObservation("BUTTOCKS_EXPOSED", 0.5, anatomy.Box{X1: 0, Y1: 0, X2: 30, Y2: 30}),
	}
	// Label would start above the image; it must be clamped instead of panicking.
	out := Annotate(img, obs, AnnotateOptions{ShowLabels: true})
	if out.Bounds() != img.Bounds() {
		t.Errorf("bounds changed: %v", out.Bounds())
	}
}

func TestAnnotate_LabelRendersText(t *testing.T) {
	img := fillImage(120, 100, color.White)
	obs := []anatomy.Observation{
		anatomy.NewObservation("FEMALE_GENITALIA_EXPOSED", 0.9, anatomy.Box{X1: 10, Y1: 40, X2: 110, Y2: 90}),
	}

	out := Annotate(img, obs, AnnotateOptions{ShowLabels: true})

	// The label strip sits directly above the box in the type color, with
	// black text drawn over it.
	background, text := 0, 0
	for y := 40 - labelHeight; y < 40; y++ {
		for x := 10; x < 110; x++ {
			switch r, g, b := rgbAt(out, x, y); {
			case r == 0xff && g == 0x17 && b == 0x44:
				background++
			case r == 0 && g == 0 && b == 0:
				text++
			}
		}
	}
	if background == 0 {
		t.Error("label background not drawn")
	}
	if text == 0 {
		t.Error("label text not drawn")
	}
	if r, g, b := rgbAt(out, 60, 20); r != 0xff || g != 0xff || b != 0xff {
		t.Errorf("pixel above the label must be untouched, got (%d,%d,%d)", r, g, b)
	}
}

func TestAnnotateEncoded(t *testing.T) {
	img := fillImage(40, 40, color.White)
	obs := []anatomy.Observation{
		anatomy.NewObservation("FEMALE_BREAST_EXPOSED", 0.7, anatomy.Box{X1: 5, Y1: 5, X2: 20, Y2: 20}),
		anatomy.NewObservation("FACE_FEMALE", 0.9, anatomy.Box{X1: 22, Y1: 5, X2: 35, Y2: 20}),
	}

	result, err := AnnotateEncoded(img, obs, AnnotateOptions{ShowLabels: true})
	if err != nil {
		t.Fatalf("AnnotateEncoded failed: %v", err)
	}
	if result.Width != 40 || result.Height != 40 || result.Boxes != 2 {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s", result.MimeType)
	}
	if _, err := base64.StdEncoding.DecodeString(result.ImageBase64); err != nil {
		t.Errorf("failed to decode base64: %v", err)
	}
}

func TestHexColor(t *testing.T) {
	fallback := color.RGBA{1, 2, 3, 255}
	if got := hexColor("#ff0000", fallback); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("hexColor(#ff0000): got %v", got)
	}
	if got := hexColor("", fallback); got != fallback {
		t.Errorf("hexColor(\"\"): got %v, want fallback", got)
	}
}
