package redact

import (
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// sampleStride bounds the cost of MeanDeltaE on large regions.
const sampleStride = 3

// MeanDeltaE returns the mean CIE Lab distance between corresponding pixels
// of a and b, sampled on a regular grid. Both images are read from their own
// bounds origin, over the overlapping size. Fully transparent pixels are
// skipped.
func MeanDeltaE(a, b image.Image) float64 {
	ab, bb := a.Bounds(), b.Bounds()
	w := min(ab.Dx(), bb.Dx())
	h := min(ab.Dy(), bb.Dy())

	sum := 0.0
	n := 0
	for y := 0; y < h; y += sampleStride {
		for x := 0; x < w; x += sampleStride {
			ca, okA := colorful.MakeColor(a.At(ab.Min.X+x, ab.Min.Y+y))
			cb, okB := colorful.MakeColor(b.At(bb.Min.X+x, bb.Min.Y+y))
			if !okA || !okB {
				continue
			}
			sum += ca.DistanceLab(cb)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
