package redact

import (
	"image"
	"math"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
)

// Defaults for Config.
const (
	DefaultIntensity     = 75
	DefaultMarginPct     = 40.0
	DefaultMinMarginPx   = 30
	DefaultFallbackSigma = 8.0

	minKernel          = 25
	breastMarginFactor = 1.5
)

// Margin returns the horizontal and vertical padding for box.
func Margin(box anatomy.Box, marginPct float64, minMarginPx int) (int, int) {
	mx := max(float64(box.Width())*marginPct/100, float64(minMarginPx))
	my := max(float64(box.Height())*marginPct/100, float64(minMarginPx))
	return int(mx), int(my)
}

// MarginPctFor returns the margin percentage to use for obs given every
// observation in the frame.
func MarginPctFor(obs anatomy.Observation, all []anatomy.Observation, marginPct float64) float64 {
	if obs.Type != anatomy.Breast {
		return marginPct
	}
	rect := obs.Box.Rect()
	for _, o := range all {
		if o.Type == anatomy.Nipple && o.Box.Rect().Overlaps(rect) {
			return marginPct
		}
	}
	return marginPct * breastMarginFactor
}

// Region computes the clipped blur rectangle for obs. The second return value
// is false when nothing of the region remains inside bounds.
func Region(obs anatomy.Observation, all []anatomy.Observation, bounds image.Rectangle, marginPct float64, minMarginPx int) (image.Rectangle, bool) {
	if !obs.Box.Valid() {
		return image.Rectangle{}, false
	}
	mx, my := Margin(obs.Box, MarginPctFor(obs, all, marginPct), minMarginPx)
	e := obs.Box.Expand(mx, my, bounds)
	if !e.Valid() {
		return image.Rectangle{}, false
	}
	return e.Rect(), true
}

func oddDown(k int) int {
	if k%2 == 0 {
		return max(1, k-1)
	}
	return k
}

func oddUp(k int) int {
	if k%2 == 0 {
		return k + 1
	}
	return k
}

// PrimaryKernel returns the size-adaptive kernel for a w×h region.
func PrimaryKernel(intensity, w, h int) int {
	base := max(minKernel, int(float64(min(w, h))*0.4))
	k := min(max(oddUp(intensity), minKernel), base)
	return oddDown(k)
}

// KernelSchedule returns the kernel size of every blur pass for a w×h region.
func KernelSchedule(intensity, w, h int) []int {
	k := PrimaryKernel(intensity, w, h)
	passes := []int{k, k}
	final := k
	if k > 15 {
		final = max(15, k-10)
	}
	passes = append(passes, oddDown(final))
	if k >= 30 {
		passes = append(passes, oddUp(k+10))
	}
	return passes
}

// KernelRadius converts a kernel size to a Gaussian radius.
func KernelRadius(size int) float64 {
	return math.Max(0.5, float64(size-1)/2)
}
