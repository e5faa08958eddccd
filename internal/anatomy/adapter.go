package anatomy

// DefaultBaseThreshold is the base score threshold used when none is configured.
const DefaultBaseThreshold = 0.3

// Adapter normalizes raw detections into observations and applies the per-type
// score thresholds.
//
// An Adapter holds no mutable state and is safe for concurrent use.
type Adapter struct {
	baseThreshold float64
}

// NewAdapter creates an adapter with the given base threshold. A non-positive
// value selects DefaultBaseThreshold.
func NewAdapter(baseThreshold float64) *Adapter {
	if baseThreshold <= 0 {
		baseThreshold = DefaultBaseThreshold
	}
	return &Adapter{baseThreshold: baseThreshold}
}

// BaseThreshold returns the configured base threshold.
func (a *Adapter) BaseThreshold() float64 {
	return a.baseThreshold
}

// Threshold returns the minimum score accepted for type t.
func (a *Adapter) Threshold(t Type) float64 {
	return a.baseThreshold * t.ThresholdMultiplier()
}

// Adapt converts one detection found inside an ROI whose origin is
// (offsetX, offsetY).
//
// Returns false when the box cannot be resolved to a valid rectangle or the
// score is below the threshold for the detection's type.
func (a *Adapter) Adapt(d Detection, offsetX, offsetY int) (Observation, bool) {
	box, ok := ResolveBox(d.Box, offsetX, offsetY)
	if !ok {
		return Observation{}, false
	}
	obs := NewObservation(d.Label, d.Score, box)
	if obs.Score < a.Threshold(obs.Type) {
		return Observation{}, false
	}
	return obs, true
}

// AdaptAll converts every detection in dets, dropping the ones Adapt rejects.
// The second return value counts the dropped detections.
func (a *Adapter) AdaptAll(dets []Detection, offsetX, offsetY int) ([]Observation, int) {
	out := make([]Observation, 0, len(dets))
	dropped := 0
	for _, d := range dets {
		obs, ok := a.Adapt(d, offsetX, offsetY)
		if !ok {
			dropped++
			continue
		}
		out = append(out, obs)
	}
	return out, dropped
}
