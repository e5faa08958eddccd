package anatomy

// Detection is one raw triple from the region classifier.
//
// Box holds four values in an unknown encoding; see ResolveBox. Both the
// "label"/"box" and "class"/"bbox" spellings are accepted on decode by the
// detection package and normalized into this struct.
type Detection struct {
	Label string     `json:"label"`
	Score float64    `json:"score"`
	Box   [4]float64 `json:"box"`
}

// Observation is one classified, scored, localized body-part detection.
//
// Observations are values and are never modified after NewObservation or
// Adapter.Adapt returns them.
type Observation struct {
	Type           Type    `json:"type"`
	RawLabel       string  `json:"raw_label"`
	Score          float64 `json:"score"`
	Box            Box     `json:"box"`
	SeverityWeight float64 `json:"severity_weight"`
}

// NewObservation builds an observation from an already resolved box.
func NewObservation(label string, score float64, box Box) Observation {
	t := Classify(label)
	return Observation{
		Type:           t,
		RawLabel:       label,
		Score:          score,
		Box:            box,
		SeverityWeight: t.SeverityWeight(),
	}
}

// Types returns the set of types present in obs.
func Types(obs []Observation) TypeSet {
	s := make(TypeSet)
	for _, o := range obs {
		s.Add(o.Type)
	}
	return s
}

// FilterSensitive returns the observations whose type is redacted.
func FilterSensitive(obs []Observation) []Observation {
	out := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if o.Type.Sensitive() {
			out = append(out, o)
		}
	}
	return out
}

// HasSensitive reports whether any observation has a redacted type.
func HasSensitive(obs []Observation) bool {
	for _, o := range obs {
		if o.Type.Sensitive() {
			return true
		}
	}
	return false
}
