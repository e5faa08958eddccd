package severity

import (
	"sort"
	"strings"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
)

// Description is a human-readable summary of a verdict.
type Description struct {
	HasNudity  bool     `json:"has_nudity"`
	Level      Level    `json:"level"`
	Text       string   `json:"description"`
	Confidence float64  `json:"confidence"`
	Parts      []string `json:"parts_detected"`
}

// maxOtherLabels caps how many unclassified labels are listed.
const maxOtherLabels = 3

// Describe renders v as prose, naming the exposed part categories found in obs.
func Describe(v Verdict, obs []anatomy.Observation) Description {
	present := anatomy.Types(obs)

	var others []string
	seen := map[string]bool{}
	var parts []string
	for _, o := range obs {
		if seen[o.RawLabel] {
			continue
		}
		seen[o.RawLabel] = true
		parts = append(parts, o.RawLabel)
		if o.Type == anatomy.Other {
			others = append(others, o.RawLabel)
		}
	}
	sort.Strings(parts)

	var text string
	switch v.Level {
	case Safe:
		text = "No sensitive content detected."
	case Suggestive:
		var phrases []string
		if present.Has(anatomy.Breast) {
			phrases = append(phrases, "exposed breasts without visible nipples")
		}
		if present.Has(anatomy.Buttocks) {
			phrases = append(phrases, "exposed buttocks")
		}
		if len(others) > 0 {
			phrases = append(phrases, "other parts: "+strings.Join(others[:min(len(others), maxOtherLabels)], ", "))
		}
		text = compose("Suggestive content detected", phrases, v.Reason)
	case NSFW:
		var phrases []string
		if present.Has(anatomy.Genitalia) {
			phrases = append(phrases, "exposed genitalia")
		}
		if present.Has(anatomy.Anus) {
			phrases = append(phrases, "exposed anus")
		}
		if present.Has(anatomy.Nipple) {
			phrases = append(phrases, "exposed nipples")
		}
		if present.Has(anatomy.Breast) && !present.Has(anatomy.Nipple) {
			phrases = append(phrases, "fully exposed breasts")
		}
		if present.Has(anatomy.Buttocks) {
			phrases = append(phrases, "exposed buttocks")
		}
		text = compose("Explicit content (NSFW) detected", phrases, v.Reason)
	}

	return Description{
		HasNudity:  v.Level != Safe,
		Level:      v.Level,
		Text:       text,
		Confidence: v.Confidence,
		Parts:      parts,
	}
}

func compose(head string, phrases []string, reason string) string {
	var b strings.Builder
	b.WriteString(head)
	if len(phrases) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(phrases, ", "))
	}
	b.WriteString(".")
	if reason != "" {
		b.WriteString(" ")
		b.WriteString(strings.ToUpper(reason[:1]) + reason[1:])
		b.WriteString(".")
	}
	return b.String()
}
