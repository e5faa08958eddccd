// Package severity maps a nudity evaluation to a three-level moderation verdict.
package severity

import (
	"fmt"
	"strings"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
	"github.com/ironsheep/content-guard-mcp/internal/nudity"
)

// Level is a moderation outcome. Levels are ordered: Safe < Suggestive < NSFW.
type Level int

const (
	Safe Level = iota
	Suggestive
	NSFW
)

func (l Level) String() string {
	switch l {
	case Safe:
		return "SAFE"
	case Suggestive:
		return "SUGGESTIVE"
	case NSFW:
		return "NSFW"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel parses "SAFE", "SUGGESTIVE" or "NSFW" (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SAFE":
		return Safe, nil
	case "SUGGESTIVE":
		return Suggestive, nil
	case "NSFW":
		return NSFW, nil
	}
	return Safe, fmt.Errorf("unknown severity level: %q", s)
}

// Reasons attached to verdicts.
const (
	ReasonNoNudity      = "no nudity detected"
	ReasonNoPerson      = "no person detected"
	ReasonCritical      = "explicit content: genitalia/anus"
	ReasonBreastNipple  = "explicit content: breast and nipple"
	ReasonBreastHigh    = "explicit content: breast with high confidence"
	ReasonBreastOnly    = "suggestive content: breast without nipple"
	ReasonNipple        = "explicit content: nipple"
	ReasonButtocksMulti = "explicit content: buttocks with other parts"
	ReasonButtocks      = "suggestive content: buttocks"
	ReasonMultiple      = "multiple correlated anatomical types"
	ReasonHighScore     = "explicit content: high confidence"
	ReasonMediumScore   = "suggestive content: medium confidence"
	ReasonLowScore      = "low confidence"
)

// Verdict is the moderation outcome for one frame.
type Verdict struct {
	Level      Level           `json:"level"`
	Confidence float64         `json:"confidence"`
	Reason     string          `json:"reason"`
	Types      anatomy.TypeSet `json:"types"`
}

// SafeVerdict returns a SAFE verdict with zero confidence and the given reason.
func SafeVerdict(reason string) Verdict {
	return Verdict{Level: Safe, Reason: reason, Types: anatomy.TypeSet{}}
}

// Classify is a pure function from an evaluation to a verdict.
//
// When IsNudity is false the verdict is SAFE with confidence 0. Otherwise the
// rules below are tried in order and the first match is returned:
//
//  1. GENITALIA or ANUS present: NSFW
//  2. BREAST and NIPPLE present: NSFW
//  3. BREAST present: NSFW if confidence ≥ 0.7, else SUGGESTIVE
//  4. NIPPLE present: NSFW
//  5. BUTTOCKS present: NSFW if more than one type and confidence ≥ 0.6,
//     else SUGGESTIVE
//  6. two or more types: NSFW
//  7. confidence ≥ 0.75: NSFW; ≥ 0.5: SUGGESTIVE; else SAFE
//
// Types are taken from the evaluation's AllTypes. Reordering these rules
// changes outcomes.
func Classify(ev nudity.Evaluation) Verdict {
	if !ev.IsNudity {
		return SafeVerdict(ReasonNoNudity)
	}

	types := ev.AllTypes.Clone()
	if types == nil {
		types = anatomy.TypeSet{}
	}
	conf := ev.Confidence
	verdict := func(l Level, reason string) Verdict {
		return Verdict{Level: l, Confidence: conf, Reason: reason, Types: types}
	}

	hasBreast := types.Has(anatomy.Breast)
	hasNipple := types.Has(anatomy.Nipple)

	switch {
	case types.HasCritical():
		return verdict(NSFW, ReasonCritical)
	case hasBreast && hasNipple:
		return verdict(NSFW, ReasonBreastNipple)
	case hasBreast:
		if conf >= 0.7 {
			return verdict(NSFW, ReasonBreastHigh)
		}
		return verdict(Suggestive, ReasonBreastOnly)
	case hasNipple:
		return verdict(NSFW, ReasonNipple)
	case types.Has(anatomy.Buttocks):
		if len(types) > 1 && conf >= 0.6 {
			return verdict(NSFW, ReasonButtocksMulti)
		}
		return verdict(Suggestive, ReasonButtocks)
	case len(types) >= 2:
		return verdict(NSFW, ReasonMultiple)
	case conf >= 0.75:
		return verdict(NSFW, ReasonHighScore)
	case conf >= 0.5:
		return verdict(Suggestive, ReasonMediumScore)
	default:
		return verdict(Safe, ReasonLowScore)
	}
}

// Max returns the more severe of a and b.
func Max(a, b Level) Level {
	if b > a {
		return b
	}
	return a
}
