package nudity

import (
	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
)

// Defaults for Config.
const (
	DefaultBaseThreshold            = 0.3
	DefaultSpatialGroupingThreshold = 0.3
	DefaultMinCorrelatedParts       = 2
)

// Rule identifies which decision rule produced an Evaluation.
type Rule int

const (
	RuleNone Rule = iota
	RuleCritical
	RuleBreast
	RuleButtocks
	RuleCorrelated
	RuleBreastNipple
	RuleAnyPart
)

var ruleNames = map[Rule]string{
	RuleNone:         "none",
	RuleCritical:     "critical type in best group",
	RuleBreast:       "breast above threshold",
	RuleButtocks:     "buttocks above threshold",
	RuleCorrelated:   "correlated parts",
	RuleBreastNipple: "breast and nipple together",
	RuleAnyPart:      "part above minimum score",
}

func (r Rule) String() string {
	return ruleNames[r]
}

// MarshalText encodes the rule by its description.
func (r Rule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Config holds the evaluator thresholds.
type Config struct {
	BaseThreshold            float64
	SpatialGroupingThreshold float64
	MinCorrelatedParts       int
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		BaseThreshold:            DefaultBaseThreshold,
		SpatialGroupingThreshold: DefaultSpatialGroupingThreshold,
		MinCorrelatedParts:       DefaultMinCorrelatedParts,
	}
}

// Evaluation is the per-frame nudity decision.
type Evaluation struct {
	IsNudity   bool                    `json:"is_nudity"`
	Confidence float64                 `json:"confidence"`
	Groups     [][]anatomy.Observation `json:"groups"`
	BestGroup  []anatomy.Observation   `json:"best_group,omitempty"`
	AllTypes   anatomy.TypeSet         `json:"all_types"`
	Rule       Rule                    `json:"rule"`
	TotalParts int                     `json:"total_parts"`
}

// Observations returns every observation across all groups.
func (e Evaluation) Observations() []anatomy.Observation {
	out := make([]anatomy.Observation, 0, e.TotalParts)
	for _, g := range e.Groups {
		out = append(out, g...)
	}
	return out
}

// Evaluator applies grouping and the nudity decision rules.
type Evaluator struct {
	cfg Config
}

// NewEvaluator creates an evaluator. Zero fields in cfg take their defaults.
func NewEvaluator(cfg Config) *Evaluator {
	if cfg.BaseThreshold <= 0 {
		cfg.BaseThreshold = DefaultBaseThreshold
	}
	if cfg.SpatialGroupingThreshold <= 0 {
		cfg.SpatialGroupingThreshold = DefaultSpatialGroupingThreshold
	}
	if cfg.MinCorrelatedParts <= 0 {
		cfg.MinCorrelatedParts = DefaultMinCorrelatedParts
	}
	return &Evaluator{cfg: cfg}
}

// Config returns the effective configuration.
func (e *Evaluator) Config() Config {
	return e.cfg
}

// BreastThreshold is the minimum mean group score for the breast rule.
func (e *Evaluator) BreastThreshold() float64 {
	return e.cfg.BaseThreshold * anatomy.Breast.ThresholdMultiplier()
}

// ButtocksThreshold is the minimum mean group score for the buttocks rule.
func (e *Evaluator) ButtocksThreshold() float64 {
	return e.cfg.BaseThreshold * anatomy.Buttocks.ThresholdMultiplier()
}

// Evaluate groups obs for a width×height frame and decides whether the best
// group constitutes nudity.
//
// The best group is the one with strictly the highest GroupConfidence. The
// decision rules, first match wins:
//
//  1. best group contains GENITALIA or ANUS
//  2. best group contains BREAST and mean score ≥ BreastThreshold
//  3. best group contains BUTTOCKS and mean score ≥ ButtocksThreshold
//  4. best group has at least MinCorrelatedParts members
//  5. best group contains both BREAST and NIPPLE
//  6. best group is non-empty and mean score ≥ BaseThreshold × 0.4
//
// Confidence is min(best group confidence, 1) whatever rule matched. AllTypes
// covers every observation in the frame, not only the best group.
func (e *Evaluator) Evaluate(obs []anatomy.Observation, width, height int) Evaluation {
	if len(obs) == 0 {
		return Evaluation{AllTypes: anatomy.TypeSet{}}
	}

	radius := GroupRadius(width, height, e.cfg.SpatialGroupingThreshold)
	groups := Group(obs, radius)

	best := -1
	bestConf := 0.0
	for i, g := range groups {
		c := GroupConfidence(g, e.cfg.MinCorrelatedParts)
		if c > bestConf {
			bestConf = c
			best = i
		}
	}

	ev := Evaluation{
		Confidence: min(bestConf, 1.0),
		Groups:     groups,
		AllTypes:   anatomy.Types(obs),
		TotalParts: len(obs),
	}
	if best < 0 {
		return ev
	}

	ev.BestGroup = groups[best]
	ev.Rule = e.decide(ev.BestGroup)
	ev.IsNudity = ev.Rule != RuleNone
	return ev
}

func (e *Evaluator) decide(group []anatomy.Observation) Rule {
	types := anatomy.Types(group)
	mean := meanScore(group)

	switch {
	case types.HasCritical():
		return RuleCritical
	case types.Has(anatomy.Breast) && mean >= e.BreastThreshold():
		return RuleBreast
	case types.Has(anatomy.Buttocks) && mean >= e.ButtocksThreshold():
		return RuleButtocks
	case len(group) >= e.cfg.MinCorrelatedParts:
		return RuleCorrelated
	case types.Has(anatomy.Breast) && types.Has(anatomy.Nipple):
		return RuleBreastNipple
	case len(group) >= 1 && mean >= e.cfg.BaseThreshold*0.4:
		return RuleAnyPart
	default:
		return RuleNone
	}
}
