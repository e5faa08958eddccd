package severity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
	"github.com/ironsheep/content-guard-mcp/internal/nudity"
)

func eval(conf float64, types ...anatomy.Type) nudity.Evaluation {
	return nudity.Evaluation{IsNudity: true, Confidence: conf, AllTypes: anatomy.NewTypeSet(types...)}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		ev     nudity.Evaluation
		want   Level
		reason string
	}{
		{"not nudity", nudity.Evaluation{Confidence: 0.9, AllTypes: anatomy.NewTypeSet(anatomy.Genitalia)}, Safe, ReasonNoNudity},
		{"genitalia", eval(0.01, anatomy.Genitalia), NSFW, ReasonCritical},
		{"anus", eval(0.01, anatomy.Anus, anatomy.Other), NSFW, ReasonCritical},
		{"breast and nipple", eval(0.1, anatomy.Breast, anatomy.Nipple), NSFW, ReasonBreastNipple},
		{"breast high confidence", eval(0.7, anatomy.Breast), NSFW, ReasonBreastHigh},
		{"breast low confidence", eval(0.69, anatomy.Breast), Suggestive, ReasonBreastOnly},
		{"breast with buttocks stays on breast rule", eval(0.65, anatomy.Breast, anatomy.Buttocks), Suggestive, ReasonBreastOnly},
		{"nipple", eval(0.1, anatomy.Nipple), NSFW, ReasonNipple},
		{"buttocks with other high", eval(0.6, anatomy.Buttocks, anatomy.Other), NSFW, ReasonButtocksMulti},
		{"buttocks with other low", eval(0.59, anatomy.Buttocks, anatomy.Other), Suggestive, ReasonButtocks},
		{"buttocks alone high", eval(0.95, anatomy.Buttocks), Suggestive, ReasonButtocks},
		{"high score other", eval(0.75, anatomy.Other), NSFW, ReasonHighScore},
		{"medium score other", eval(0.5, anatomy.Other), Suggestive, ReasonMediumScore},
		{"low score other", eval(0.49, anatomy.Other), Safe, ReasonLowScore},
		{"no types high score", eval(0.8), NSFW, ReasonHighScore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(tt.ev)
			require.Equal(t, tt.want, v.Level)
			require.Equal(t, tt.reason, v.Reason)
			if !tt.ev.IsNudity {
				require.Equal(t, 0.0, v.Confidence)
			} else {
				require.Equal(t, tt.ev.Confidence, v.Confidence)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	ev := eval(0.42, anatomy.Breast, anatomy.Other)
	require.Equal(t, Classify(ev), Classify(ev))
}

func TestClassifyCriticalNeverBelowNSFW(t *testing.T) {
	bases := []nudity.Evaluation{
		eval(0.0),
		eval(0.3, anatomy.Breast),
		eval(0.55, anatomy.Buttocks),
		eval(0.2, anatomy.Other),
		eval(0.9, anatomy.Breast, anatomy.Nipple),
	}
	for _, base := range bases {
		for _, crit := range []anatomy.Type{anatomy.Genitalia, anatomy.Anus} {
			ev := base
			ev.AllTypes = base.AllTypes.Clone()
			ev.AllTypes.Add(crit)
			require.Equal(t, NSFW, Classify(ev).Level)
		}
	}
}

func TestClassifyDoesNotAliasTypes(t *testing.T) {
	ev := eval(0.5, anatomy.Breast)
	v := Classify(ev)
	ev.AllTypes.Add(anatomy.Genitalia)
	require.False(t, v.Types.Has(anatomy.Genitalia))
}

func TestLevelOrderingAndJSON(t *testing.T) {
	require.Equal(t, NSFW, Max(Suggestive, NSFW))
	require.Equal(t, Suggestive, Max(Suggestive, Safe))

	data, err := json.Marshal(Classify(eval(0.5, anatomy.Breast)))
	require.NoError(t, err)
	require.JSONEq(t, `{"level":"SUGGESTIVE","confidence":0.5,"reason":"suggestive content: breast without nipple","types":["BREAST"]}`, string(data))

	var l Level
	require.NoError(t, json.Unmarshal([]byte(`"nsfw"`), &l))
	require.Equal(t, NSFW, l)
	require.Error(t, json.Unmarshal([]byte(`"bad"`), &l))
}

func TestEndToEndScenarios(t *testing.T) {
	e := nudity.NewEvaluator(nudity.DefaultConfig())
	box := func(x int) anatomy.Box { return anatomy.Box{X1: x, Y1: 100, X2: x + 40, Y2: 140} }

	// Lone breast with no nipple: suggestive.
	ev := e.Evaluate([]anatomy.Observation{anatomy.NewObservation("BREAST", 0.5, box(100))}, 640, 480)
	require.True(t, ev.IsNudity)
	require.Equal(t, Suggestive, Classify(ev).Level)

	// Genitalia with a nearby unclassified part: explicit.
	ev = e.Evaluate([]anatomy.Observation{
		anatomy.NewObservation("GENITALIA", 0.4, box(100)),
		anatomy.NewObservation("OTHER", 0.3, box(150)),
	}, 640, 480)
	require.Equal(t, NSFW, Classify(ev).Level)
}
