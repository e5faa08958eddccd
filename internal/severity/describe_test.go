package severity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
)

func TestDescribe(t *testing.T) {
	box := anatomy.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}

	d := Describe(SafeVerdict(ReasonNoNudity), nil)
	require.False(t, d.HasNudity)
	require.Equal(t, "No sensitive content detected.", d.Text)
	require.Empty(t, d.Parts)

	obs := []anatomy.Observation{
		anatomy.NewObservation("FEMALE_BREAST_EXPOSED", 0.5, box),
		anatomy.NewObservation("BELLY_EXPOSED", 0.5, box),
	}
	d = Describe(Verdict{Level: Suggestive, Confidence: 0.4, Reason: ReasonBreastOnly}, obs)
	require.True(t, d.HasNudity)
	require.Equal(t, "Suggestive content detected: exposed breasts without visible nipples, other parts: BELLY_EXPOSED. Suggestive content: breast without nipple.", d.Text)
	require.Equal(t, []string{"BELLY_EXPOSED", "FEMALE_BREAST_EXPOSED"}, d.Parts)

	obs = []anatomy.Observation{
		anatomy.NewObservation("FEMALE_GENITALIA_EXPOSED", 0.5, box),
		anatomy.NewObservation("FEMALE_BREAST_EXPOSED", 0.5, box),
		anatomy.NewObservation("FEMALE_BREAST_EXPOSED", 0.6, box),
	}
	d = Describe(Verdict{Level: NSFW, Confidence: 0.9, Reason: ReasonCritical}, obs)
	require.Equal(t, "Explicit content (NSFW) detected: exposed genitalia, fully exposed breasts. Explicit content: genitalia/anus.", d.Text)
	require.Len(t, d.Parts, 2)
	require.Equal(t, 0.9, d.Confidence)
}
