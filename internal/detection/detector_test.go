package detection

import (
	"context"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
)

func TestWholeFrameLocator(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	persons, err := WholeFrameLocator{}.LocatePersons(context.Background(), Frame{Image: img})
	require.NoError(t, err)
	require.Len(t, persons, 1)
	require.Equal(t, anatomy.Box{X2: 320, Y2: 240}, persons[0].Box)

	persons, err = WholeFrameLocator{}.LocatePersons(context.Background(), Frame{})
	require.NoError(t, err)
	require.Empty(t, persons)
}

func TestFuncAdapters(t *testing.T) {
	var called bool
	var loc PersonLocator = PersonLocatorFunc(func(ctx context.Context, f Frame) ([]Person, error) {
		called = true
		return nil, nil
	})
	_, err := loc.LocatePersons(context.Background(), Frame{})
	require.NoError(t, err)
	require.True(t, called)

	var det RegionDetector = RegionDetectorFunc(func(ctx context.Context, f Frame, roi image.Rectangle, crop image.Image) ([]anatomy.Detection, error) {
		return []anatomy.Detection{{Label: "x"}}, nil
	})
	dets, err := det.DetectRegions(context.Background(), Frame{}, image.Rectangle{}, nil)
	require.NoError(t, err)
	require.Len(t, dets, 1)
}

// writeScript writes a shell script that ignores its image argument and
// prints body.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "model.sh")
	script := "#!/bin/sh\ncat <<'JSON'\n" + body + "\nJSON\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func TestNewCommandUnavailable(t *testing.T) {
	_, err := NewCommand("", time.Second, "", nil)
	require.ErrorIs(t, err, ErrDetectorUnavailable)

	_, err = NewCommand("definitely-not-a-real-detector-binary --flag", time.Second, "", nil)
	require.ErrorIs(t, err, ErrDetectorUnavailable)
}

func TestCommandRegionDetector(t *testing.T) {
	script := writeScript(t, `[{"class": "FEMALE_GENITALIA_EXPOSED", "score": 0.77, "box": [5, 6, 40, 50]}]`)
	det, err := NewCommandRegionDetector("sh "+script, 10*time.Second, t.TempDir(), nil)
	require.NoError(t, err)

	crop := image.NewRGBA(image.Rect(0, 0, 64, 64))
	dets, err := det.DetectRegions(context.Background(), Frame{}, crop.Bounds(), crop)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	require.Equal(t, "FEMALE_GENITALIA_EXPOSED", dets[0].Label)
	require.Equal(t, [4]float64{5, 6, 40, 50}, dets[0].Box)
}

func TestCommandPersonLocatorClips(t *testing.T) {
	script := writeScript(t, `{"persons": [{"label": "person", "score": 0.9, "box": [-10, 10, 500, 90]}]}`)
	loc, err := NewCommandPersonLocator("sh "+script, 10*time.Second, t.TempDir(), nil)
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	persons, err := loc.LocatePersons(context.Background(), Frame{Image: img})
	require.NoError(t, err)
	require.Len(t, persons, 1)
	require.Equal(t, anatomy.Box{X1: 0, Y1: 10, X2: 100, Y2: 90}, persons[0].Box)
}

func TestCommandFailureReportsStderr(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "fail.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho model exploded >&2\nexit 3\n"), 0755))

	cmd, err := NewCommand("sh "+path, 10*time.Second, t.TempDir(), nil)
	require.NoError(t, err)
	_, err = cmd.Run(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8)))
	require.Error(t, err)
	require.Contains(t, err.Error(), "model exploded")
}

func TestStaticDetectorCopies(t *testing.T) {
	s := StaticDetector{
		Persons: []Person{{Box: anatomy.Box{X2: 10, Y2: 10}, Confidence: 0.9}},
		Regions: []anatomy.Detection{{Label: "BUTTOCKS_EXPOSED", Score: 0.5, Box: [4]float64{0, 0, 20, 20}}},
	}
	persons, err := s.LocatePersons(context.Background(), Frame{})
	require.NoError(t, err)
	persons[0].Confidence = 0
	require.InDelta(t, 0.9, s.Persons[0].Confidence, 1e-9)

	regions, err := s.DetectRegions(context.Background(), Frame{}, image.Rectangle{}, nil)
	require.NoError(t, err)
	require.Len(t, regions, 1)
}
