package detection

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeDetectionsSpellings(t *testing.T) {
	data := []byte(`[
		{"label": "FEMALE_BREAST_EXPOSED", "score": 0.8, "box": [10, 20, 30, 40]},
		{"class": "BUTTOCKS_EXPOSED", "confidence": 0.6, "bbox": [1, 2, 3, 4]},
		{"class_name": "FACE_FEMALE", "score": 0.9, "box": [5, 5, 50, 50]}
	]`)

	dets, err := DecodeDetections(data)
	require.NoError(t, err)
	require.Len(t, dets, 3)

	require.Equal(t, "FEMALE_BREAST_EXPOSED", dets[0].Label)
	require.InDelta(t, 0.8, dets[0].Score, 1e-9)
	require.Equal(t, [4]float64{10, 20, 30, 40}, dets[0].Box)

	require.Equal(t, "BUTTOCKS_EXPOSED", dets[1].Label)
	require.InDelta(t, 0.6, dets[1].Score, 1e-9)
	require.Equal(t, [4]float64{1, 2, 3, 4}, dets[1].Box)

	require.Equal(t, "FACE_FEMALE", dets[2].Label)
}

func TestDecodeDetectionsWrapped(t *testing.T) {
	dets, err := DecodeDetections([]byte(`{"predictions": [{"label": "x", "score": 0.5, "box": [0, 0, 20, 20]}]}`))
	require.NoError(t, err)
	require.Len(t, dets, 1)

	_, err = DecodeDetections([]byte(`{"results": []}`))
	require.Error(t, err)
}

func TestDecodeDetectionsSkipsBadBoxes(t *testing.T) {
	dets, err := DecodeDetections([]byte(`[
		{"label": "a", "score": 0.5, "box": [0, 0, 20]},
		{"label": "b", "score": 0.5, "box": ["0", 0, 20, 20]},
		{"label": "c", "score": 0.5},
		{"label": "d", "score": 0.5, "box": [0, 0, 20, 20]}
	]`))
	require.NoError(t, err)
	require.Len(t, dets, 1)
	require.Equal(t, "d", dets[0].Label)
}

func TestDecodeDetectionsEmpty(t *testing.T) {
	dets, err := DecodeDetections([]byte("  \n"))
	require.NoError(t, err)
	require.Empty(t, dets)

	_, err = DecodeDetections([]byte("not json"))
	require.Error(t, err)
}

func TestDecodePersonsFiltersClasses(t *testing.T) {
	persons, err := DecodePersons([]byte(`{"persons": [
		{"class": "person", "confidence": 0.9, "bbox": [10, 10, 110, 210]},
		{"class": "dog", "confidence": 0.9, "bbox": [0, 0, 50, 50]},
		{"confidence": 0.4, "box": [200, 0, 300, 100]}
	]}`))
	require.NoError(t, err)
	require.Len(t, persons, 2)
	require.Equal(t, 10, persons[0].Box.X1)
	require.Equal(t, 210, persons[0].Box.Y2)
	require.InDelta(t, 0.9, persons[0].Confidence, 1e-9)
	require.Equal(t, 200, persons[1].Box.X1)
}
