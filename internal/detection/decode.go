package detection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
)

var (
	labelKeys = []string{"label", "class", "class_name"}
	scoreKeys = []string{"score", "confidence"}
	boxKeys   = []string{"box", "bbox"}
	listKeys  = []string{"detections", "persons", "predictions"}
)

// DecodeDetections parses model output into raw detections. Elements
// without a usable box are skipped.
func DecodeDetections(data []byte) ([]anatomy.Detection, error) {
	items, err := decodeItems(data)
	if err != nil {
		return nil, err
	}
	out := make([]anatomy.Detection, 0, len(items))
	for _, item := range items {
		box, ok := boxField(item)
		if !ok {
			continue
		}
		out = append(out, anatomy.Detection{
			Label: stringField(item, labelKeys),
			Score: numberField(item, scoreKeys),
			Box:   box,
		})
	}
	return out, nil
}

// DecodePersons parses person locator output. Boxes are absolute xyxy
// coordinates. Elements labelled as anything other than a person are
// skipped; unlabelled elements are kept.
func DecodePersons(data []byte) ([]Person, error) {
	dets, err := DecodeDetections(data)
	if err != nil {
		return nil, err
	}
	out := make([]Person, 0, len(dets))
	for _, d := range dets {
		if d.Label != "" && !strings.EqualFold(strings.TrimSpace(d.Label), "person") {
			continue
		}
		out = append(out, Person{
			Box: anatomy.Box{
				X1: int(d.Box[0]),
				Y1: int(d.Box[1]),
				X2: int(d.Box[2]),
				Y2: int(d.Box[3]),
			},
			Confidence: d.Score,
		})
	}
	return out, nil
}

func decodeItems(data []byte) ([]map[string]any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var items []map[string]any
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("failed to parse detections: %w", err)
		}
		return items, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse detections: %w", err)
	}
	for _, key := range listKeys {
		raw, ok := wrapper[key]
		if !ok {
			continue
		}
		var items []map[string]any
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("failed to parse %q: %w", key, err)
		}
		return items, nil
	}
	return nil, fmt.Errorf("no detection list found (expected one of %s)", strings.Join(listKeys, ", "))
}

func stringField(item map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := item[k].(string); ok {
			return s
		}
	}
	return ""
}

func numberField(item map[string]any, keys []string) float64 {
	for _, k := range keys {
		if f, ok := item[k].(float64); ok && !math.IsNaN(f) {
			return f
		}
	}
	return 0
}

func boxField(item map[string]any) ([4]float64, bool) {
	var box [4]float64
	for _, k := range boxKeys {
		vals, ok := item[k].([]any)
		if !ok {
			continue
		}
		if len(vals) != 4 {
			return box, false
		}
		for i, v := range vals {
			f, ok := v.(float64)
			if !ok {
				return box, false
			}
			box[i] = f
		}
		return box, true
	}
	return box, false
}
