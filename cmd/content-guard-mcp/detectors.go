package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/content-guard-mcp/internal/config"
	"github.com/ironsheep/content-guard-mcp/internal/detection"
)

// wholeFrameLocator is the person command value that treats every frame as
// one person, for region models that run on full frames.
const wholeFrameLocator = "builtin:whole-frame"

// buildDetectors constructs the two detectors named by cfg. A label file
// serves both. Anything missing is an error; no detector is substituted.
func buildDetectors(cfg *config.Config, log *logrus.Entry) (detection.PersonLocator, detection.RegionDetector, error) {
	d := cfg.Detector

	if d.LabelFile != "" {
		labels, err := detection.LoadLabels(d.LabelFile)
		if err != nil {
			return nil, nil, err
		}
		log.WithFields(logrus.Fields{
			"file":    d.LabelFile,
			"frames":  len(labels.Frames),
			"classes": len(labels.Classes),
		}).Info("Replaying detections from label file")
		replay := detection.NewReplay(labels)
		return replay, replay, nil
	}

	if d.RegionCommand == "" {
		return nil, nil, fmt.Errorf("%w: set CONTENT_GUARD_REGION_COMMAND or CONTENT_GUARD_LABEL_FILE", detection.ErrDetectorUnavailable)
	}
	regions, err := detection.NewCommandRegionDetector(d.RegionCommand, d.Timeout, cfg.Video.TempDir, log)
	if err != nil {
		return nil, nil, fmt.Errorf("region detector: %w", err)
	}

	var persons detection.PersonLocator
	switch strings.TrimSpace(d.PersonCommand) {
	case wholeFrameLocator:
		persons = detection.WholeFrameLocator{}
	case "":
		return nil, nil, errors.Join(
			detection.ErrDetectorUnavailable,
			fmt.Errorf("set CONTENT_GUARD_PERSON_COMMAND, or %q to skip person location", wholeFrameLocator),
		)
	default:
		persons, err = detection.NewCommandPersonLocator(d.PersonCommand, d.Timeout, cfg.Video.TempDir, log)
		if err != nil {
			return nil, nil, fmt.Errorf("person locator: %w", err)
		}
	}
	return persons, regions, nil
}
