// Package nudity clusters anatomical observations by proximity within one
// frame and decides whether the strongest cluster constitutes nudity.
//
// # Grouping
//
// Observations are grouped by single-link clustering over box centers. Two
// observations are linked when their centers are within
// min(width, height) × SpatialGroupingThreshold of each other, and groups are
// the connected components of that link graph. A chain of nearby parts
// therefore forms one group even when its endpoints are far apart.
//
// A flatbush spatial index narrows candidate pairs before the exact distance
// test, so grouping stays cheap for frames with many detections.
//
// # Scoring
//
// Each group is scored as mean(score) × max(severity_weight), boosted ×1.5
// when it has at least MinCorrelatedParts members and ×1.3 when it holds a
// critical type. The highest-scoring group is the best group, and the
// ordered decision rules in Evaluator.Evaluate are applied to it alone.
package nudity
