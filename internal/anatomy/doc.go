// Package anatomy turns raw region detections into typed anatomical observations.
//
// The region classifier model emits loosely structured triples: a free-form
// label, a score, and a four-value box whose encoding is not self-describing.
// This package is the single boundary where those triples are normalized.
// Everything downstream (grouping, severity, redaction) consumes only the
// Observation struct produced here.
//
// # Label Classification
//
// Labels are mapped to a Type by case-insensitive substring match against an
// ordered keyword table. The first matching row wins:
//
//	GENITALIA  "GENITALIA", "GENITAL"
//	ANUS       "ANUS"
//	NIPPLE     "NIPPLE"
//	BREAST     "BREAST"
//	BUTTOCKS   "BUTTOCK"
//
// Any label that matches no row is OTHER. Model vocabularies change between
// versions, so unknown labels are expected and never an error.
//
// # Box Resolution
//
// Boxes arrive either as [x, y, w, h] or [x1, y1, x2, y2]. See ResolveBox for
// the heuristic. Resolved boxes are absolute integer pixel rectangles in the
// coordinate space of the full frame, with (x1,y1) inclusive and (x2,y2)
// exclusive, matching the imaging package.
//
// # Thresholds
//
// Each type has its own minimum score, expressed as a multiplier of a base
// threshold. Critical types use the lowest multipliers so that they are
// recalled aggressively.
package anatomy
