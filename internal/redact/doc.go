// Package redact blurs the pixel regions responsible for a moderation verdict.
//
// For each sensitive observation the box is padded by a margin, clipped to
// the frame, and blurred with a short schedule of Gaussian passes whose kernel
// size adapts to the region. When a frame is known to need redaction but no
// region could be blurred, the whole frame is blurred instead, so unresolved
// geometry never leaks the original pixels.
//
// # Margin
//
//	margin = max(dimension × margin_pct / 100, min_margin_px)
//
// applied per axis on every side. BREAST boxes with no overlapping NIPPLE
// box use 1.5 × margin_pct.
//
// # Kernel Schedule
//
//	base   = max(25, 0.4 × min(region_w, region_h))
//	kernel = clamp(intensity, 25, base), forced odd
//
// Passes: kernel, kernel, then max(15, kernel-10) when kernel > 15, plus
// kernel+10 when kernel ≥ 30. Kernel sizes are converted to Gaussian radii of
// (size-1)/2.
//
// The schedule is a visual policy and gives no guarantee that the original
// content cannot be recovered.
package redact
