package schedule

import (
	"sort"
)

// Default safety margins in seconds.
const (
	DefaultMarginBefore = 2.0
	DefaultMarginAfter  = 1.0
)

// Interval is a closed range of video time in seconds.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Contains reports whether t lies in [Start, End].
func (iv Interval) Contains(t float64) bool {
	return t >= iv.Start && t <= iv.End
}

// Duration returns End-Start.
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// Intervals is a sorted list of disjoint intervals.
type Intervals []Interval

// Contains reports whether t lies in any interval.
func (s Intervals) Contains(t float64) bool {
	// First interval whose end is at or after t.
	i := sort.Search(len(s), func(i int) bool { return s[i].End >= t })
	return i < len(s) && s[i].Contains(t)
}

// TotalDuration sums the interval lengths.
func (s Intervals) TotalDuration() float64 {
	d := 0.0
	for _, iv := range s {
		d += iv.Duration()
	}
	return d
}

// Build turns detection timestamps into redaction intervals.
//
// Each timestamp t becomes [t-before, t+after] clipped to [0, duration]. The
// padded intervals are sorted and merged. A non-positive duration disables the
// upper clip. Timestamps need not be sorted or unique.
func Build(timestamps []float64, duration, before, after float64) Intervals {
	if len(timestamps) == 0 {
		return nil
	}
	raw := make([]Interval, 0, len(timestamps))
	for _, t := range timestamps {
		iv := Interval{Start: max(0, t-before), End: t + after}
		if duration > 0 {
			iv.End = min(duration, iv.End)
		}
		if iv.End < iv.Start {
			continue
		}
		raw = append(raw, iv)
	}
	return Merge(raw)
}

// Merge sorts intervals by start and greedily joins overlapping or touching
// ones. The input slice is not modified. Merging an already merged list
// returns an equal list.
func Merge(intervals []Interval) Intervals {
	if len(intervals) == 0 {
		return nil
	}
	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := Intervals{sorted[0]}
	for _, iv := range sorted[1:] {
		cur := &out[len(out)-1]
		if iv.Start <= cur.End {
			cur.End = max(cur.End, iv.End)
			continue
		}
		out = append(out, iv)
	}
	return out
}
