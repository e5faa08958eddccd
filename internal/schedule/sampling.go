package schedule

import (
	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
	"github.com/ironsheep/content-guard-mcp/internal/severity"
)

// DefaultSearchRadius is how many frames either side are searched for a
// substitute when a stand-in has no observations.
const DefaultSearchRadius = 20

// ShouldDetect reports whether frame i of total is run through the detector
// when detecting every n frames. The first and last frames are always sampled.
func ShouldDetect(i, total, every int) bool {
	if every <= 1 {
		return true
	}
	return i%every == 0 || i == 0 || i == total-1
}

// Neighbors returns the sampled frames bracketing frame i.
func Neighbors(i, total, every int) (prev, next int) {
	if every <= 1 {
		return i, i
	}
	prev = (i / every) * every
	next = min(prev+every, total-1)
	return prev, next
}

// Alpha returns the position of i between prev and next in [0,1].
func Alpha(i, prev, next int) float64 {
	if next <= prev {
		return 0
	}
	return float64(i-prev) / float64(next-prev)
}

// Sample is the detection result of one sampled frame.
type Sample struct {
	Frame        int                   `json:"frame"`
	Timestamp    float64               `json:"timestamp"`
	Observations []anatomy.Observation `json:"observations"`
	Level        severity.Level        `json:"level"`
	IsNudity     bool                  `json:"is_nudity"`
}

// Source records where a stand-in came from.
type Source string

const (
	SourceDirect   Source = "direct"
	SourceNeighbor Source = "neighbor"
	SourceCarried  Source = "carried"
	SourceSearch   Source = "search"
	SourceNone     Source = "none"
)

// Interpolator resolves the observations to use for any frame from the
// sampled frames.
//
// It remembers the last non-empty stand-in it returned, so StandIn must be
// called in frame order and an Interpolator must not be shared between
// goroutines.
type Interpolator struct {
	total     int
	every     int
	radius    int
	samples   map[int]Sample
	lastValid *Sample
}

// NewInterpolator builds an interpolator over samples for a video of total frames.
func NewInterpolator(samples map[int]Sample, total, every, radius int) *Interpolator {
	if every < 1 {
		every = 1
	}
	if radius < 0 {
		radius = DefaultSearchRadius
	}
	return &Interpolator{total: total, every: every, radius: radius, samples: samples}
}

// StandIn returns the sample whose observations should be used for frame i.
//
// Resolution order:
//
//  1. the frame's own sample, or for an unsampled frame the bracketing sample
//     nearer in time (alpha < 0.5 picks the prior one);
//  2. if that has no observations, the last non-empty stand-in returned;
//  3. otherwise the nearest sampled frame within the search radius that has
//     observations, checking i-d before i+d.
//
// The detector is never re-run. The returned Sample has Frame set to the
// frame it was taken from.
func (p *Interpolator) StandIn(i int) (Sample, Source) {
	s, src, ok := p.primary(i)
	if ok && len(s.Observations) > 0 {
		p.remember(s)
		return s, src
	}

	if p.lastValid != nil {
		return *p.lastValid, SourceCarried
	}

	if found, ok := p.search(i); ok {
		p.remember(found)
		return found, SourceSearch
	}

	if ok {
		return s, src
	}
	return Sample{Frame: i, Level: severity.Safe}, SourceNone
}

func (p *Interpolator) primary(i int) (Sample, Source, bool) {
	if s, ok := p.samples[i]; ok {
		return s, SourceDirect, true
	}

	prev, next := Neighbors(i, p.total, p.every)
	ps, pok := p.samples[prev]
	ns, nok := p.samples[next]
	if next == prev {
		nok = false
	}

	switch {
	case pok && nok:
		if Alpha(i, prev, next) < 0.5 {
			return ps, SourceNeighbor, true
		}
		return ns, SourceNeighbor, true
	case pok:
		return ps, SourceNeighbor, true
	case nok:
		return ns, SourceNeighbor, true
	}
	return Sample{}, SourceNone, false
}

func (p *Interpolator) search(i int) (Sample, bool) {
	for d := 1; d <= p.radius; d++ {
		for _, j := range [2]int{i - d, i + d} {
			if s, ok := p.samples[j]; ok && len(s.Observations) > 0 {
				return s, true
			}
		}
	}
	return Sample{}, false
}

func (p *Interpolator) remember(s Sample) {
	c := s
	p.lastValid = &c
}
