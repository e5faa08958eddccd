package nudity

import (
	"math"

	flatbush "github.com/bmharper/flatbush-go"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
)

// GroupRadius returns the link distance for a frame of the given size.
func GroupRadius(width, height int, spatialThreshold float64) float64 {
	return float64(min(width, height)) * spatialThreshold
}

// Group partitions obs into single-link clusters with the given radius.
//
// Two observations are in the same group iff a chain of observations connects
// them where each consecutive pair has centers at most radius apart. Groups
// are returned in order of their lowest-index member, and members keep their
// input order, so the result is deterministic for a given input.
func Group(obs []anatomy.Observation, radius float64) [][]anatomy.Observation {
	n := len(obs)
	if n == 0 {
		return nil
	}

	centers := make([][2]float64, n)
	for i, o := range obs {
		cx, cy := o.Box.Center()
		centers[i] = [2]float64{cx, cy}
	}

	uf := newUnionFind(n)
	if n > 1 && radius >= 0 {
		fb := flatbush.NewFlatbush[int32]()
		fb.Reserve(n)
		for _, c := range centers {
			fb.Add(int32(math.Floor(c[0])), int32(math.Floor(c[1])), int32(math.Ceil(c[0])), int32(math.Ceil(c[1])))
		}
		fb.Finish()

		r2 := radius * radius
		nearby := []int{}
		for i, c := range centers {
			nearby = fb.SearchFast(
				int32(math.Floor(c[0]-radius))-1, int32(math.Floor(c[1]-radius))-1,
				int32(math.Ceil(c[0]+radius))+1, int32(math.Ceil(c[1]+radius))+1,
				nearby[:0])
			for _, j := range nearby {
				if j <= i {
					continue
				}
				dx := c[0] - centers[j][0]
				dy := c[1] - centers[j][1]
				if dx*dx+dy*dy <= r2 {
					uf.union(i, j)
				}
			}
		}
	}

	index := map[int]int{}
	var groups [][]anatomy.Observation
	for i, o := range obs {
		root := uf.find(i)
		g, ok := index[root]
		if !ok {
			g = len(groups)
			index[root] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], o)
	}
	return groups
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}

// meanScore returns the arithmetic mean of the scores in group.
func meanScore(group []anatomy.Observation) float64 {
	if len(group) == 0 {
		return 0
	}
	sum := 0.0
	for _, o := range group {
		sum += o.Score
	}
	return sum / float64(len(group))
}

// maxWeight returns the largest severity weight in group.
func maxWeight(group []anatomy.Observation) float64 {
	w := 0.0
	for _, o := range group {
		w = max(w, o.SeverityWeight)
	}
	return w
}

// GroupConfidence scores one group.
func GroupConfidence(group []anatomy.Observation, minCorrelatedParts int) float64 {
	if len(group) == 0 {
		return 0
	}
	c := meanScore(group) * maxWeight(group)
	if len(group) >= minCorrelatedParts {
		c *= 1.5
	}
	if anatomy.Types(group).HasCritical() {
		c *= 1.3
	}
	return c
}
