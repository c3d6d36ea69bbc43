package flow

import (
	"path"
	"sort"

	"github.com/olivierh59500/sankey-flow-go/internal/hierarchy"
)

// ArrivalCounter is a read view over an arrival tally.
type ArrivalCounter struct {
	tally    ArrivalTally
	targets  []hierarchy.Target
	capacity int
}

// Arrival is one row of a counter snapshot.
type Arrival struct {
	Leaf  string  `json:"leaf"`
	Name  string  `json:"name"`
	Group string  `json:"group"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// CountFor returns the arrivals for a leaf and group. leaf is either a leaf
// path or a bare leaf name; a bare name sums every leaf carrying it.
func (c ArrivalCounter) CountFor(leaf, group string) int {
	if len(leaf) > 0 && leaf[0] == '/' {
		return c.tally[TallyKey{Leaf: leaf, Group: group}]
	}
	n := 0
	for k, v := range c.tally {
		if k.Group == group && path.Base(k.Leaf) == leaf {
			n += v
		}
	}
	return n
}

// Total is the number of particles that arrived anywhere.
func (c ArrivalCounter) Total() int {
	n := 0
	for _, v := range c.tally {
		n += v
	}
	return n
}

// Share is CountFor divided by the particle cap.
func (c ArrivalCounter) Share(leaf, group string) float64 {
	if c.capacity <= 0 {
		return 0
	}
	return float64(c.CountFor(leaf, group)) / float64(c.capacity)
}

// Snapshot lists every target in threshold order, zero counts included,
// followed by any other tallied key sorted by leaf and group.
func (c ArrivalCounter) Snapshot() []Arrival {
	out := make([]Arrival, 0, len(c.targets))
	seen := make(map[TallyKey]bool, len(c.targets))
	for _, t := range c.targets {
		k := TallyKey{Leaf: t.Path, Group: t.Group}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c.row(k))
	}

	var extra []TallyKey
	for k := range c.tally {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Slice(extra, func(i, j int) bool {
		if extra[i].Leaf != extra[j].Leaf {
			return extra[i].Leaf < extra[j].Leaf
		}
		return extra[i].Group < extra[j].Group
	})
	for _, k := range extra {
		out = append(out, c.row(k))
	}
	return out
}

func (c ArrivalCounter) row(k TallyKey) Arrival {
	a := Arrival{
		Leaf:  k.Leaf,
		Name:  path.Base(k.Leaf),
		Group: k.Group,
		Count: c.tally[k],
	}
	if c.capacity > 0 {
		a.Share = float64(a.Count) / float64(c.capacity)
	}
	return a
}
