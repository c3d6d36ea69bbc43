// Package sampler draws weighted-random targets with a threshold-scale
// lookup over cumulative weights.
package sampler

import (
	"fmt"
	"math"
	"sort"

	"github.com/olivierh59500/sankey-flow-go/internal/hierarchy"
)

// Sampler maps a uniform draw in [0,1) to a target. It is immutable and safe
// to share.
type Sampler struct {
	targets    []hierarchy.Target
	thresholds []float64
	lastLive   int
}

// New builds the cumulative thresholds of normalized targets.
func New(targets []hierarchy.Target) (*Sampler, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("sampler: no targets")
	}
	s := &Sampler{
		targets:    append([]hierarchy.Target(nil), targets...),
		thresholds: make([]float64, len(targets)),
		lastLive:   -1,
	}
	var sum float64
	for i, t := range targets {
		if t.Weight < 0 || math.IsNaN(t.Weight) {
			return nil, fmt.Errorf("sampler: target %s/%s has weight %v", t.Path, t.Group, t.Weight)
		}
		sum += t.Weight
		s.thresholds[i] = sum
		if t.Weight > 0 {
			s.lastLive = i
		}
	}
	if s.lastLive < 0 {
		return nil, fmt.Errorf("sampler: every target has zero weight")
	}
	return s, nil
}

// Sample returns the target whose interval [threshold[i-1], threshold[i])
// contains u.
func (s *Sampler) Sample(u float64) hierarchy.Target {
	i := sort.Search(len(s.thresholds), func(i int) bool {
		return s.thresholds[i] > u
	})
	if i >= len(s.thresholds) {
		// rounding left the final threshold just under 1
		i = s.lastLive
	}
	return s.targets[i]
}

// Targets returns the targets in threshold order.
func (s *Sampler) Targets() []hierarchy.Target {
	return s.targets
}

// Thresholds returns the cumulative weights.
func (s *Sampler) Thresholds() []float64 {
	return s.thresholds
}
