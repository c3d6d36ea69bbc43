package flow

import (
	"image/color"
	"maps"

	"github.com/olivierh59500/sankey-flow-go/internal/hierarchy"
)

// Particle travels one route towards a (leaf, group) target.
type Particle struct {
	ID          string // "<tick>_<seq>"
	Serial      uint64
	Speed       float64
	Group       string
	Color       color.RGBA
	Offset      float64 // vertical offset inside the band, fixed at spawn
	CreatedAt   int
	RouteLength int // sample count of the target route
	Target      hierarchy.Target
	Position    float64 // distance along the route, never decreasing
}

// Arrived reports whether the particle reached the end of its route.
func (p *Particle) Arrived() bool {
	return p.Position >= float64(p.RouteLength)
}

// TallyKey identifies a leaf and group in the arrival tally.
type TallyKey struct {
	Leaf  string // leaf path
	Group string
}

// ArrivalTally counts every particle that ever arrived.
type ArrivalTally map[TallyKey]int

// State is everything a simulation run mutates. One driver owns it and
// passes it to the engine.
type State struct {
	Tick      int
	Particles []Particle
	Arrivals  ArrivalTally
	Arrived   int    // sum of Arrivals
	Serial    uint64 // particles spawned so far
	Dropped   int
}

// NewState returns an empty state at tick 0.
func NewState() *State {
	return &State{Arrivals: make(ArrivalTally)}
}

// Live is the number of travelling particles.
func (s *State) Live() int {
	return len(s.Particles)
}

// Reset discards all particles and arrivals and rewinds to tick 0.
func (s *State) Reset() {
	s.Tick = 0
	s.Particles = nil
	s.Arrivals = make(ArrivalTally)
	s.Arrived = 0
	s.Serial = 0
	s.Dropped = 0
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := *s
	c.Particles = append([]Particle(nil), s.Particles...)
	c.Arrivals = maps.Clone(s.Arrivals)
	if c.Arrivals == nil {
		c.Arrivals = make(ArrivalTally)
	}
	return &c
}
