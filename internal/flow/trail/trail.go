// Package trail keeps the last few positions of each particle for drawing
// motion trails.
package trail

import (
	"image/color"
	"sort"

	"github.com/olivierh59500/sankey-flow-go/internal/flow"
)

// Point is one recorded particle centre.
type Point struct {
	X, Y float64
}

type entry struct {
	points []Point
	color  color.RGBA
	seen   uint64
}

// Buffer holds a bounded trail per particle ID. Particles missing from a
// pushed frame are forgotten.
type Buffer struct {
	size    int
	frame   uint64
	entries map[string]*entry
}

// NewBuffer keeps up to size points per particle.
func NewBuffer(size int) *Buffer {
	if size < 2 {
		size = 2
	}
	return &Buffer{size: size, entries: make(map[string]*entry)}
}

// Push records the centre of every particle of one frame.
func (b *Buffer) Push(views []flow.ParticleView) {
	b.frame++
	for _, v := range views {
		e, ok := b.entries[v.ID]
		if !ok {
			e = &entry{points: make([]Point, 0, b.size)}
			b.entries[v.ID] = e
		}
		e.color = v.Color
		e.seen = b.frame
		e.points = append(e.points, Point{X: v.X, Y: v.Y + v.Radius})
		if len(e.points) > b.size {
			e.points = e.points[1:]
		}
	}
	for id, e := range b.entries {
		if e.seen != b.frame {
			delete(b.entries, id)
		}
	}
}

// Each calls fn for every trail, ordered by particle ID.
func (b *Buffer) Each(fn func(points []Point, col color.RGBA)) {
	ids := make([]string, 0, len(b.entries))
	for id := range b.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		e := b.entries[id]
		fn(e.points, e.color)
	}
}

// Len is the number of tracked particles.
func (b *Buffer) Len() int {
	return len(b.entries)
}

// Reset forgets every trail.
func (b *Buffer) Reset() {
	b.entries = make(map[string]*entry)
}
