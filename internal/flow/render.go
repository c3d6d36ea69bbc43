package flow

import (
	"image/color"
	"math"

	"github.com/olivierh59500/sankey-flow-go/internal/geometry"
)

// ParticleView is what a surface needs to draw one particle.
type ParticleView struct {
	ID     string
	X, Y   float64
	Radius float64
	Color  color.RGBA
	Group  string
	Leaf   string // leaf path
}

// Render maps every travelling particle to canvas coordinates. It only
// reads state.
//
// The position is interpolated between the sample at floor(position) and
// the next one; a particle on the final sample holds there. The radius
// shrinks towards MinDiameter/2 once the particle is closer than one
// diameter to the end of its route.
func (e *Engine) Render(state *State) []ParticleView {
	views := make([]ParticleView, 0, len(state.Particles))
	for i := range state.Particles {
		p := &state.Particles[i]
		route, ok := e.cache.Get(p.Target.Path)
		if !ok || p.Arrived() || route.Len() == 0 {
			continue
		}
		x, y := interpolate(route, p.Position)

		squeeze := math.Max(0, e.cfg.ParticleSize-(route.Last().X-x))
		r := math.Max(e.cfg.MinDiameter, e.cfg.ParticleSize-squeeze) / 2

		y += p.Offset
		if e.noise != nil {
			y += e.cfg.Wobble * e.noise.Noise2D(float64(p.Serial)*noiseStride, p.Position*noiseScale)
		}

		views = append(views, ParticleView{
			ID:     p.ID,
			X:      x,
			Y:      y,
			Radius: r,
			Color:  p.Color,
			Group:  p.Group,
			Leaf:   p.Target.Path,
		})
	}
	return views
}

func interpolate(route *geometry.Route, pos float64) (float64, float64) {
	if pos < 0 {
		pos = 0
	}
	idx := int(math.Floor(pos))
	last := route.Len() - 1
	if idx >= last {
		pt := route.Points[last]
		return pt.X, pt.Y
	}
	pt := route.Points[idx].Lerp(route.Points[idx+1], pos-float64(idx))
	return pt.X, pt.Y
}
