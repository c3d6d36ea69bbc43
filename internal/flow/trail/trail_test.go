package trail

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivierh59500/sankey-flow-go/internal/flow"
)

func view(id string, x float64) flow.ParticleView {
	return flow.ParticleView{ID: id, X: x, Y: 10, Radius: 2, Color: color.RGBA{R: 1, A: 0xff}}
}

func TestBufferIsBounded(t *testing.T) {
	b := NewBuffer(3)
	for x := 0.0; x < 5; x++ {
		b.Push([]flow.ParticleView{view("a", x)})
	}

	var got []Point
	b.Each(func(points []Point, _ color.RGBA) { got = points })
	require.Len(t, got, 3)
	assert.Equal(t, []Point{{2, 12}, {3, 12}, {4, 12}}, got)
}

func TestBufferForgetsMissingParticles(t *testing.T) {
	b := NewBuffer(4)
	b.Push([]flow.ParticleView{view("a", 0), view("b", 0)})
	b.Push([]flow.ParticleView{view("b", 1)})
	assert.Equal(t, 1, b.Len())

	var ids []string
	b.Each(func(points []Point, _ color.RGBA) { ids = append(ids, "x") })
	assert.Len(t, ids, 1)

	b.Reset()
	assert.Zero(t, b.Len())
}

func TestBufferOrder(t *testing.T) {
	b := NewBuffer(2)
	b.Push([]flow.ParticleView{view("c", 3), view("a", 1), view("b", 2)})

	var xs []float64
	b.Each(func(points []Point, _ color.RGBA) { xs = append(xs, points[0].X) })
	assert.Equal(t, []float64{1, 2, 3}, xs)
}
