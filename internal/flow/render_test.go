package flow

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spawnOnA spawns one particle onto /root/A with the given speed and an
// offset of -ParticleSize/2.
func spawnOnA(t *testing.T, e *Engine, state *State, speedU float64) {
	t.Helper()
	_, err := e.Spawn(state, 0, 0, &fixedRandom{values: []float64{0, speedU, 0.5}})
	require.NoError(t, err)
}

func TestRenderInterpolates(t *testing.T) {
	cfg := testConfig()
	cfg.SpeedMin, cfg.SpeedMax = 0.5, 0.5
	e := newEngine(t, cfg)
	state := NewState()
	spawnOnA(t, e, state, 0)

	_, err := e.Tick(state, 3, always(0))
	require.NoError(t, err)

	views := e.Render(state)
	require.Len(t, views, 1)
	v := views[0]
	assert.Equal(t, "0_0", v.ID)
	assert.InDelta(t, 1.5, v.X, 1e-12)
	assert.InDelta(t, -4, v.Y, 1e-12)
	assert.Equal(t, "/root/A", v.Leaf)
	assert.Equal(t, "vegan", v.Group)
	// 7.5 units from the end, so the squeeze has just started
	assert.InDelta(t, 3.75, v.Radius, 1e-12)
}

func TestRenderSqueeze(t *testing.T) {
	e := newEngine(t, testConfig())

	tests := []struct {
		tick   int
		radius float64
	}{
		{0, 4},
		{1, 4},
		{5, 2},
		{8, 1},
		{9, 1},
	}
	for _, tt := range tests {
		state := NewState()
		spawnOnA(t, e, state, 0)
		_, err := e.Tick(state, tt.tick, always(0))
		require.NoError(t, err)

		views := e.Render(state)
		require.Len(t, views, 1, "tick %d", tt.tick)
		assert.InDelta(t, tt.radius, views[0].Radius, 1e-12, "tick %d", tt.tick)
	}
}

func TestRenderHoldsLastSample(t *testing.T) {
	cfg := testConfig()
	cfg.SpeedMin, cfg.SpeedMax = 0.5, 0.5
	e := newEngine(t, cfg)
	state := NewState()
	spawnOnA(t, e, state, 0)

	// position 9.5: past the last index, not yet arrived
	_, err := e.Tick(state, 19, always(0))
	require.NoError(t, err)
	require.Equal(t, 1, state.Live())

	views := e.Render(state)
	require.Len(t, views, 1)
	assert.Equal(t, 9.0, views[0].X)
}

func TestRenderIsPure(t *testing.T) {
	cfg := testConfig()
	cfg.Density = 4
	cfg.Wobble = 3
	cfg.WobbleSeed = 11
	e := newEngine(t, cfg)
	state := NewState()
	for tick := 0; tick < 6; tick++ {
		_, err := e.Tick(state, tick, always(0.7))
		require.NoError(t, err)
	}

	before := state.Clone()
	first := e.Render(state)
	second := e.Render(state)
	assert.Equal(t, first, second)
	assert.Equal(t, before, state)
}

func TestWobbleStaysNearBand(t *testing.T) {
	cfg := testConfig()
	cfg.Density = 4
	flat := newEngine(t, cfg)

	cfg.Wobble = 3
	wobbly := newEngine(t, cfg)

	state := NewState()
	for tick := 0; tick < 6; tick++ {
		_, err := flat.Tick(state, tick, always(0.7))
		require.NoError(t, err)
	}

	a, b := flat.Render(state), wobbly.Render(state)
	require.Equal(t, len(a), len(b))
	moved := false
	for i := range a {
		assert.Equal(t, a[i].X, b[i].X)
		dy := math.Abs(a[i].Y - b[i].Y)
		assert.LessOrEqual(t, dy, 2*cfg.Wobble)
		if dy > 0 {
			moved = true
		}
	}
	assert.True(t, moved)
}
