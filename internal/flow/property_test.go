package flow

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/olivierh59500/sankey-flow-go/internal/geometry"
)

func TestEngineProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)

	s := scenarioSampler(t)
	cache := geometry.NewCache()
	cache.Put(straightRoute("/root/A", 12))
	cache.Put(straightRoute("/root/B", 30))

	engineFor := func(density float64, capacity int) *Engine {
		cfg := testConfig()
		cfg.Density = density
		cfg.SpeedMin, cfg.SpeedMax = 1, 1.5
		cfg.TotalParticles = capacity
		e, err := NewEngine(cfg, s, cache, nil)
		require.NoError(t, err)
		return e
	}

	properties.Property("live plus arrived stays under the cap and never shrinks", prop.ForAll(
		func(seed int64, density float64, capacity int) bool {
			e := engineFor(density, capacity)
			state := NewState()
			rng := rand.New(rand.NewSource(seed))
			prev := 0
			for tick := 0; tick < 120; tick++ {
				if _, err := e.Tick(state, tick, rng); err != nil {
					return false
				}
				seen := state.Live() + state.Arrived
				if seen > capacity || seen < prev {
					return false
				}
				prev = seen
			}
			return true
		},
		gen.Int64(),
		gen.Float64Range(0, 6),
		gen.IntRange(1, 60),
	))

	properties.Property("ticking a copy with the same source gives the same state", prop.ForAll(
		func(seed int64, warmup int) bool {
			e := engineFor(4, 200)
			state := NewState()
			rng := rand.New(rand.NewSource(seed))
			for tick := 0; tick < warmup; tick++ {
				if _, err := e.Tick(state, tick, rng); err != nil {
					return false
				}
			}
			a, b := state.Clone(), state.Clone()
			ra, errA := e.Tick(a, warmup, rand.New(rand.NewSource(seed+1)))
			rb, errB := e.Tick(b, warmup, rand.New(rand.NewSource(seed+1)))
			return errA == nil && errB == nil &&
				ra == rb &&
				reflect.DeepEqual(a.Particles, b.Particles) &&
				reflect.DeepEqual(a.Arrivals, b.Arrivals)
		},
		gen.Int64(),
		gen.IntRange(0, 60),
	))

	properties.TestingRun(t)
}
