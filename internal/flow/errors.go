package flow

import "fmt"

// UnknownRouteError means a particle targets a route the geometry cache does
// not hold. The particle is dropped; the rest of the tick carries on.
type UnknownRouteError struct {
	Path     string
	Particle string
}

func (e *UnknownRouteError) Error() string {
	if e.Particle == "" {
		return fmt.Sprintf("unknown route %s", e.Path)
	}
	return fmt.Sprintf("unknown route %s for particle %s", e.Path, e.Particle)
}
