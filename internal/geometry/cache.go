package geometry

import (
	"fmt"
	"sort"

	"github.com/olivierh59500/sankey-flow-go/internal/layout"
)

// Route is the sampled geometry of one root-to-leaf route.
type Route struct {
	Key    string  // leaf path
	Points []Point // one per unit of arc length
	Length float64 // arc length of the rendered path
}

// Len is the number of samples, which is the distance a particle must
// travel to arrive.
func (r *Route) Len() int {
	return len(r.Points)
}

// Last returns the final sample.
func (r *Route) Last() Point {
	if len(r.Points) == 0 {
		return Point{}
	}
	return r.Points[len(r.Points)-1]
}

// PathFor builds the rendered path of a route: a horizontal run through each
// node box at mid-band and a cubic between consecutive nodes whose control
// points share the horizontal midpoint.
func PathFor(route layout.Route) (*Path, error) {
	if len(route) == 0 {
		return nil, fmt.Errorf("geometry: empty route")
	}
	first := route[0]
	p := NewPath(Point{X: first.X0, Y: first.MidY()})
	for i, n := range route {
		p.LineTo(Point{X: n.X1, Y: n.MidY()})
		if i+1 == len(route) {
			break
		}
		next := route[i+1]
		mx := (n.X1 + next.X0) / 2
		p.CubicTo(
			Point{X: mx, Y: n.MidY()},
			Point{X: mx, Y: next.MidY()},
			Point{X: next.X0, Y: next.MidY()},
		)
	}
	return p, nil
}

// Sample flattens and resamples the path of a route.
func Sample(route layout.Route) (*Route, error) {
	p, err := PathFor(route)
	if err != nil {
		return nil, err
	}
	points, length := Resample(p.Flatten())
	return &Route{Key: route.Key(), Points: points, Length: length}, nil
}

// Cache holds route geometry keyed by leaf path. It is built once per layout
// and only read while particles move.
type Cache struct {
	routes map[string]*Route
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{routes: make(map[string]*Route)}
}

// Build samples every route and replaces the cache contents.
func Build(routes []layout.Route) (*Cache, error) {
	c := NewCache()
	for _, r := range routes {
		g, err := Sample(r)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", r.Key(), err)
		}
		if g.Len() == 0 {
			return nil, fmt.Errorf("route %s: path is shorter than one unit", g.Key)
		}
		c.Put(g)
	}
	return c, nil
}

// Put stores r under its key, replacing any previous geometry.
func (c *Cache) Put(r *Route) {
	c.routes[r.Key] = r
}

// Get returns the geometry for a leaf path.
func (c *Cache) Get(key string) (*Route, bool) {
	r, ok := c.routes[key]
	return r, ok
}

// Keys returns the cached route keys, sorted.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, len(c.routes))
	for k := range c.routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len is the number of cached routes.
func (c *Cache) Len() int {
	return len(c.routes)
}
