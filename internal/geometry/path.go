// Package geometry turns routes through the positioned network into dense
// point lists sampled once per unit of arc length.
package geometry

import "math"

// Point is a canvas coordinate.
type Point struct {
	X, Y float64
}

// Dist is the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Lerp moves from p towards q by t in [0,1].
func (p Point) Lerp(q Point, t float64) Point {
	return Point{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

// flatTolerance bounds the length of each piece a cubic is split into.
const flatTolerance = 0.5

type segment interface {
	end() Point
	// flatten appends the polyline of the segment, excluding its start.
	flatten(start Point, dst []Point) []Point
}

type lineTo struct{ to Point }

func (s lineTo) end() Point { return s.to }

func (s lineTo) flatten(_ Point, dst []Point) []Point {
	return append(dst, s.to)
}

type cubicTo struct{ c1, c2, to Point }

func (s cubicTo) end() Point { return s.to }

func (s cubicTo) at(p0 Point, t float64) Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return Point{
		X: a*p0.X + b*s.c1.X + c*s.c2.X + d*s.to.X,
		Y: a*p0.Y + b*s.c1.Y + c*s.c2.Y + d*s.to.Y,
	}
}

func (s cubicTo) flatten(start Point, dst []Point) []Point {
	// speed along the curve never exceeds three times the longest control leg
	leg := math.Max(start.Dist(s.c1), math.Max(s.c1.Dist(s.c2), s.c2.Dist(s.to)))
	n := int(math.Ceil(3 * leg / flatTolerance))
	if n < 1 {
		n = 1
	}
	for i := 1; i <= n; i++ {
		dst = append(dst, s.at(start, float64(i)/float64(n)))
	}
	return dst
}

// Path is a continuous sequence of line and cubic segments.
type Path struct {
	start Point
	segs  []segment
}

// NewPath starts a path at p.
func NewPath(p Point) *Path {
	return &Path{start: p}
}

func (p *Path) current() Point {
	if len(p.segs) == 0 {
		return p.start
	}
	return p.segs[len(p.segs)-1].end()
}

// LineTo adds a straight segment.
func (p *Path) LineTo(to Point) *Path {
	p.segs = append(p.segs, lineTo{to: to})
	return p
}

// CubicTo adds a cubic Bézier segment.
func (p *Path) CubicTo(c1, c2, to Point) *Path {
	p.segs = append(p.segs, cubicTo{c1: c1, c2: c2, to: to})
	return p
}

// Flatten returns the path as a polyline.
func (p *Path) Flatten() []Point {
	out := []Point{p.start}
	cur := p.start
	for _, s := range p.segs {
		out = s.flatten(cur, out)
		cur = s.end()
	}
	return out
}

// Length is the arc length of a polyline.
func Length(poly []Point) float64 {
	var l float64
	for i := 1; i < len(poly); i++ {
		l += poly[i-1].Dist(poly[i])
	}
	return l
}

// Resample walks poly and returns floor(length) points at arc distances
// 0, 1, 2, … together with the polyline length.
func Resample(poly []Point) ([]Point, float64) {
	total := Length(poly)
	n := int(math.Floor(total))
	if n == 0 || len(poly) == 0 {
		return nil, total
	}

	out := make([]Point, 0, n)
	seg := 0
	walked := 0.0 // arc length at poly[seg]
	for i := 0; i < n; i++ {
		d := float64(i)
		for seg < len(poly)-2 && walked+poly[seg].Dist(poly[seg+1]) < d {
			walked += poly[seg].Dist(poly[seg+1])
			seg++
		}
		l := poly[seg].Dist(poly[seg+1])
		t := 0.0
		if l > 0 {
			t = math.Min(1, (d-walked)/l)
		}
		out = append(out, poly[seg].Lerp(poly[seg+1], t))
	}
	return out, total
}
