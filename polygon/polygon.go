/*
Package polygon measures closed planar curves as polygons.

A closed discrete curve in the plane is a polygon with the curve's sampling
points as vertices. Polygons may consist of several contours; contours nested
inside an odd number of other contours are holes. Boolean operations are
delegated to polyclip-go, an implementation of the Martinez-Rueda-Feito
polygon clipping algorithm.

# BSD License

# Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package polygon

import (
	"errors"
	"fmt"
	"math"
	"strings"

	polyclip "github.com/akavel/polyclip-go"
	"github.com/npillmayer/elastic"
	"github.com/npillmayer/schuko/tracing"
	"gonum.org/v1/gonum/mat"
)

// tracer writes to trace with key 'elastic'
func tracer() tracing.Trace {
	return tracing.Select("elastic")
}

// ErrTooFewVertices indicates a contour with less than 3 distinct vertices.
var ErrTooFewVertices = errors.New("polygon contour needs at least 3 vertices")

// Polygon is a set of closed contours in the plane.
type Polygon struct {
	contours polyclip.Polygon
	open     polyclip.Contour // contour under construction
}

// NullPolygon creates an empty polygon. Contours are built by adding knots
// and closing them with Cycle:
//
//	NullPolygon().Knot(P(0,0)).Knot(P(1,3)).Knot(P(3,0)).Cycle()
func NullPolygon() *Polygon {
	return &Polygon{}
}

// Knot adds a vertex to the contour under construction.
func (pg *Polygon) Knot(p elastic.Pair) *Polygon {
	pg.open.Add(point(p))
	return pg
}

// Cycle closes the contour under construction.
func (pg *Polygon) Cycle() *Polygon {
	if len(pg.open) > 0 {
		pg.contours.Add(pg.open)
		pg.open = nil
	}
	return pg
}

// Box creates a rectangular polygon from two opposite corners.
func Box(a, b elastic.Pair) *Polygon {
	ll := elastic.P(math.Min(a.X(), b.X()), math.Min(a.Y(), b.Y()))
	ur := elastic.P(math.Max(a.X(), b.X()), math.Max(a.Y(), b.Y()))
	return NullPolygon().Knot(ll).Knot(elastic.P(ur.X(), ll.Y())).
		Knot(ur).Knot(elastic.P(ll.X(), ur.Y())).Cycle()
}

// FromCurve creates a single-contour polygon from a closed planar curve. If
// the last point of the curve repeats its first point within tol, it is
// dropped.
func FromCurve(curve mat.Matrix, tol elastic.Tolerance) (*Polygon, error) {
	pairs, err := elastic.Pairs(curve)
	if err != nil {
		return nil, err
	}
	if n := len(pairs); n > 1 && pairs[0].Equal(pairs[n-1], tol) {
		pairs = pairs[:n-1]
	}
	if len(pairs) < 3 {
		return nil, fmt.Errorf("%w: have %d", ErrTooFewVertices, len(pairs))
	}
	pg := NullPolygon()
	for _, p := range pairs {
		pg.Knot(p)
	}
	return pg.Cycle(), nil
}

// N is the number of vertices of all closed contours.
func (pg *Polygon) N() int {
	return pg.contours.NumVertices()
}

// Contours returns the number of closed contours.
func (pg *Polygon) Contours() int {
	return len(pg.contours)
}

// BoundingBox returns the lower left and upper right corners of the smallest
// axis-aligned rectangle containing pg.
func (pg *Polygon) BoundingBox() (elastic.Pair, elastic.Pair) {
	if pg.N() == 0 {
		return elastic.Origin, elastic.Origin
	}
	r := pg.contours.BoundingBox()
	return pair(r.Min), pair(r.Max)
}

// Contains is a predicate: is p inside pg, following the even-odd rule?
func (pg *Polygon) Contains(p elastic.Pair) bool {
	inside := false
	for _, c := range pg.contours {
		if c.Contains(point(p)) {
			inside = !inside
		}
	}
	return inside
}

// Area is the area enclosed by pg. Contours lying inside an odd number of
// other contours are holes and subtract from the area.
func (pg *Polygon) Area() float64 {
	var area float64
	for i, c := range pg.contours {
		a := math.Abs(SignedArea(c))
		if pg.isHole(i) {
			area -= a
		} else {
			area += a
		}
	}
	return area
}

func (pg *Polygon) isHole(i int) bool {
	if len(pg.contours[i]) == 0 {
		return false
	}
	v := pg.contours[i][0]
	depth := 0
	for j, c := range pg.contours {
		if j != i && c.Contains(v) {
			depth++
		}
	}
	return depth%2 == 1
}

// SignedArea is the area of a contour by the shoelace formula, positive for
// counter-clockwise orientation.
func SignedArea(c polyclip.Contour) float64 {
	var sum float64
	for i, p := range c {
		q := c[(i+1)%len(c)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

// Intersection returns the polygon covered by both a and b.
func Intersection(a, b *Polygon) *Polygon {
	return &Polygon{contours: a.contours.Construct(polyclip.INTERSECTION, b.contours)}
}

// Union returns the polygon covered by a or b.
func Union(a, b *Polygon) *Polygon {
	return &Polygon{contours: a.contours.Construct(polyclip.UNION, b.contours)}
}

// Overlap is the ratio of the areas of intersection and union of a and b,
// between 0 for disjoint and 1 for identical polygons.
func Overlap(a, b *Polygon) float64 {
	union := Union(a, b).Area()
	if union <= 0 {
		return 0
	}
	inter := Intersection(a, b).Area()
	tracer().Debugf("overlap: intersection %g, union %g", inter, union)
	return inter / union
}

// AsString returns a polygon as a (debugging) string, one line per contour:
//
//	(0,0) -- (1,3) -- (3,0) -- cycle
func AsString(pg *Polygon) string {
	var b strings.Builder
	for i, c := range pg.contours {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, p := range c {
			fmt.Fprintf(&b, "(%.4g,%.4g) -- ", p.X, p.Y)
		}
		b.WriteString("cycle")
	}
	return b.String()
}

func point(p elastic.Pair) polyclip.Point {
	return polyclip.Point{X: p.X(), Y: p.Y()}
}

func pair(p polyclip.Point) elastic.Pair {
	return elastic.P(p.X, p.Y)
}
