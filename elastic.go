/*
Package elastic implements Riemannian geometry on spaces of discrete curves.

A discrete curve is a sequence of points sampled from an ambient manifold.
Curves are represented as gonum matrices with one row per sampling point.
The elastic metric on curve space is the pullback of the flat L² metric
through the square root velocity (SRV) transform. Sub-packages provide

  - ambient:   manifolds and metrics the curve points live in
  - landmarks: the product (L²) metric over indexed ambient points
  - srv:       the SRV transform, the SRV metric and the space of curves
  - closed:    projection onto closed curves
  - quotient:  horizontal/vertical splitting and horizontal geodesics
  - resample:  spline interpolants for resampling curves
  - polygon:   area and overlap measures for closed planar curves

This package holds the pieces shared by all of them: numeric tolerances,
planar pairs, affine transforms and curve constructors.

# BSD License

# Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package elastic

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'elastic'
func tracer() tracing.Trace {
	return tracing.Select("elastic")
}

// === Numeric Tolerances ====================================================

// Tolerance bundles the absolute and relative tolerances used when comparing
// numeric results. It is passed explicitly to every operation needing one.
type Tolerance struct {
	Atol float64 // absolute tolerance
	Rtol float64 // relative tolerance
}

// DefaultTolerance returns the tolerances used when clients do not set their own:
// Atol = 1e-12, Rtol = 1e-6.
func DefaultTolerance() Tolerance {
	return Tolerance{Atol: 1e-12, Rtol: 1e-6}
}

// Close is a predicate: |a - b| <= Atol + Rtol·|b| ?
func (tol Tolerance) Close(a, b float64) bool {
	return math.Abs(a-b) <= tol.Atol+tol.Rtol*math.Abs(b)
}

// Is0 is a predicate: is n = 0 within Atol?
func (tol Tolerance) Is0(n float64) bool {
	return math.Abs(n) <= tol.Atol
}

// === Pair Data Type ========================================================

// Pair is a point or vector in the plane.
type Pair complex128

// Origin represents the frequently used constant (0,0).
var Origin = P(0, 0)

// P is a quick notation for contructing a pair from floats.
func P(x, y float64) Pair {
	return Pair(complex(x, y))
}

// Pretty Stringer for simple pairs.
func (p Pair) String() string {
	return fmt.Sprintf("(%g,%g)", real(p), imag(p))
}

// C returns a Pair as a complex number.
func (p Pair) C() complex128 {
	return complex128(p)
}

// X is the x-part of a pair.
func (p Pair) X() float64 {
	return real(p)
}

// Y is the y-part of a pair.
func (p Pair) Y() float64 {
	return imag(p)
}

// Abs is the Euclidean length of p.
func (p Pair) Abs() float64 {
	return cmplx.Abs(p.C())
}

// Dot is the Euclidean inner product of p and q.
func (p Pair) Dot(q Pair) float64 {
	return p.X()*q.X() + p.Y()*q.Y()
}

// Scaled returns a new pair scaled by factor a.
func (p Pair) Scaled(a float64) Pair {
	return P(p.X()*a, p.Y()*a)
}

// Equal compares two pairs within the absolute tolerance of tol.
func (p Pair) Equal(q Pair, tol Tolerance) bool {
	return tol.Is0(p.X()-q.X()) && tol.Is0(p.Y()-q.Y())
}

// === Planar Motions ========================================================

// Motion is an orientation preserving similarity of the plane, p ↦ a·p + b,
// with a and b complex. Rigid motions of curves leave SRV distances unchanged.
type Motion struct {
	a, b complex128
}

// Translation moves every point by p.
func Translation(p Pair) Motion {
	return Motion{a: 1, b: p.C()}
}

// Rotation rotates counter-clockwise around the origin by theta radians.
func Rotation(theta float64) Motion {
	return Motion{a: cmplx.Rect(1, theta)}
}

// Transform moves a point. The argument is unchanged and a new pair is returned.
func (m Motion) Transform(p Pair) Pair {
	return Pair(m.a*p.C() + m.b)
}
