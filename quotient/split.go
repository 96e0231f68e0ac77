/*
Package quotient implements the metric on shape space induced by the SRV
metric, i.e. the quotient of the space of parametrized curves by
reparametrizations.

Tangent vectors to the space of parametrized curves split into a vertical part,
tangent to the orbit of reparametrizations, and a horizontal part orthogonal to
it. Geodesics of the quotient metric are the projections of horizontal
geodesics, which Solver computes by iteratively matching the parametrization
of the end curve to the one of the initial curve.

References

	A. Le Brigant, M. Arnaudon and F. Barbaresco,
	"Optimal matching between curves in a manifold",
	International Conference on Geometric Science of Information,
	pp. 57-65, Springer, Cham, 2017.

# BSD License

# Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package quotient

import (
	"errors"
	"fmt"
	"math"

	"github.com/npillmayer/elastic"
	"github.com/npillmayer/elastic/srv"
	"github.com/npillmayer/schuko/tracing"
	"gonum.org/v1/gonum/mat"
)

// tracer writes to trace with key 'elastic'
func tracer() tracing.Trace {
	return tracing.Select("elastic")
}

// Constants of the elastic metric. The discretization of the vertical norm
// equation uses their ratio.
const (
	aParam      = 1.0
	bParam      = 0.5
	weightRatio = aParam / bParam
)

// Decomposition is a tangent vector field along a curve, split into its
// horizontal and vertical parts.
type Decomposition struct {
	Horizontal   *mat.Dense // tangent - Vertical
	Vertical     *mat.Dense // VerticalNorm[k] · unit tangent at point k
	VerticalNorm []float64  // zero at both end points
}

// Split decomposes tangent, a vector field along curve, into horizontal and
// vertical parts. Derivatives are taken as centered differences in
// embedding coordinates, so curve needs at least 3 sampling points.
//
// The vertical norm f solves the discretized second order equation
//
//	a_k·f_(k+1) + b_k·f_k + c_k·f_(k-1) = d_k
//
// at the interior points, with f = 0 at both ends.
func Split(m *srv.Metric, tangent, curve mat.Matrix) (Decomposition, error) {
	if m == nil || elastic.IsNil(tangent) || elastic.IsNil(curve) {
		return Decomposition{}, fmt.Errorf("%w: split needs a metric, a tangent vector and a curve", srv.ErrInvalidInput)
	}
	n, dim := curve.Dims()
	if r, c := tangent.Dims(); r != n || c != dim {
		return Decomposition{}, fmt.Errorf("%w: tangent vector is %d×%d, curve is %d×%d",
			srv.ErrInvalidInput, r, c, n, dim)
	}
	if n < 3 {
		return Decomposition{}, fmt.Errorf("%w: split needs at least 3 sampling points, have %d",
			srv.ErrInvalidInput, n)
	}
	c, v := mat.DenseCopyOf(curve), mat.DenseCopyOf(tangent)
	position := c.Slice(1, n-1, 0, dim)
	dPos, d2Pos := differences(c)
	dVec, d2Vec := differences(v)
	ip := func(x, y mat.Matrix) []float64 {
		return m.PointwiseInnerProduct(x, y, position)
	}
	sq := ip(dPos, dPos)
	d2dPos := ip(d2Pos, dPos)
	d2d2Pos := ip(d2Pos, d2Pos)
	d2VecdPos := ip(d2Vec, dPos)
	dVecd2Pos := ip(dVec, d2Pos)
	dVecdPos := ip(dVec, dPos)

	q2 := weightRatio * weightRatio
	inner := n - 2
	a := make([]float64, inner)
	b := make([]float64, inner)
	cc := make([]float64, inner)
	d := make([]float64, inner)
	for k := 0; k < inner; k++ {
		if !(sq[k] > 0) {
			return Decomposition{}, fmt.Errorf("%w: zero velocity at point %d", srv.ErrDegenerateCurve, k+1)
		}
		a[k] = sq[k] - d2dPos[k]/2
		b[k] = -2*sq[k] - q2*(d2d2Pos[k]-d2dPos[k]*d2dPos[k]/sq[k])
		cc[k] = sq[k] + d2dPos[k]/2
		d[k] = math.Sqrt(sq[k]) * (d2VecdPos[k] - (q2-1)*dVecd2Pos[k] +
			(q2-2)*d2dPos[k]*dVecdPos[k]/sq[k])
	}
	f, err := solveTridiagonal(a, b, cc, d)
	if err != nil {
		return Decomposition{}, err
	}

	dec := Decomposition{
		Vertical:     mat.NewDense(n, dim, nil),
		VerticalNorm: make([]float64, n),
	}
	copy(dec.VerticalNorm[1:n-1], f)
	for k := 1; k < n-1; k++ {
		unit := elastic.Row(dPos, k-1)
		norm := math.Sqrt(sq[k-1])
		for j := range unit {
			unit[j] *= f[k-1] / norm
		}
		dec.Vertical.SetRow(k, unit)
	}
	dec.Horizontal = mat.NewDense(n, dim, nil)
	dec.Horizontal.Sub(v, dec.Vertical)
	return dec, nil
}

// differences returns the centered first and second differences of the
// interior rows of m.
func differences(m *mat.Dense) (*mat.Dense, *mat.Dense) {
	n, dim := m.Dims()
	next, prev, mid := m.Slice(2, n, 0, dim), m.Slice(0, n-2, 0, dim), m.Slice(1, n-1, 0, dim)
	var d1, d2 mat.Dense
	d1.Sub(next, prev)
	d1.Scale(0.5, &d1)
	d2.Add(next, prev)
	var twice mat.Dense
	twice.Scale(2, mid)
	d2.Sub(&d2, &twice)
	return &d1, &d2
}

// solveTridiagonal solves the system with super-diagonal a[:len-1],
// diagonal b and sub-diagonal c[1:], i.e. row k reads
// c[k]·x[k-1] + b[k]·x[k] + a[k]·x[k+1] = d[k].
func solveTridiagonal(a, b, c, d []float64) ([]float64, error) {
	n := len(b)
	sys := mat.NewDense(n, n, nil)
	for k := 0; k < n; k++ {
		sys.Set(k, k, b[k])
		if k+1 < n {
			sys.Set(k, k+1, a[k])
			sys.Set(k+1, k, c[k+1])
		}
	}
	var x mat.VecDense
	err := x.SolveVec(sys, mat.NewVecDense(n, append([]float64(nil), d...)))
	var cond mat.Condition
	if errors.As(err, &cond) {
		tracer().Debugf("vertical norm system is ill-conditioned: %v", err)
	} else if err != nil {
		return nil, fmt.Errorf("%w: vertical norm system: %v", srv.ErrDegenerateCurve, err)
	}
	f := make([]float64, n)
	for k := range f {
		f[k] = x.AtVec(k)
	}
	return f, nil
}
