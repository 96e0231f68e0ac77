/*
Package srv implements the square root velocity (SRV) representation of
discrete curves and the elastic metric it induces.

For a curve c with n sampling points, the SRV representation is the sequence
of n-1 vectors

	q_i = v_i / sqrt(|v_i|),    v_i = (n-1) · log(c_(i+1), c_i) ,

where log is the logarithm map of the ambient metric. The SRV metric is the
pullback of the flat L² metric through this transform. Together with the
starting point, q determines the curve; inverting the transform, as well as
exponential and logarithm maps, geodesics and distances, are implemented for
flat ambient metrics only.

References

	A. Srivastava, E. Klassen, S. H. Joshi and I. H. Jermyn,
	"Shape Analysis of Elastic Curves in Euclidean Spaces",
	IEEE Transactions on Pattern Analysis and Machine Intelligence,
	vol. 33, no. 7, pp. 1415-1428, July 2011.

# BSD License

# Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package srv

import (
	"fmt"
	"math"

	"github.com/npillmayer/elastic"
	"github.com/npillmayer/elastic/ambient"
	"github.com/npillmayer/schuko/tracing"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// tracer writes to trace with key 'elastic'
func tracer() tracing.Trace {
	return tracing.Select("elastic")
}

// ToSRV computes the square root velocity representation of a curve.
// The result has one row less than the curve.
//
// Velocities are computed with the logarithm map of m, so ToSRV works for
// curves on any ambient manifold. A segment of zero speed makes the
// transform undefined and results in ErrDegenerateCurve.
func ToSRV(m ambient.Metric, curve mat.Matrix) (*mat.Dense, error) {
	if elastic.IsNil(curve) {
		return nil, fmt.Errorf("%w: curve is nil", ErrInvalidInput)
	}
	n, _ := curve.Dims()
	if n < 2 {
		return nil, fmt.Errorf("%w: curve needs at least 2 sampling points, has %d", ErrInvalidInput, n)
	}
	return srvOfStack(m, curve, n)
}

// ToSRVBatch computes the SRV representations of all curves of a batch.
// The returned matrices are views into one contiguous result.
func ToSRVBatch(m ambient.Metric, batch elastic.Batch) ([]*mat.Dense, error) {
	if batch.Len() == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidInput)
	}
	if batch.N < 2 {
		return nil, fmt.Errorf("%w: curves need at least 2 sampling points, have %d", ErrInvalidInput, batch.N)
	}
	stacked, err := srvOfStack(m, batch.Stack, batch.N)
	if err != nil {
		return nil, err
	}
	_, dim := stacked.Dims()
	srvs := make([]*mat.Dense, batch.Len())
	for k := range srvs {
		srvs[k] = stacked.Slice(k*(batch.N-1), (k+1)*(batch.N-1), 0, dim).(*mat.Dense)
	}
	return srvs, nil
}

// srvOfStack transforms curves of n points each, stacked row-wise. Velocities
// are taken between all consecutive rows of the stack; the ones reaching from
// the last point of a curve to the first point of the next curve are masked out.
func srvOfStack(m ambient.Metric, stack mat.Matrix, n int) (*mat.Dense, error) {
	rows, dim := stack.Dims()
	k := rows / n
	srv := mat.NewDense(k*(n-1), dim, nil)
	coef := float64(n - 1)
	at := 0
	for i := 0; i < rows-1; i++ {
		if (i+1)%n == 0 { // batch boundary
			continue
		}
		base := elastic.Row(stack, i)
		velocity := m.Log(elastic.Row(stack, i+1), base)
		floats.Scale(coef, velocity)
		speed := m.Norm(velocity, base)
		if !(speed > 0) || math.IsInf(speed, 0) {
			tracer().Errorf("curve %d has speed %g at segment %d", i/n, speed, i%n)
			return nil, fmt.Errorf("%w: curve %d has speed %g at segment %d",
				ErrDegenerateCurve, i/n, speed, i%n)
		}
		floats.Scale(1/math.Sqrt(speed), velocity)
		srv.SetRow(at, velocity)
		at++
	}
	return srv, nil
}

// FromSRV retrieves a curve from its SRV representation and its starting
// point. Implemented for flat ambient metrics only.
func FromSRV(m ambient.Metric, srv mat.Matrix, start []float64) (*mat.Dense, error) {
	if _, ok := ambient.AsFlat(m); !ok {
		return nil, fmt.Errorf("%w: SRV inverse needs a flat ambient metric", ErrUnsupportedGeometry)
	}
	if elastic.IsNil(srv) {
		return nil, fmt.Errorf("%w: SRV representation is nil", ErrInvalidInput)
	}
	r, dim := srv.Dims()
	if len(start) != dim {
		return nil, fmt.Errorf("%w: starting point has dimension %d, SRV has %d", ErrInvalidInput, len(start), dim)
	}
	curve := mat.NewDense(r+1, dim, nil)
	curve.SetRow(0, start)
	point := append([]float64(nil), start...)
	for i := 0; i < r; i++ {
		q := elastic.Row(srv, i)
		floats.AddScaled(point, m.Norm(q, nil)/float64(r), q)
		curve.SetRow(i+1, point)
	}
	return curve, nil
}

// Differential computes the differential of the SRV transform at curve,
// applied to the tangent vector field tangent. The result has one row less
// than the curve. Implemented for flat ambient metrics only.
//
// With v the discrete velocity of the curve and dv the one of the tangent
// field, the differential is (dv - ½·⟨dv,u⟩u) / sqrt(|v|), u = v/|v|.
func Differential(m ambient.Metric, tangent, curve mat.Matrix) (*mat.Dense, error) {
	if _, ok := ambient.AsFlat(m); !ok {
		return nil, fmt.Errorf("%w: SRV differential needs a flat ambient metric", ErrUnsupportedGeometry)
	}
	n, dim, err := sameShape(tangent, curve)
	if err != nil {
		return nil, err
	}
	coef := float64(n)
	dsrv := mat.NewDense(n-1, dim, nil)
	for i := 0; i < n-1; i++ {
		dv := diffRow(tangent, i, coef)
		v := diffRow(curve, i, coef)
		speed := m.Norm(v, nil)
		if !(speed > 0) {
			return nil, fmt.Errorf("%w: zero speed at segment %d", ErrDegenerateCurve, i)
		}
		floats.Scale(1/speed, v) // unit velocity
		floats.AddScaled(dv, -0.5*m.InnerProduct(dv, v, nil), v)
		floats.Scale(1/math.Sqrt(speed), dv)
		dsrv.SetRow(i, dv)
	}
	return dsrv, nil
}

// diffRow returns coef·(m[i+1] - m[i]).
func diffRow(m mat.Matrix, i int, coef float64) []float64 {
	d := elastic.Row(m, i+1)
	floats.Sub(d, elastic.Row(m, i))
	floats.Scale(coef, d)
	return d
}

// sameShape checks that a and b are non-nil curves of identical shape with at
// least two sampling points.
func sameShape(a, b mat.Matrix) (int, int, error) {
	if elastic.IsNil(a) || elastic.IsNil(b) {
		return 0, 0, fmt.Errorf("%w: missing curve", ErrInvalidInput)
	}
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ra != rb || ca != cb {
		return 0, 0, fmt.Errorf("%w: shapes %d×%d and %d×%d differ", ErrInvalidInput, ra, ca, rb, cb)
	}
	if ra < 2 {
		return 0, 0, fmt.Errorf("%w: curves need at least 2 sampling points, have %d", ErrInvalidInput, ra)
	}
	return ra, ca, nil
}
