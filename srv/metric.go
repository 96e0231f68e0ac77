package srv

import (
	"fmt"
	"math"

	"github.com/npillmayer/elastic"
	"github.com/npillmayer/elastic/ambient"
	"github.com/npillmayer/elastic/landmarks"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Metric is the elastic metric on discrete curves, defined as the pullback
// of the L² metric by the SRV transform.
type Metric struct {
	ambient ambient.Metric
	tol     elastic.Tolerance
}

// Option configures a Metric.
type Option func(*Metric)

// WithTolerance sets the tolerances for consistency checks.
// Default is elastic.DefaultTolerance().
func WithTolerance(tol elastic.Tolerance) Option {
	return func(m *Metric) {
		m.tol = tol
	}
}

// NewMetric creates the SRV metric for curves in an ambient manifold with metric m.
func NewMetric(m ambient.Metric, opts ...Option) *Metric {
	metric := &Metric{ambient: m, tol: elastic.DefaultTolerance()}
	for _, opt := range opts {
		opt(metric)
	}
	return metric
}

// Ambient returns the metric of the ambient manifold.
func (m *Metric) Ambient() ambient.Metric {
	return m.ambient
}

// Tolerance returns the tolerances m has been configured with.
func (m *Metric) Tolerance() elastic.Tolerance {
	return m.tol
}

// Space returns the space of discrete curves in m's ambient manifold.
func (m *Metric) Space() Curves {
	return Curves{Ambient: m.ambient}
}

func (m *Metric) flat(op string) (ambient.FlatMetric, error) {
	f, ok := ambient.AsFlat(m.ambient)
	if !ok {
		return nil, fmt.Errorf("%w: %s is implemented for flat ambient metrics only", ErrUnsupportedGeometry, op)
	}
	return f, nil
}

// ToSRV computes the SRV representation of curve. See package function ToSRV.
func (m *Metric) ToSRV(curve mat.Matrix) (*mat.Dense, error) {
	return ToSRV(m.ambient, curve)
}

// FromSRV inverts the SRV transform. See package function FromSRV.
func (m *Metric) FromSRV(srv mat.Matrix, start []float64) (*mat.Dense, error) {
	return FromSRV(m.ambient, srv, start)
}

// PointwiseInnerProduct returns the ambient inner products of u and v at
// every sampling point of curve.
func (m *Metric) PointwiseInnerProduct(u, v, curve mat.Matrix) []float64 {
	return ambient.InnerProductRows(m.ambient, u, v, curve)
}

// PointwiseNorm returns the ambient norms of v at every sampling point of curve.
func (m *Metric) PointwiseNorm(v, curve mat.Matrix) []float64 {
	sq := m.PointwiseInnerProduct(v, v, curve)
	for i, x := range sq {
		sq[i] = math.Sqrt(x)
	}
	return sq
}

// InnerProduct computes the SRV inner product of two tangent vector fields
// along curve:
//
//	⟨ dSRV(u), dSRV(v) ⟩_L² / n .
func (m *Metric) InnerProduct(u, v, curve mat.Matrix) (float64, error) {
	if _, err := m.flat("SRV inner product"); err != nil {
		return 0, err
	}
	if _, _, err := sameShape(u, curve); err != nil {
		return 0, err
	}
	du, err := Differential(m.ambient, u, curve)
	if err != nil {
		return 0, err
	}
	dv, err := Differential(m.ambient, v, curve)
	if err != nil {
		return 0, err
	}
	n, _ := curve.Dims()
	ip, err := landmarks.NewL2Metric(m.ambient, n-1).InnerProduct(du, dv, nil)
	if err != nil {
		return 0, err
	}
	return ip / float64(n), nil
}

// Norm is the SRV norm of a tangent vector field along curve.
func (m *Metric) Norm(v, curve mat.Matrix) (float64, error) {
	sq, err := m.InnerProduct(v, v, curve)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(sq), nil
}

// SRVInnerProduct is the L² inner product of two SRV representations,
// normalized by their number of rows.
func (m *Metric) SRVInnerProduct(q1, q2 mat.Matrix) (float64, error) {
	r, c := q1.Dims()
	if r2, c2 := q2.Dims(); r2 != r || c2 != c {
		return 0, fmt.Errorf("%w: SRV shapes %d×%d and %d×%d differ", ErrInvalidInput, r, c, r2, c2)
	}
	ip, err := landmarks.NewL2Metric(m.ambient, r).InnerProduct(q1, q2, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return ip / float64(r), nil
}

// SRVNorm is the L² norm of an SRV representation. See SRVInnerProduct.
func (m *Metric) SRVNorm(q mat.Matrix) float64 {
	sq, _ := m.SRVInnerProduct(q, q) // shapes always match
	return math.Sqrt(sq)
}

// Exp computes the Riemannian exponential of a tangent vector field at a base
// curve. Implemented for flat ambient metrics only.
//
// The tangent vector is pushed forward to the SRV space in closed form, the
// flat L² exponential is taken there, and the result is mapped back to a
// curve starting at the ambient exponential of the tangent's first vector.
func (m *Metric) Exp(tangent, base mat.Matrix) (*mat.Dense, error) {
	flat, err := m.flat("exponential map")
	if err != nil {
		return nil, err
	}
	n, dim, err := sameShape(tangent, base)
	if err != nil {
		return nil, err
	}
	baseSRV, err := ToSRV(flat, base)
	if err != nil {
		return nil, err
	}
	coef := float64(n - 1)
	deriv := mat.NewDense(n-1, dim, nil)
	for i := 0; i < n-1; i++ {
		dv := diffRow(tangent, i, coef)
		v := diffRow(base, i, coef)
		p := elastic.Row(base, i)
		speed := flat.Norm(v, p)
		ip := flat.InnerProduct(dv, v, p)
		floats.Scale(1/math.Sqrt(speed), dv)
		floats.AddScaled(dv, -ip/(2*math.Pow(speed, 2.5)), v)
		deriv.SetRow(i, dv)
	}
	endSRV, err := landmarks.NewL2Metric(flat, n-1).Exp(deriv, baseSRV)
	if err != nil {
		return nil, err
	}
	start := flat.Exp(elastic.Row(tangent, 0), elastic.Row(base, 0))
	return FromSRV(flat, endSRV, start)
}

// Log computes the Riemannian logarithm of a curve with respect to a base
// curve. Implemented for flat ambient metrics only.
//
// The difference of SRV representations is pulled back pointwise and
// integrated along the curve, starting from the ambient logarithm of the
// starting points.
func (m *Metric) Log(point, base mat.Matrix) (*mat.Dense, error) {
	flat, err := m.flat("logarithm map")
	if err != nil {
		return nil, err
	}
	n, dim, err := sameShape(point, base)
	if err != nil {
		return nil, err
	}
	pointSRV, err := ToSRV(flat, point)
	if err != nil {
		return nil, err
	}
	baseSRV, err := ToSRV(flat, base)
	if err != nil {
		return nil, err
	}
	var delta mat.Dense
	delta.Sub(pointSRV, baseSRV)
	coef := float64(n - 1)
	log := mat.NewDense(n, dim, nil)
	acc := flat.Log(elastic.Row(point, 0), elastic.Row(base, 0))
	log.SetRow(0, acc)
	for i := 0; i < n-1; i++ {
		d := elastic.Row(&delta, i)
		v := diffRow(base, i, coef)
		p := elastic.Row(base, i)
		speed := flat.Norm(v, p)
		ip := flat.InnerProduct(d, v, p)
		floats.Scale(math.Sqrt(speed), d)
		floats.AddScaled(d, ip/math.Pow(speed, 1.5), v)
		floats.AddScaled(acc, 1/coef, d)
		log.SetRow(i+1, acc)
	}
	return log, nil
}

// Dist is the geodesic distance between two curves of equal shape:
//
//	sqrt( dist(a_0, b_0)² + |SRV(a) - SRV(b)|²_L² ) .
func (m *Metric) Dist(a, b mat.Matrix) (float64, error) {
	flat, err := m.flat("distance")
	if err != nil {
		return 0, err
	}
	n, _, err := sameShape(a, b)
	if err != nil {
		return 0, err
	}
	srvA, err := ToSRV(flat, a)
	if err != nil {
		return 0, err
	}
	srvB, err := ToSRV(flat, b)
	if err != nil {
		return 0, err
	}
	dStart := flat.Dist(elastic.Row(a, 0), elastic.Row(b, 0))
	dSRV, err := landmarks.NewL2Metric(flat, n-1).Dist(srvA, srvB)
	if err != nil {
		return 0, err
	}
	return math.Hypot(dStart, dSRV), nil
}

// SpaceDerivative approximates the derivative of a curve with respect to its
// parameter, n·D·curve, where D takes one-sided differences at the two end
// points and central differences in between.
func (m *Metric) SpaceDerivative(curve mat.Matrix) (*mat.Dense, error) {
	return SpaceDerivative(curve)
}

// SpaceDerivative is the package level version of Metric.SpaceDerivative; the
// difference operator does not depend on the ambient metric.
func SpaceDerivative(curve mat.Matrix) (*mat.Dense, error) {
	if elastic.IsNil(curve) {
		return nil, fmt.Errorf("%w: curve is nil", ErrInvalidInput)
	}
	n, _ := curve.Dims()
	if n < 2 {
		return nil, fmt.Errorf("%w: curve needs at least 2 sampling points, has %d", ErrInvalidInput, n)
	}
	diff := mat.NewDense(n, n, nil)
	diff.Set(0, 0, -1)
	diff.Set(0, 1, 1)
	for i := 1; i < n-1; i++ {
		diff.Set(i, i-1, -0.5)
		diff.Set(i, i+1, 0.5)
	}
	diff.Set(n-1, n-2, -1)
	diff.Set(n-1, n-1, 1)
	var deriv mat.Dense
	deriv.Mul(diff, curve)
	deriv.Scale(float64(n), &deriv)
	return &deriv, nil
}
