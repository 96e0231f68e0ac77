/*
Package closed projects discrete planar curves onto the space of closed curves.

A curve with SRV representation q is closed if

	G(q) = Σ q_i·|q_i| = 0 ,

as the curve's end point is its starting point plus G(q)/len(q). The Projector
moves q to the nearest representation satisfying this constraint by a
Newton-type iteration on the constraint surface, keeping the SRV norm of q
unchanged. Projection is implemented for curves in the Euclidean plane only.

Non-convergence is not an error: after the maximum number of iterations the
best available projection is returned and Result.Converged is false.

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
package closed

import (
	"errors"
	"fmt"
	"math"

	"github.com/npillmayer/elastic"
	"github.com/npillmayer/elastic/ambient"
	"github.com/npillmayer/elastic/srv"
	"github.com/npillmayer/schuko/tracing"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// tracer writes to trace with key 'elastic'
func tracer() tracing.Trace {
	return tracing.Select("elastic")
}

// DefaultMaxIter is the iteration cap used if Options.MaxIter is not set.
const DefaultMaxIter = 1000

// Options configures a Projector. Zero values select defaults: Atol falls back
// to the absolute tolerance of the SRV metric, MaxIter to DefaultMaxIter.
type Options struct {
	Atol    float64 // stop when |G(q)| < Atol
	MaxIter int     // stop after MaxIter iterations
}

// Result reports on a projection.
type Result struct {
	Iterations int     // number of Newton steps performed
	Residual   float64 // |G(q)| of the returned projection
	Converged  bool    // Residual < Atol
}

// Projector projects SRV representations of planar curves onto the SRV
// representations of closed curves.
type Projector struct {
	metric *srv.Metric
	opts   Options
}

// NewProjector creates a projector for the SRV metric m. The ambient metric
// of m has to be the flat metric of the plane, otherwise
// srv.ErrUnsupportedGeometry is returned.
func NewProjector(m *srv.Metric, opts Options) (*Projector, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: projector needs an SRV metric", srv.ErrInvalidInput)
	}
	if !ambient.IsPlanar(m.Ambient()) {
		return nil, fmt.Errorf("%w: closed curve projection is implemented for curves in the Euclidean plane only",
			srv.ErrUnsupportedGeometry)
	}
	if opts.Atol <= 0 {
		opts.Atol = m.Tolerance().Atol
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultMaxIter
	}
	return &Projector{metric: m, opts: opts}, nil
}

// Options returns the effective options of p, with defaults filled in.
func (p *Projector) Options() Options {
	return p.opts
}

// Residual computes the closure residual G(q) = Σ q_i·|q_i| of a planar SRV
// representation q. q must have 2 columns.
func Residual(q mat.Matrix) elastic.Pair {
	r, _ := q.Dims()
	var g elastic.Pair
	for i := 0; i < r; i++ {
		qi := elastic.P(q.At(i, 0), q.At(i, 1))
		g += qi.Scaled(qi.Abs())
	}
	return g
}

// Project computes the SRV representation of curve, projects it and maps the
// projection back to a curve with the same starting point as curve.
func (p *Projector) Project(curve mat.Matrix) (*mat.Dense, Result, error) {
	q, err := p.metric.ToSRV(curve)
	if err != nil {
		return nil, Result{}, err
	}
	proj, result, err := p.ProjectSRV(q)
	if err != nil {
		return nil, result, err
	}
	closedCurve, err := p.metric.FromSRV(proj, elastic.Row(curve, 0))
	return closedCurve, result, err
}

// ProjectSRV projects an SRV representation onto the representations of
// closed curves. The argument is unchanged.
//
// Every iteration solves a 2×2 linear system J·β = G(q), where
//
//	J_kl = 3·⟨q_·k, q_·l⟩ + |q|²_SRV · δ_kl ,
//
// then steps along an SRV-orthonormal basis of the gradients of the two
// components of G and rescales q to its initial SRV norm.
func (p *Projector) ProjectSRV(q mat.Matrix) (*mat.Dense, Result, error) {
	if elastic.IsNil(q) {
		return nil, Result{}, fmt.Errorf("%w: SRV representation is nil", srv.ErrInvalidInput)
	}
	r, c := q.Dims()
	if c != 2 || r < 2 {
		return nil, Result{}, fmt.Errorf("%w: planar SRV representation with at least 2 rows expected, have %d×%d",
			srv.ErrInvalidInput, r, c)
	}
	proj := mat.DenseCopyOf(q)
	if err := checkRows(proj); err != nil {
		return nil, Result{}, err
	}
	initialNorm := p.metric.SRVNorm(proj)
	g := Residual(proj)
	result := Result{Residual: g.Abs()}
	for result.Residual >= p.opts.Atol && result.Iterations < p.opts.MaxIter {
		beta, err := p.newtonStep(proj, g)
		if err != nil {
			return proj, result, err
		}
		basis, err := p.tangentBasis(proj)
		if err != nil {
			return proj, result, err
		}
		for k, b := range basis {
			proj.Sub(proj, scaled(beta.AtVec(k), b))
		}
		proj.Scale(initialNorm/p.metric.SRVNorm(proj), proj)
		if err := checkRows(proj); err != nil {
			return proj, result, err
		}
		g = Residual(proj)
		result.Residual = g.Abs()
		result.Iterations++
		tracer().Debugf("closure step %d: residual = %g", result.Iterations, result.Residual)
	}
	result.Converged = result.Residual < p.opts.Atol
	if result.Converged {
		tracer().Infof("closed curve projection converged after %d iterations, residual %g",
			result.Iterations, result.Residual)
	} else {
		tracer().Infof("closed curve projection stopped after %d iterations, residual %g >= %g",
			result.Iterations, result.Residual, p.opts.Atol)
	}
	return proj, result, nil
}

// newtonStep solves J·β = G(q).
func (p *Projector) newtonStep(proj *mat.Dense, g elastic.Pair) (*mat.VecDense, error) {
	const dim = 2
	upper := make([]float64, 0, dim*(dim+1)/2)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			upper = append(upper, 3*floats.Dot(mat.Col(nil, i, proj), mat.Col(nil, j, proj)))
		}
	}
	jac := symFromUpper(dim, upper)
	sq := p.metric.SRVNorm(proj)
	sq *= sq
	for i := 0; i < dim; i++ {
		jac.SetSym(i, i, jac.At(i, i)+sq)
	}
	var beta mat.VecDense
	err := beta.SolveVec(jac, mat.NewVecDense(dim, []float64{g.X(), g.Y()}))
	var cond mat.Condition
	if errors.As(err, &cond) {
		tracer().Debugf("closure jacobian is ill-conditioned: %v", err)
	} else if err != nil {
		return nil, fmt.Errorf("%w: closure jacobian: %v", srv.ErrDegenerateCurve, err)
	}
	return &beta, nil
}

// tangentBasis returns the gradients of both components of G at proj,
// orthonormalized by Gram-Schmidt with respect to the SRV inner product.
func (p *Projector) tangentBasis(proj *mat.Dense) ([]*mat.Dense, error) {
	basis := []*mat.Dense{gradient(proj, 0), gradient(proj, 1)}
	for k, b := range basis {
		for _, prev := range basis[:k] {
			c, err := p.metric.SRVInnerProduct(b, prev)
			if err != nil {
				return nil, err
			}
			b.Sub(b, scaled(c, prev))
		}
		norm := p.metric.SRVNorm(b)
		if !(norm > 0) {
			return nil, fmt.Errorf("%w: closure gradients are linearly dependent", srv.ErrDegenerateCurve)
		}
		b.Scale(1/norm, b)
	}
	return basis, nil
}

// gradient of the k-th component of G: row i is |q_i|·e_k + (q_ik/|q_i|)·q_i.
func gradient(q *mat.Dense, k int) *mat.Dense {
	r, c := q.Dims()
	grad := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		qi := elastic.Row(q, i)
		norm := floats.Norm(qi, 2)
		floats.Scale(qi[k]/norm, qi)
		qi[k] += norm
		grad.SetRow(i, qi)
	}
	return grad
}

// symFromUpper builds a symmetric dim×dim matrix from its upper triangular
// values, given row by row.
func symFromUpper(dim int, upper []float64) *mat.SymDense {
	sym := mat.NewSymDense(dim, nil)
	at := 0
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			sym.SetSym(i, j, upper[at])
			at++
		}
	}
	return sym
}

// checkRows guards against vanishing SRV vectors, which make G non-smooth.
func checkRows(q *mat.Dense) error {
	r, _ := q.Dims()
	for i := 0; i < r; i++ {
		if n := floats.Norm(elastic.Row(q, i), 2); !(n > 0) || math.IsInf(n, 0) {
			return fmt.Errorf("%w: SRV vector %d has norm %g", srv.ErrDegenerateCurve, i, n)
		}
	}
	return nil
}

func scaled(a float64, m mat.Matrix) *mat.Dense {
	var s mat.Dense
	s.Scale(a, m)
	return &s
}
