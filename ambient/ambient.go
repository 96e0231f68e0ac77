// Package ambient provides the manifolds discrete curves take their values in.
//
// Curve operations only need a handful of operations on single points of the
// ambient manifold: a metric with exponential and logarithm maps, norms and
// distances. Operations which rely on closed-form straight-line geometry
// require a FlatMetric; manifolds with curvature do not implement it.
//
// Batched evaluation works on matrices with one point (or vector) per row.
package ambient

import (
	"math/rand/v2"

	"github.com/npillmayer/elastic"
	"github.com/npillmayer/schuko/tracing"
	"gonum.org/v1/gonum/mat"
)

// tracer writes to trace with key 'elastic'
func tracer() tracing.Trace {
	return tracing.Select("elastic")
}

// Manifold is a finite dimensional manifold embedded in some R^n. Points and
// tangent vectors are given in embedding coordinates.
type Manifold interface {
	Dim() int          // intrinsic dimension
	EmbeddingDim() int // number of coordinates of a point
	Belongs(p []float64, atol float64) bool
	IsTangent(v, base []float64, atol float64) bool
	ToTangent(v, base []float64) []float64
	RandomPoint(rng *rand.Rand, bound float64) []float64
}

// Metric is a Riemannian metric on a manifold.
type Metric interface {
	Manifold
	InnerProduct(u, v, base []float64) float64
	Norm(v, base []float64) float64
	Exp(v, base []float64) []float64
	Log(p, base []float64) []float64
	Dist(a, b []float64) float64
}

// FlatMetric is implemented by metrics without curvature, for which
//
//	Exp(v, p) = p + v   and   Log(q, p) = q - p .
//
// Flat is a marker method without behaviour.
type FlatMetric interface {
	Metric
	Flat()
}

// AsFlat returns m as a FlatMetric, if it is one.
func AsFlat(m Metric) (FlatMetric, bool) {
	f, ok := m.(FlatMetric)
	return f, ok
}

// IsPlanar is a predicate: is m the flat metric of the plane?
func IsPlanar(m Metric) bool {
	_, flat := AsFlat(m)
	return flat && m.Dim() == 2
}

// === Batched evaluation ====================================================

// LogRows computes Log(points[i], bases[i]) for every row i.
func LogRows(m Metric, points, bases mat.Matrix) *mat.Dense {
	r, c := points.Dims()
	logs := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		logs.SetRow(i, m.Log(row(points, i), row(bases, i)))
	}
	return logs
}

// ExpRows computes Exp(vecs[i], bases[i]) for every row i.
func ExpRows(m Metric, vecs, bases mat.Matrix) *mat.Dense {
	r, c := vecs.Dims()
	exps := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		exps.SetRow(i, m.Exp(row(vecs, i), row(bases, i)))
	}
	return exps
}

// NormRows computes Norm(vecs[i], bases[i]) for every row i. bases may be nil
// for metrics not depending on base points.
func NormRows(m Metric, vecs, bases mat.Matrix) []float64 {
	r, _ := vecs.Dims()
	norms := make([]float64, r)
	for i := range norms {
		norms[i] = m.Norm(row(vecs, i), optRow(bases, i))
	}
	return norms
}

// InnerProductRows computes InnerProduct(u[i], v[i], bases[i]) for every row i.
// bases may be nil for metrics not depending on base points.
func InnerProductRows(m Metric, u, v, bases mat.Matrix) []float64 {
	r, _ := u.Dims()
	prods := make([]float64, r)
	for i := range prods {
		prods[i] = m.InnerProduct(row(u, i), row(v, i), optRow(bases, i))
	}
	return prods
}

// DistRows computes Dist(a[i], b[i]) for every row i.
func DistRows(m Metric, a, b mat.Matrix) []float64 {
	r, _ := a.Dims()
	dists := make([]float64, r)
	for i := range dists {
		dists[i] = m.Dist(row(a, i), row(b, i))
	}
	return dists
}

func row(m mat.Matrix, i int) []float64 {
	_, c := m.Dims()
	return mat.Row(make([]float64, c), i, m)
}

func optRow(m mat.Matrix, i int) []float64 {
	if elastic.IsNil(m) {
		return nil
	}
	return row(m, i)
}
