package ambient

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// Euclidean is the flat space R^N with its standard inner product.
type Euclidean struct {
	N int
}

var _ FlatMetric = Euclidean{}

// R2 is the Euclidean plane.
var R2 = Euclidean{N: 2}

// R3 is Euclidean 3-space.
var R3 = Euclidean{N: 3}

// Dim is N.
func (e Euclidean) Dim() int { return e.N }

// EmbeddingDim is N.
func (e Euclidean) EmbeddingDim() int { return e.N }

// Flat marks Euclidean as a flat metric.
func (e Euclidean) Flat() {}

// Belongs is a predicate: has p N finite coordinates?
func (e Euclidean) Belongs(p []float64, atol float64) bool {
	if len(p) != e.N {
		return false
	}
	for _, x := range p {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// IsTangent is a predicate: every vector of dimension N is tangent.
func (e Euclidean) IsTangent(v, base []float64, atol float64) bool {
	return len(v) == e.N
}

// ToTangent returns a copy of v.
func (e Euclidean) ToTangent(v, base []float64) []float64 {
	return append([]float64(nil), v...)
}

// RandomPoint samples uniformly from the cube [-bound, bound]^N.
func (e Euclidean) RandomPoint(rng *rand.Rand, bound float64) []float64 {
	p := make([]float64, e.N)
	for i := range p {
		p[i] = bound * (2*rng.Float64() - 1)
	}
	return p
}

// InnerProduct is the dot product of u and v. base is ignored.
func (e Euclidean) InnerProduct(u, v, base []float64) float64 {
	return floats.Dot(u, v)
}

// Norm is the Euclidean length of v. base is ignored.
func (e Euclidean) Norm(v, base []float64) float64 {
	return floats.Norm(v, 2)
}

// Exp returns base + v.
func (e Euclidean) Exp(v, base []float64) []float64 {
	return floats.AddTo(make([]float64, len(v)), base, v)
}

// Log returns p - base.
func (e Euclidean) Log(p, base []float64) []float64 {
	return floats.SubTo(make([]float64, len(p)), p, base)
}

// Dist is the Euclidean distance between a and b.
func (e Euclidean) Dist(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}
