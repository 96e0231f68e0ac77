package ambient

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// Hypersphere is the unit sphere S^N embedded in R^(N+1), with the metric
// induced by the embedding. It is curved, therefore it is not a FlatMetric.
type Hypersphere struct {
	N int
}

var _ Metric = Hypersphere{}

// Dim is N.
func (s Hypersphere) Dim() int { return s.N }

// EmbeddingDim is N+1.
func (s Hypersphere) EmbeddingDim() int { return s.N + 1 }

// Belongs is a predicate: is p a unit vector of R^(N+1)?
func (s Hypersphere) Belongs(p []float64, atol float64) bool {
	return len(p) == s.N+1 && math.Abs(floats.Norm(p, 2)-1) <= atol
}

// IsTangent is a predicate: is v orthogonal to base?
func (s Hypersphere) IsTangent(v, base []float64, atol float64) bool {
	return len(v) == s.N+1 && math.Abs(floats.Dot(v, base)) <= atol
}

// ToTangent removes the normal component of v at base.
func (s Hypersphere) ToTangent(v, base []float64) []float64 {
	t := append([]float64(nil), v...)
	floats.AddScaled(t, -floats.Dot(v, base), base)
	return t
}

// RandomPoint samples uniformly from the sphere. bound is ignored, as the
// sphere is compact.
func (s Hypersphere) RandomPoint(rng *rand.Rand, bound float64) []float64 {
	p := make([]float64, s.N+1)
	for {
		for i := range p {
			p[i] = rng.NormFloat64()
		}
		if n := floats.Norm(p, 2); n > 1e-8 {
			floats.Scale(1/n, p)
			return p
		}
	}
}

// InnerProduct is the dot product of u and v in the embedding space.
func (s Hypersphere) InnerProduct(u, v, base []float64) float64 {
	return floats.Dot(u, v)
}

// Norm is the embedding length of v.
func (s Hypersphere) Norm(v, base []float64) float64 {
	return floats.Norm(v, 2)
}

// Exp follows the great circle leaving base in direction v for length |v|.
func (s Hypersphere) Exp(v, base []float64) []float64 {
	theta := floats.Norm(v, 2)
	p := make([]float64, len(base))
	if theta < 1e-12 {
		floats.AddTo(p, base, v)
		floats.Scale(1/floats.Norm(p, 2), p)
		return p
	}
	sin, cos := math.Sincos(theta)
	floats.AddScaledTo(p, make([]float64, len(base)), cos, base)
	floats.AddScaled(p, sin/theta, v)
	return p
}

// Log returns the initial velocity of the shortest great circle arc from
// base to p. For antipodal points the arc is not unique and Log returns the
// zero vector.
func (s Hypersphere) Log(p, base []float64) []float64 {
	cos := clamp(floats.Dot(p, base))
	theta := math.Acos(cos)
	w := make([]float64, len(p))
	floats.AddScaledTo(w, p, -cos, base)
	n := floats.Norm(w, 2)
	if n < 1e-12 {
		if cos < 0 {
			tracer().Debugf("log of antipodal points on S^%d is not unique", s.N)
		}
		return make([]float64, len(p))
	}
	floats.Scale(theta/n, w)
	return w
}

// Dist is the great circle distance between a and b.
func (s Hypersphere) Dist(a, b []float64) float64 {
	return math.Acos(clamp(floats.Dot(a, b)))
}

func clamp(c float64) float64 {
	return math.Max(-1, math.Min(1, c))
}
