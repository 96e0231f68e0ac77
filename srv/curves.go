package srv

import (
	"fmt"
	"math/rand/v2"

	"github.com/npillmayer/elastic"
	"github.com/npillmayer/elastic/ambient"
	"gonum.org/v1/gonum/mat"
)

// Curves is the space of discrete curves sampled in an ambient manifold.
// Tangent vectors are vector fields along a curve: one ambient tangent
// vector per sampling point.
type Curves struct {
	Ambient ambient.Manifold
}

// Belongs is a predicate: is curve a discrete curve of at least two points,
// each belonging to the ambient manifold?
func (cs Curves) Belongs(curve mat.Matrix, atol float64) bool {
	if elastic.IsNil(curve) {
		return false
	}
	n, dim := curve.Dims()
	if n < 2 || dim != cs.Ambient.EmbeddingDim() {
		return false
	}
	for i := 0; i < n; i++ {
		if !cs.Ambient.Belongs(elastic.Row(curve, i), atol) {
			return false
		}
	}
	return true
}

// IsTangent is a predicate: is every row of v tangent to the ambient manifold
// at the corresponding point of curve?
func (cs Curves) IsTangent(v, curve mat.Matrix, atol float64) bool {
	n, _, err := sameShape(v, curve)
	if err != nil {
		return false
	}
	for i := 0; i < n; i++ {
		if !cs.Ambient.IsTangent(elastic.Row(v, i), elastic.Row(curve, i), atol) {
			return false
		}
	}
	return true
}

// ToTangent projects every row of v to the ambient tangent space at the
// corresponding point of curve.
func (cs Curves) ToTangent(v, curve mat.Matrix) (*mat.Dense, error) {
	n, dim, err := sameShape(v, curve)
	if err != nil {
		return nil, err
	}
	t := mat.NewDense(n, dim, nil)
	for i := 0; i < n; i++ {
		t.SetRow(i, cs.Ambient.ToTangent(elastic.Row(v, i), elastic.Row(curve, i)))
	}
	return t, nil
}

// RandomPoint samples a curve of nSampling independent random ambient points.
func (cs Curves) RandomPoint(rng *rand.Rand, nSampling int, bound float64) (*mat.Dense, error) {
	if nSampling < 2 {
		return nil, fmt.Errorf("%w: curves need at least 2 sampling points, requested %d",
			ErrInvalidInput, nSampling)
	}
	curve := mat.NewDense(nSampling, cs.Ambient.EmbeddingDim(), nil)
	for i := 0; i < nSampling; i++ {
		curve.SetRow(i, cs.Ambient.RandomPoint(rng, bound))
	}
	return curve, nil
}

// RandomBatch samples nSamples random curves into one batch.
func (cs Curves) RandomBatch(rng *rand.Rand, nSamples, nSampling int, bound float64) (elastic.Batch, error) {
	curves := make([]mat.Matrix, nSamples)
	for k := range curves {
		c, err := cs.RandomPoint(rng, nSampling, bound)
		if err != nil {
			return elastic.Batch{}, err
		}
		curves[k] = c
	}
	return elastic.NewBatch(curves...)
}
