// Package landmarks implements the L² product metric over a fixed number of
// indexed ambient points ("landmarks").
//
// A landmark configuration is a matrix with one ambient point per row. All
// operations act row by row with the ambient metric and sum up where a scalar
// result is expected.
package landmarks

import (
	"errors"
	"fmt"
	"math"

	"github.com/npillmayer/elastic"
	"github.com/npillmayer/elastic/ambient"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrLandmarkCount indicates a configuration with the wrong number of landmarks.
var ErrLandmarkCount = errors.New("wrong number of landmarks")

// L2Metric is the product metric of N copies of an ambient metric.
type L2Metric struct {
	Ambient ambient.Metric
	N       int
}

// NewL2Metric creates the product metric for n landmarks.
func NewL2Metric(m ambient.Metric, n int) L2Metric {
	return L2Metric{Ambient: m, N: n}
}

func (l2 L2Metric) check(ms ...mat.Matrix) error {
	for _, m := range ms {
		if elastic.IsNil(m) {
			continue
		}
		if r, _ := m.Dims(); r != l2.N {
			return fmt.Errorf("%w: have %d, metric is for %d", ErrLandmarkCount, r, l2.N)
		}
	}
	return nil
}

// InnerProduct sums the ambient inner products of corresponding rows of a and b.
// base may be nil for ambient metrics independent of base points.
func (l2 L2Metric) InnerProduct(a, b, base mat.Matrix) (float64, error) {
	if err := l2.check(a, b, base); err != nil {
		return 0, err
	}
	return floats.Sum(ambient.InnerProductRows(l2.Ambient, a, b, base)), nil
}

// Norm is the square root of InnerProduct(v, v, base).
func (l2 L2Metric) Norm(v, base mat.Matrix) (float64, error) {
	sq, err := l2.InnerProduct(v, v, base)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(sq), nil
}

// Dist is the square root of the summed squared ambient distances.
func (l2 L2Metric) Dist(a, b mat.Matrix) (float64, error) {
	if err := l2.check(a, b); err != nil {
		return 0, err
	}
	var sq float64
	for _, d := range ambient.DistRows(l2.Ambient, a, b) {
		sq += d * d
	}
	return math.Sqrt(sq), nil
}

// Exp applies the ambient exponential row by row.
func (l2 L2Metric) Exp(v, base mat.Matrix) (*mat.Dense, error) {
	if err := l2.check(v, base); err != nil {
		return nil, err
	}
	return ambient.ExpRows(l2.Ambient, v, base), nil
}

// Log applies the ambient logarithm row by row.
func (l2 L2Metric) Log(p, base mat.Matrix) (*mat.Dense, error) {
	if err := l2.check(p, base); err != nil {
		return nil, err
	}
	return ambient.LogRows(l2.Ambient, p, base), nil
}

// Geodesic returns the configuration at time t on the geodesic from
// initial to end, computed as Exp(t·Log(end, initial), initial).
func (l2 L2Metric) Geodesic(initial, end mat.Matrix, t float64) (*mat.Dense, error) {
	v, err := l2.Log(end, initial)
	if err != nil {
		return nil, err
	}
	v.Scale(t, v)
	return l2.Exp(v, initial)
}
