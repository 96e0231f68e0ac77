package srv

import (
	"fmt"

	"github.com/npillmayer/elastic"
	"gonum.org/v1/gonum/mat"
)

// Geodesic is a geodesic of the SRV metric, given by an initial curve and an
// initial tangent vector field. It carries no state between evaluations.
type Geodesic struct {
	metric  *Metric
	initial *mat.Dense
	tangent *mat.Dense
}

// Geodesic creates the geodesic starting at initial. Exactly one of end and
// initialTangent is required; pass nil for the other one. If both are given,
// the tangent vector shooting from initial to end must match initialTangent
// within m's tolerance, otherwise ErrInconsistentShootingVector is returned.
// Implemented for flat ambient metrics only.
func (m *Metric) Geodesic(initial, end, initialTangent mat.Matrix) (*Geodesic, error) {
	if _, err := m.flat("geodesic"); err != nil {
		return nil, err
	}
	if elastic.IsNil(initial) {
		return nil, fmt.Errorf("%w: initial curve is nil", ErrInvalidInput)
	}
	if elastic.IsNil(end) && elastic.IsNil(initialTangent) {
		return nil, fmt.Errorf("%w: specify an end curve or an initial tangent vector", ErrInvalidInput)
	}
	var tangent *mat.Dense
	if !elastic.IsNil(end) {
		shoot, err := m.Log(end, initial)
		if err != nil {
			return nil, err
		}
		if !elastic.IsNil(initialTangent) && !elastic.AllClose(shoot, initialTangent, m.tol) {
			return nil, ErrInconsistentShootingVector
		}
		tangent = shoot
	} else {
		if _, _, err := sameShape(initialTangent, initial); err != nil {
			return nil, err
		}
		tangent = mat.DenseCopyOf(initialTangent)
	}
	tracer().Debugf("geodesic shooting from curve with %d points", tangent.RawMatrix().Rows)
	return &Geodesic{
		metric:  m,
		initial: mat.DenseCopyOf(initial),
		tangent: tangent,
	}, nil
}

// Tangent returns a copy of the initial tangent vector of g.
func (g *Geodesic) Tangent() *mat.Dense {
	return mat.DenseCopyOf(g.tangent)
}

// Initial returns a copy of the initial curve of g.
func (g *Geodesic) Initial() *mat.Dense {
	return mat.DenseCopyOf(g.initial)
}

// At evaluates the geodesic at every time in ts, returning one curve per
// time. Evaluations are independent of each other.
func (g *Geodesic) At(ts []float64) ([]*mat.Dense, error) {
	curves := make([]*mat.Dense, len(ts))
	var v mat.Dense
	for i, t := range ts {
		v.Scale(t, g.tangent)
		c, err := g.metric.Exp(&v, g.initial)
		if err != nil {
			return nil, fmt.Errorf("geodesic at t=%g: %w", t, err)
		}
		curves[i] = c
	}
	return curves, nil
}

// Point evaluates the geodesic at a single time t.
func (g *Geodesic) Point(t float64) (*mat.Dense, error) {
	curves, err := g.At([]float64{t})
	if err != nil {
		return nil, err
	}
	return curves[0], nil
}
