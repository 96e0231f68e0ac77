/*
Package resample interpolates discrete curves and scalar functions.

An interpolant is constructed from parameter samples and value samples, one
row of values per parameter, and may then be evaluated at arbitrary new
parameters. Two schemes are available for curves:

  - NotAKnotCubic: one not-a-knot cubic spline per coordinate axis
  - Hobby:         John Hobby's spline through the points of a planar curve

Func is a scalar not-a-knot cubic spline, used for inverting reparametrizations.
Not-a-knot splines reproduce cubic polynomials exactly, up to the ends of the
parameter range.
Parameters must be strictly increasing. Evaluation outside the parameter range
is clamped to the end values.

# BSD License

# Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package resample

import (
	"errors"
	"fmt"
	"math"

	"github.com/npillmayer/schuko/tracing"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
)

// tracer writes to trace with key 'elastic'
func tracer() tracing.Trace {
	return tracing.Select("elastic")
}

var (
	// ErrTooFewPoints indicates too few samples for the interpolation scheme.
	ErrTooFewPoints = errors.New("too few samples for interpolation")
	// ErrNotIncreasing indicates parameters which are not strictly increasing.
	ErrNotIncreasing = errors.New("parameters are not strictly increasing")
	// ErrShape indicates values not matching the parameters or the scheme.
	ErrShape = errors.New("samples have unusable shape")
)

// Scheme selects an interpolation scheme for curves.
type Scheme int

// Interpolation schemes for curves.
const (
	NotAKnotCubic Scheme = iota // per-axis not-a-knot cubic splines
	Hobby                       // Hobby splines, planar curves only
)

func (s Scheme) String() string {
	switch s {
	case NotAKnotCubic:
		return "not-a-knot-cubic"
	case Hobby:
		return "hobby"
	}
	return fmt.Sprintf("scheme(%d)", int(s))
}

// Interpolant is a curve interpolating value samples at parameter samples.
type Interpolant interface {
	At(x float64) []float64           // point at parameter x
	Resample(xs []float64) *mat.Dense // one row per parameter in xs
}

// New creates an interpolant for values, one row per parameter in params.
func New(scheme Scheme, params []float64, values mat.Matrix) (Interpolant, error) {
	switch scheme {
	case NotAKnotCubic:
		return NewCubic(params, values)
	case Hobby:
		return NewHobby(params, values)
	}
	return nil, fmt.Errorf("%w: unknown interpolation scheme %v", ErrShape, scheme)
}

// Linspace returns n equally spaced values from a to b, both included.
func Linspace(a, b float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{a}
	}
	return floats.Span(make([]float64, n), a, b)
}

// StrictlyIncreasing is a predicate: is xs[i] < xs[i+1] for all i, with all
// values finite?
func StrictlyIncreasing(xs []float64) bool {
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
		if i > 0 && !(xs[i-1] < x) {
			return false
		}
	}
	return true
}

func validate(params []float64, n, least int) error {
	if len(params) != n {
		return fmt.Errorf("%w: %d parameters for %d samples", ErrShape, len(params), n)
	}
	if n < least {
		return fmt.Errorf("%w: have %d, need at least %d", ErrTooFewPoints, n, least)
	}
	if !StrictlyIncreasing(params) {
		return ErrNotIncreasing
	}
	return nil
}

// === Cubic splines =========================================================

// Cubic interpolates a curve with one not-a-knot cubic spline per coordinate.
type Cubic struct {
	lo, hi float64
	axes   []*interp.NotAKnotCubic
}

// NewCubic fits not-a-knot cubic splines through values at params. At least 3
// samples are required.
func NewCubic(params []float64, values mat.Matrix) (*Cubic, error) {
	n, dim := values.Dims()
	if err := validate(params, n, 3); err != nil {
		return nil, err
	}
	c := &Cubic{
		lo:   params[0],
		hi:   params[n-1],
		axes: make([]*interp.NotAKnotCubic, dim),
	}
	for j := range c.axes {
		c.axes[j] = &interp.NotAKnotCubic{}
		if err := c.axes[j].Fit(params, mat.Col(nil, j, values)); err != nil {
			return nil, fmt.Errorf("fitting axis %d: %w", j, err)
		}
	}
	return c, nil
}

// At evaluates the splines at x.
func (c *Cubic) At(x float64) []float64 {
	x = clamp(x, c.lo, c.hi)
	pt := make([]float64, len(c.axes))
	for j, s := range c.axes {
		pt[j] = s.Predict(x)
	}
	return pt
}

// Resample evaluates the splines at every parameter of xs.
func (c *Cubic) Resample(xs []float64) *mat.Dense {
	return resample(c, xs, len(c.axes))
}

// === Scalar functions ======================================================

// Func is a scalar function y(x) interpolated by a not-a-knot cubic spline.
type Func struct {
	lo, hi float64
	spline interp.NotAKnotCubic
}

// NewFunc fits a not-a-knot cubic spline through (xs[i], ys[i]). xs must be
// strictly increasing with at least 3 values.
func NewFunc(xs, ys []float64) (*Func, error) {
	if len(ys) != len(xs) {
		return nil, fmt.Errorf("%w: %d abscissae for %d values", ErrShape, len(xs), len(ys))
	}
	if err := validate(xs, len(xs), 3); err != nil {
		return nil, err
	}
	f := &Func{lo: xs[0], hi: xs[len(xs)-1]}
	if err := f.spline.Fit(xs, ys); err != nil {
		return nil, err
	}
	return f, nil
}

// At evaluates f at x.
func (f *Func) At(x float64) float64 {
	return f.spline.Predict(clamp(x, f.lo, f.hi))
}

// Map evaluates f at every value of xs.
func (f *Func) Map(xs []float64) []float64 {
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = f.At(x)
	}
	return ys
}

// ---------------------------------------------------------------------------

func resample(ip Interpolant, xs []float64, dim int) *mat.Dense {
	if len(xs) == 0 {
		return &mat.Dense{}
	}
	m := mat.NewDense(len(xs), dim, nil)
	for i, x := range xs {
		m.SetRow(i, ip.At(x))
	}
	return m
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
