package quotient

import (
	"fmt"
	"math"

	"github.com/npillmayer/elastic"
	"github.com/npillmayer/elastic/ambient"
	"github.com/npillmayer/elastic/resample"
	"github.com/npillmayer/elastic/srv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Defaults for Options.
const (
	DefaultThreshold = 1e-3
	DefaultMaxIter   = 100
)

// Options configures a Solver. Zero values select the defaults.
type Options struct {
	Threshold float64         // stop when the end curve moves less than Threshold
	MaxIter   int             // cap on outer iterations
	Scheme    resample.Scheme // interpolation for resampling curves
}

// Solver computes horizontal geodesics of the SRV metric.
type Solver struct {
	metric *srv.Metric
	opts   Options
}

// NewSolver creates a solver for the SRV metric m.
func NewSolver(m *srv.Metric, opts Options) *Solver {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultMaxIter
	}
	return &Solver{metric: m, opts: opts}
}

// Options returns the effective options of s, with defaults filled in.
func (s *Solver) Options() Options {
	return s.opts
}

// HorizontalPath is a horizontal geodesic between two curves, ready to be
// evaluated on a time grid. Evaluations are independent of each other: every
// call to At starts from the original end curve.
type HorizontalPath struct {
	solver    *Solver
	initial   *mat.Dense
	end       *mat.Dense
	params    []float64            // uniform curve parameters in [0,1]
	endSpline resample.Interpolant // fixed interpolant of the end curve
}

// Result of evaluating a horizontal path.
type Result struct {
	Path                   []*mat.Dense // one curve per time
	Iterations             int          // outer iterations performed
	Gap                    float64      // movement of the end curve in the last iteration
	Converged              bool         // Gap <= Threshold
	MonotonicityViolations int          // non-increasing reparametrization steps seen
}

// HorizontalGeodesic prepares the horizontal geodesic from initial to end.
// Both curves must have the same shape with at least 3 sampling points, and
// the ambient metric has to be flat.
func (s *Solver) HorizontalGeodesic(initial, end mat.Matrix) (*HorizontalPath, error) {
	if s.metric == nil {
		return nil, fmt.Errorf("%w: solver has no SRV metric", srv.ErrInvalidInput)
	}
	if _, ok := ambient.AsFlat(s.metric.Ambient()); !ok {
		return nil, fmt.Errorf("%w: horizontal geodesics are implemented for flat ambient metrics only",
			srv.ErrUnsupportedGeometry)
	}
	if elastic.IsNil(initial) || elastic.IsNil(end) {
		return nil, fmt.Errorf("%w: horizontal geodesic needs an initial and an end curve", srv.ErrInvalidInput)
	}
	n, dim := initial.Dims()
	if r, c := end.Dims(); r != n || c != dim {
		return nil, fmt.Errorf("%w: curves are %d×%d and %d×%d", srv.ErrInvalidInput, n, dim, r, c)
	}
	if n < 3 {
		return nil, fmt.Errorf("%w: horizontal geodesic needs at least 3 sampling points, have %d",
			srv.ErrInvalidInput, n)
	}
	params := resample.Linspace(0, 1, n)
	endSpline, err := resample.New(s.opts.Scheme, params, end)
	if err != nil {
		return nil, fmt.Errorf("interpolating end curve: %w", err)
	}
	return &HorizontalPath{
		solver:    s,
		initial:   mat.DenseCopyOf(initial),
		end:       mat.DenseCopyOf(end),
		params:    params,
		endSpline: endSpline,
	}, nil
}

// At computes the horizontal path on the time grid ts, which is expected to
// be uniform on [0,1]; ts[0] and ts[len(ts)-1] are the times of the initial
// and the end curve.
//
// Every outer iteration shoots an SRV geodesic from the initial curve to the
// current end curve, integrates the reparametrization which removes its
// vertical part and resamples the geodesic accordingly. The end curve of the
// resulting path becomes the next target. Iteration stops when the end curve
// moves less than the threshold. If this does not happen within the maximum
// number of iterations, the last path is returned together with an error
// wrapping srv.ErrNotConverged.
func (h *HorizontalPath) At(ts []float64) (*Result, error) {
	if len(ts) < 2 {
		return nil, fmt.Errorf("%w: time grid needs at least 2 times, has %d", srv.ErrInvalidInput, len(ts))
	}
	if !resample.StrictlyIncreasing(ts) {
		return nil, fmt.Errorf("%w: time grid is not strictly increasing", srv.ErrInvalidInput)
	}
	opts := h.solver.opts
	it := &iteration{path: h, ts: ts, current: mat.DenseCopyOf(h.end)}
	result := &Result{}
	for {
		path, err := it.step()
		if err != nil {
			return nil, err
		}
		result.Path = path
		result.Iterations++
		result.Gap = it.gap
		result.MonotonicityViolations = it.violations
		if it.gap <= opts.Threshold {
			result.Converged = true
			return result, nil
		}
		if result.Iterations >= opts.MaxIter {
			tracer().Errorf("horizontal geodesic did not converge after %d iterations, gap is %g",
				result.Iterations, result.Gap)
			return result, fmt.Errorf("%w: gap %g > %g after %d iterations",
				srv.ErrNotConverged, result.Gap, opts.Threshold, result.Iterations)
		}
	}
}

// iteration holds the state of one evaluation of a horizontal path across
// its outer iterations.
type iteration struct {
	path       *HorizontalPath
	ts         []float64
	current    *mat.Dense       // current end curve
	inverses   []*resample.Func // inverse end reparametrizations, oldest first
	gap        float64
	violations int
}

func (it *iteration) step() ([]*mat.Dense, error) {
	m := it.path.solver.metric
	nTimes := len(it.ts)
	n, _ := it.path.initial.Dims()

	geod, err := m.Geodesic(it.path.initial, it.current, nil)
	if err != nil {
		return nil, err
	}
	shot, err := geod.At(it.ts)
	if err != nil {
		return nil, err
	}
	verticalNorm := mat.NewDense(nTimes-1, n, nil)
	var timeDeriv mat.Dense
	for i := 0; i < nTimes-1; i++ {
		timeDeriv.Sub(shot[i+1], shot[i])
		timeDeriv.Scale(float64(nTimes), &timeDeriv)
		dec, err := Split(m, &timeDeriv, shot[i])
		if err != nil {
			return nil, fmt.Errorf("splitting time step %d: %w", i, err)
		}
		verticalNorm.SetRow(i, dec.VerticalNorm)
	}
	spaceDerivNorm := mat.NewDense(nTimes, n, nil)
	for i, curve := range shot {
		deriv, err := m.SpaceDerivative(curve)
		if err != nil {
			return nil, err
		}
		norms := ambient.NormRows(m.Ambient(), deriv, curve)
		for j, x := range norms {
			if !(x > 0) {
				return nil, fmt.Errorf("%w: curve at time %g has zero speed at point %d",
					srv.ErrDegenerateCurve, it.ts[i], j)
			}
		}
		spaceDerivNorm.SetRow(i, norms)
	}
	rep := it.reparametrization(verticalNorm, spaceDerivNorm)
	path, err := it.invert(rep, shot)
	if err != nil {
		return nil, err
	}
	newEnd := path[nTimes-1]
	var diff mat.Dense
	diff.Sub(newEnd, it.current)
	it.gap = floats.Norm(diff.RawMatrix().Data, 2)
	it.current = mat.DenseCopyOf(newEnd)
	vn := verticalNorm.RawMatrix().Data
	tracer().Infof("gap is %g, min-mean-max vertical norm are %.3f %.3f %.3f",
		it.gap, floats.Min(vn), stat.Mean(vn, nil), floats.Max(vn))
	return path, nil
}

// reparametrization integrates the reparametrization grid rep[time, point]
// by explicit Euler steps in time, with upwind differences in space.
func (it *iteration) reparametrization(verticalNorm, spaceDerivNorm *mat.Dense) *mat.Dense {
	nTimes, n := spaceDerivNorm.Dims()
	fn, ft := float64(n), float64(nTimes)
	rep := mat.NewDense(nTimes, n, nil)
	rep.SetRow(0, it.path.params)
	for i := 0; i < nTimes; i++ {
		rep.Set(i, n-1, 1)
	}
	for i := 0; i < nTimes-1; i++ {
		for j := 0; j < n-1; j++ {
			vn := verticalNorm.At(i, j)
			var spaceDeriv float64
			if j > 0 && !(vn > 0) {
				spaceDeriv = fn * (rep.At(i, j) - rep.At(i, j-1))
			} else {
				spaceDeriv = fn * (rep.At(i, j+1) - rep.At(i, j))
			}
			timeDeriv := spaceDeriv * vn / spaceDerivNorm.At(i, j)
			rep.Set(i+1, j, rep.At(i, j)+timeDeriv/ft)
		}
		decreasing := 0
		for j := 2; j < n; j++ {
			if rep.At(i+1, j) < rep.At(i+1, j-1) {
				decreasing++
			}
		}
		if decreasing > 0 {
			it.violations += decreasing
			tracer().Errorf("reparametrization is non increasing at %d points of time step %d",
				decreasing, i+1)
		}
	}
	return rep
}

// invert resamples the shot geodesic with the inverse reparametrizations.
// The end curve is resampled from the fixed interpolant of the original end
// curve, composing all inverse end reparametrizations found so far.
func (it *iteration) invert(rep *mat.Dense, shot []*mat.Dense) ([]*mat.Dense, error) {
	scheme := it.path.solver.opts.Scheme
	params := it.path.params
	nTimes := len(shot)
	path := make([]*mat.Dense, nTimes)
	path[0] = mat.DenseCopyOf(it.path.initial)
	for i := 1; i < nTimes-1; i++ {
		spline, err := resample.New(scheme, params, shot[i])
		if err != nil {
			return nil, fmt.Errorf("interpolating geodesic at time %g: %w", it.ts[i], err)
		}
		inverse, err := resample.NewFunc(increasing(elastic.Row(rep, i)), params)
		if err != nil {
			return nil, fmt.Errorf("inverting reparametrization at time %g: %w", it.ts[i], err)
		}
		path[i] = spline.Resample(inverse.Map(params))
	}
	inverse, err := resample.NewFunc(increasing(elastic.Row(rep, nTimes-1)), params)
	if err != nil {
		return nil, fmt.Errorf("inverting end reparametrization: %w", err)
	}
	it.inverses = append(it.inverses, inverse)
	arg := params
	for k := len(it.inverses) - 1; k >= 0; k-- {
		arg = it.inverses[k].Map(arg)
	}
	path[nTimes-1] = it.path.endSpline.Resample(arg)
	return path, nil
}

// increasing returns a strictly increasing version of a reparametrization
// row, keeping its end values. Rows which already increase strictly are
// returned unchanged.
func increasing(row []float64) []float64 {
	if resample.StrictlyIncreasing(row) {
		return row
	}
	n := len(row)
	lo, hi := row[0], row[n-1]
	step := 1e-9 / float64(n)
	out := make([]float64, n)
	out[0] = lo
	for j := 1; j < n; j++ {
		out[j] = row[j]
		if !(out[j] > out[j-1]) || math.IsInf(out[j], 0) {
			out[j] = out[j-1] + step
		}
	}
	if top := out[n-1]; top != hi && hi > lo {
		for j := range out {
			out[j] = lo + (out[j]-lo)*(hi-lo)/(top-lo)
		}
		out[n-1] = hi
	}
	return out
}
