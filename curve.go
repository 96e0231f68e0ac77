package elastic

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrShape indicates curves or point lists of unusable or mismatching shape.
var ErrShape = errors.New("unusable curve shape")

// NewCurve creates a discrete curve from a list of points. Every point must
// have the same number of coordinates. The curve is a matrix with one row per
// sampling point.
func NewCurve(points [][]float64) (*mat.Dense, error) {
	if len(points) == 0 || len(points[0]) == 0 {
		return nil, fmt.Errorf("%w: empty point list", ErrShape)
	}
	dim := len(points[0])
	data := make([]float64, 0, len(points)*dim)
	for i, pt := range points {
		if len(pt) != dim {
			return nil, fmt.Errorf("%w: point %d has %d coordinates, expected %d",
				ErrShape, i, len(pt), dim)
		}
		data = append(data, pt...)
	}
	return mat.NewDense(len(points), dim, data), nil
}

// MustCurve is like NewCurve, but panics on malformed input. Intended for
// literal curves in tests and examples.
func MustCurve(points [][]float64) *mat.Dense {
	c, err := NewCurve(points)
	if err != nil {
		panic(err)
	}
	return c
}

// CurveFromPairs creates a planar discrete curve.
func CurveFromPairs(pairs ...Pair) *mat.Dense {
	c := mat.NewDense(len(pairs), 2, nil)
	for i, p := range pairs {
		c.Set(i, 0, p.X())
		c.Set(i, 1, p.Y())
	}
	return c
}

// Pairs returns the points of a planar curve as pairs.
func Pairs(curve mat.Matrix) ([]Pair, error) {
	r, c := curve.Dims()
	if c != 2 {
		return nil, fmt.Errorf("%w: planar curve expected, have dimension %d", ErrShape, c)
	}
	pairs := make([]Pair, r)
	for i := range pairs {
		pairs[i] = P(curve.At(i, 0), curve.At(i, 1))
	}
	return pairs, nil
}

// IsNil is a predicate: is m absent? Catches typed nil pointers hidden in
// the mat.Matrix interface, on which Dims would panic.
func IsNil(m mat.Matrix) bool {
	switch x := m.(type) {
	case nil:
		return true
	case *mat.Dense:
		return x == nil
	case *mat.VecDense:
		return x == nil
	case *mat.SymDense:
		return x == nil
	}
	return false
}

// Row returns a copy of row i of m.
func Row(m mat.Matrix, i int) []float64 {
	_, c := m.Dims()
	return mat.Row(make([]float64, c), i, m)
}

// TransformCurve applies a motion to every point of a planar curve.
// The argument is unchanged and a new curve is returned.
func TransformCurve(at Motion, curve mat.Matrix) (*mat.Dense, error) {
	pairs, err := Pairs(curve)
	if err != nil {
		return nil, err
	}
	for i, p := range pairs {
		pairs[i] = at.Transform(p)
	}
	return CurveFromPairs(pairs...), nil
}

// AllClose is a predicate: do a and b have equal shape and are all their
// entries close within tol?
func AllClose(a, b mat.Matrix, tol Tolerance) bool {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ra != rb || ca != cb {
		return false
	}
	for i := 0; i < ra; i++ {
		for j := 0; j < ca; j++ {
			x, y := a.At(i, j), b.At(i, j)
			if math.IsNaN(x) || math.IsNaN(y) || !tol.Close(x, y) {
				return false
			}
		}
	}
	return true
}

// === Batches of curves =====================================================

// Batch holds curves of equal shape in one contiguous matrix. Curve k occupies
// rows [k·N, (k+1)·N) of Stack.
type Batch struct {
	Stack *mat.Dense // all points of all curves, stacked
	N     int        // sampling points per curve
}

// NewBatch stacks curves of identical shape into a batch.
func NewBatch(curves ...mat.Matrix) (Batch, error) {
	if len(curves) == 0 {
		tracer().Errorf("cannot create batch without curves")
		return Batch{}, fmt.Errorf("%w: empty batch", ErrShape)
	}
	n, dim := curves[0].Dims()
	stack := mat.NewDense(len(curves)*n, dim, nil)
	for k, c := range curves {
		if r, d := c.Dims(); r != n || d != dim {
			tracer().Errorf("batch curve %d has shape %d×%d, first curve has %d×%d", k, r, d, n, dim)
			return Batch{}, fmt.Errorf("%w: curve %d is %d×%d, expected %d×%d",
				ErrShape, k, r, d, n, dim)
		}
		stack.Slice(k*n, (k+1)*n, 0, dim).(*mat.Dense).Copy(c)
	}
	return Batch{Stack: stack, N: n}, nil
}

// Len is the number of curves in the batch.
func (b Batch) Len() int {
	if b.Stack == nil || b.N == 0 {
		return 0
	}
	r, _ := b.Stack.Dims()
	return r / b.N
}

// Curve returns curve k of the batch as a view into the stack.
func (b Batch) Curve(k int) *mat.Dense {
	_, dim := b.Stack.Dims()
	return b.Stack.Slice(k*b.N, (k+1)*b.N, 0, dim).(*mat.Dense)
}
