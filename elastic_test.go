package elastic

import (
	"math"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestToleranceClose(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	tol := DefaultTolerance()
	if !tol.Is0(1e-13) {
		t.Errorf("Expected 1e-13 to be zero, is not")
	}
	assert.True(t, tol.Close(1000.0, 1000.0001))
	assert.False(t, tol.Close(1.0, 1.001))
}

func TestPairBasic(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	p := P(3, 4)
	q := P(-3, -4)
	r := p + q
	if !r.Equal(Origin, DefaultTolerance()) {
		t.Errorf("Expected p + q to be (0,0), is %v", r)
	}
	assert.InDelta(t, 5.0, p.Abs(), 1e-12)
	assert.InDelta(t, -25.0, p.Dot(q), 1e-12)
}

func TestRotation(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	tol := Tolerance{Atol: 1e-9}
	if !Translation(P(1, 0)).Transform(Rotation(math.Pi).Transform(P(1, 0))).Equal(Origin, tol) {
		t.Errorf("Expected result to be origin, is not")
	}
	q := Rotation(math.Pi / 2).Transform(P(1, 0))
	assert.True(t, q.Equal(P(0, 1), tol), "rotated (1,0) is %v", q)
	q = Rotation(math.Pi / 4).Transform(P(3, 4))
	assert.InDelta(t, 5.0, q.Abs(), 1e-12)
}

func TestNewCurve(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	c, err := NewCurve([][]float64{{0, 0}, {1, 0}, {2, 0}})
	require.NoError(t, err)
	r, d := c.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, d)
	_, err = NewCurve([][]float64{{0, 0}, {1}})
	assert.ErrorIs(t, err, ErrShape)
}

func TestTransformCurve(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	c := CurveFromPairs(P(0, 0), P(1, 0), P(1, 1))
	moved, err := TransformCurve(Translation(P(2, 3)), c)
	require.NoError(t, err)
	want := CurveFromPairs(P(2, 3), P(3, 3), P(3, 4))
	assert.True(t, AllClose(moved, want, DefaultTolerance()))
	_, err = TransformCurve(Rotation(0), mat.NewDense(2, 3, nil))
	assert.ErrorIs(t, err, ErrShape)
}

func TestIsNil(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	var d *mat.Dense
	var v *mat.VecDense
	assert.True(t, IsNil(nil))
	assert.True(t, IsNil(d))
	assert.True(t, IsNil(v))
	assert.False(t, IsNil(mat.NewDense(1, 1, nil)))
}

func TestBatch(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	a := CurveFromPairs(P(0, 0), P(1, 0), P(2, 0))
	b := CurveFromPairs(P(5, 5), P(6, 6), P(7, 7))
	batch, err := NewBatch(a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Len())
	assert.True(t, mat.Equal(b, batch.Curve(1)))
	_, err = NewBatch(a, mat.NewDense(2, 2, nil))
	assert.ErrorIs(t, err, ErrShape)
	_, err = NewBatch()
	assert.ErrorIs(t, err, ErrShape)
}
