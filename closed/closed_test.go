package closed

import (
	"math"
	"testing"

	"github.com/npillmayer/elastic"
	"github.com/npillmayer/elastic/ambient"
	"github.com/npillmayer/elastic/srv"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func openCurve() *mat.Dense {
	return elastic.MustCurve([][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 0.5}})
}

func TestProjectorNeedsPlane(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	_, err := NewProjector(srv.NewMetric(ambient.R3), Options{})
	assert.ErrorIs(t, err, srv.ErrUnsupportedGeometry)
	_, err = NewProjector(srv.NewMetric(ambient.Hypersphere{N: 2}), Options{})
	assert.ErrorIs(t, err, srv.ErrUnsupportedGeometry)
	_, err = NewProjector(nil, Options{})
	assert.ErrorIs(t, err, srv.ErrInvalidInput)
	p, err := NewProjector(srv.NewMetric(ambient.R2), Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxIter, p.Options().MaxIter)
	assert.Equal(t, elastic.DefaultTolerance().Atol, p.Options().Atol)
}

func TestResidual(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	q := elastic.MustCurve([][]float64{{1, 0}, {0, 2}, {-1, 0}})
	assert.Equal(t, elastic.P(0, 4), Residual(q))
}

func TestProjectSRVClosesCurve(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	m := srv.NewMetric(ambient.R2)
	p, err := NewProjector(m, Options{Atol: 1e-6})
	require.NoError(t, err)
	q, err := m.ToSRV(openCurve())
	require.NoError(t, err)
	proj, result, err := p.ProjectSRV(q)
	require.NoError(t, err)
	t.Logf("projection: %d iterations, residual %g", result.Iterations, result.Residual)
	assert.True(t, result.Residual < 1e-6 || result.Iterations == p.Options().MaxIter)
	assert.InDelta(t, Residual(proj).Abs(), result.Residual, 1e-15)
	assert.Greater(t, result.Iterations, 0)
	assert.InDelta(t, m.SRVNorm(q), m.SRVNorm(proj), 1e-9)
	// argument is unchanged
	q2, err := m.ToSRV(openCurve())
	require.NoError(t, err)
	assert.True(t, mat.Equal(q, q2))
}

func TestProjectionIsIdempotent(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	m := srv.NewMetric(ambient.R2)
	p, err := NewProjector(m, Options{Atol: 1e-6})
	require.NoError(t, err)
	q, err := m.ToSRV(openCurve())
	require.NoError(t, err)
	once, result, err := p.ProjectSRV(q)
	require.NoError(t, err)
	if !result.Converged {
		t.Skipf("projection did not converge within %d iterations", result.Iterations)
	}
	twice, result2, err := p.ProjectSRV(once)
	require.NoError(t, err)
	assert.Equal(t, 0, result2.Iterations)
	assert.True(t, result2.Converged)
	assert.True(t, mat.EqualApprox(once, twice, 1e-6))
}

func TestProjectCurve(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	m := srv.NewMetric(ambient.R2)
	p, err := NewProjector(m, Options{Atol: 1e-8})
	require.NoError(t, err)
	curve := openCurve()
	closedCurve, result, err := p.Project(curve)
	require.NoError(t, err)
	n, dim := closedCurve.Dims()
	require.Equal(t, 4, n)
	require.Equal(t, 2, dim)
	assert.Equal(t, elastic.Row(curve, 0), elastic.Row(closedCurve, 0))
	start := elastic.P(closedCurve.At(0, 0), closedCurve.At(0, 1))
	end := elastic.P(closedCurve.At(n-1, 0), closedCurve.At(n-1, 1))
	if result.Converged {
		// end point is start + G/(n-1)
		assert.Less(t, (end - start).Abs(), 1e-8)
	}
	assert.False(t, math.IsNaN(end.X()) || math.IsNaN(end.Y()))
}

func TestProjectSRVInvalidInput(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	p, err := NewProjector(srv.NewMetric(ambient.R2), Options{})
	require.NoError(t, err)
	_, _, err = p.ProjectSRV(mat.NewDense(3, 3, nil))
	assert.ErrorIs(t, err, srv.ErrInvalidInput)
	_, _, err = p.ProjectSRV(elastic.MustCurve([][]float64{{1, 0}, {0, 0}, {0, 1}}))
	assert.ErrorIs(t, err, srv.ErrDegenerateCurve)
	_, _, err = p.Project(elastic.MustCurve([][]float64{{0, 0}, {0, 0}, {1, 0}}))
	assert.ErrorIs(t, err, srv.ErrDegenerateCurve)
	var missing *mat.Dense
	_, _, err = p.ProjectSRV(missing)
	assert.ErrorIs(t, err, srv.ErrInvalidInput)
	_, _, err = p.Project(missing)
	assert.ErrorIs(t, err, srv.ErrInvalidInput)
}

func TestIterationCap(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	m := srv.NewMetric(ambient.R2)
	p, err := NewProjector(m, Options{Atol: 1e-300, MaxIter: 3})
	require.NoError(t, err)
	q, err := m.ToSRV(openCurve())
	require.NoError(t, err)
	_, result, err := p.ProjectSRV(q)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Iterations)
	assert.False(t, result.Converged)
}

func TestSymFromUpper(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	sym := symFromUpper(3, []float64{1, 2, 3, 4, 5, 6})
	want := mat.NewDense(3, 3, []float64{
		1, 2, 3,
		2, 4, 5,
		3, 5, 6,
	})
	assert.True(t, mat.Equal(want, sym))
}
