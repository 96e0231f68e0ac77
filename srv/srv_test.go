package srv

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/npillmayer/elastic"
	"github.com/npillmayer/elastic/ambient"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func rows(m mat.Matrix) [][]float64 {
	r, _ := m.Dims()
	rs := make([][]float64, r)
	for i := range rs {
		rs[i] = elastic.Row(m, i)
	}
	return rs
}

func approx(atol float64) cmp.Option {
	return cmpopts.EquateApprox(0, atol)
}

func randomCurve(t *testing.T, rng *rand.Rand, n int) *mat.Dense {
	t.Helper()
	c, err := Curves{Ambient: ambient.R2}.RandomPoint(rng, n, 1)
	require.NoError(t, err)
	return c
}

func randomField(rng *rand.Rand, n, dim int, scale float64) *mat.Dense {
	v := mat.NewDense(n, dim, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < dim; j++ {
			v.Set(i, j, scale*rng.NormFloat64())
		}
	}
	return v
}

var close8 = elastic.Tolerance{Atol: 1e-8, Rtol: 1e-8}

// --- Tests -----------------------------------------------------------------

func TestStraightSegmentSRV(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	curve := elastic.MustCurve([][]float64{{0, 0}, {1, 0}, {2, 0}})
	q, err := ToSRV(ambient.R2, curve)
	require.NoError(t, err)
	want := [][]float64{{math.Sqrt2, 0}, {math.Sqrt2, 0}}
	if diff := cmp.Diff(want, rows(q), approx(1e-12)); diff != "" {
		t.Errorf("SRV of straight segment mismatch (-want +got):\n%s", diff)
	}
	back, err := FromSRV(ambient.R2, q, []float64{0, 0})
	require.NoError(t, err)
	if diff := cmp.Diff(rows(curve), rows(back), approx(1e-12)); diff != "" {
		t.Errorf("SRV inverse mismatch (-want +got):\n%s", diff)
	}
}

func TestSRVRoundTrip(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	rng := rand.New(rand.NewPCG(7, 11))
	for _, dim := range []int{2, 3} {
		e := ambient.Euclidean{N: dim}
		space := Curves{Ambient: e}
		for k := 0; k < 5; k++ {
			curve, err := space.RandomPoint(rng, 12, 2)
			require.NoError(t, err)
			q, err := ToSRV(e, curve)
			require.NoError(t, err)
			back, err := FromSRV(e, q, elastic.Row(curve, 0))
			require.NoError(t, err)
			assert.True(t, elastic.AllClose(back, curve, close8), "round trip failed for dim %d", dim)
		}
	}
}

func TestSRVDegenerate(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	curve := elastic.MustCurve([][]float64{{0, 0}, {1, 0}, {1, 0}, {2, 0}})
	_, err := ToSRV(ambient.R2, curve)
	assert.ErrorIs(t, err, ErrDegenerateCurve)
	_, err = ToSRV(ambient.R2, elastic.MustCurve([][]float64{{0, 0}}))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSRVBatchMasksBoundaries(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	// second curve starts where the first one ends: the segment bridging
	// the two curves has zero length and must not enter the result
	a := elastic.CurveFromPairs(elastic.P(0, 0), elastic.P(1, 0), elastic.P(1, 1))
	b := elastic.CurveFromPairs(elastic.P(1, 1), elastic.P(3, 1), elastic.P(3, 4))
	batch, err := elastic.NewBatch(a, b)
	require.NoError(t, err)
	srvs, err := ToSRVBatch(ambient.R2, batch)
	require.NoError(t, err)
	require.Len(t, srvs, 2)
	for k, c := range []*mat.Dense{a, b} {
		q, err := ToSRV(ambient.R2, c)
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(q, srvs[k], 1e-12), "curve %d", k)
	}
}

func TestSRVOnSphere(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	s2 := ambient.Hypersphere{N: 2}
	curve := elastic.MustCurve([][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	q, err := ToSRV(s2, curve)
	require.NoError(t, err)
	// speed of each segment is 2·π/2 = π, SRV norm is sqrt(π)
	norms := NewMetric(s2).PointwiseNorm(q, nil)
	assert.InDeltaSlice(t, []float64{math.Sqrt(math.Pi), math.Sqrt(math.Pi)}, norms, 1e-12)
}

func TestUnsupportedGeometry(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	s2 := ambient.Hypersphere{N: 2}
	m := NewMetric(s2)
	curve := elastic.MustCurve([][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	v := mat.NewDense(3, 3, nil)
	_, err := FromSRV(s2, mat.NewDense(2, 3, nil), []float64{1, 0, 0})
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)
	_, err = Differential(s2, v, curve)
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)
	_, err = m.InnerProduct(v, v, curve)
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)
	_, err = m.Exp(v, curve)
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)
	_, err = m.Log(curve, curve)
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)
	_, err = m.Dist(curve, curve)
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)
	_, err = m.Geodesic(curve, curve, nil)
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)
}

func TestInnerProductProperties(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	rng := rand.New(rand.NewPCG(3, 5))
	m := NewMetric(ambient.R2)
	for k := 0; k < 5; k++ {
		curve := randomCurve(t, rng, 10)
		u := randomField(rng, 10, 2, 1)
		v := randomField(rng, 10, 2, 1)
		uv, err := m.InnerProduct(u, v, curve)
		require.NoError(t, err)
		vu, err := m.InnerProduct(v, u, curve)
		require.NoError(t, err)
		assert.InDelta(t, uv, vu, 1e-9*math.Max(1, math.Abs(uv)))
		uu, err := m.InnerProduct(u, u, curve)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, uu, 0.0)
		norm, err := m.Norm(u, curve)
		require.NoError(t, err)
		assert.InDelta(t, math.Sqrt(uu), norm, 1e-12)
		pip := m.PointwiseInnerProduct(u, u, curve)
		for i, pn := range m.PointwiseNorm(u, curve) {
			assert.InDelta(t, math.Sqrt(pip[i]), pn, 1e-12)
		}
	}
}

func TestDifferentialMatchesFiniteDifferences(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	rng := rand.New(rand.NewPCG(13, 17))
	const n, h = 8, 1e-6
	curve := randomCurve(t, rng, n)
	v := randomField(rng, n, 2, 1)
	dsrv, err := Differential(ambient.R2, v, curve)
	require.NoError(t, err)
	var plus, minus mat.Dense
	plus.Add(curve, scaled(h, v))
	minus.Sub(curve, scaled(h, v))
	qp, err := ToSRV(ambient.R2, &plus)
	require.NoError(t, err)
	qm, err := ToSRV(ambient.R2, &minus)
	require.NoError(t, err)
	var fd mat.Dense
	fd.Sub(qp, qm)
	// Differential takes velocities with factor n, ToSRV with factor n-1
	fd.Scale(math.Sqrt(float64(n)/float64(n-1))/(2*h), &fd)
	assert.True(t, mat.EqualApprox(dsrv, &fd, 1e-5), "analytic and numeric differential differ")
}

func scaled(a float64, m mat.Matrix) *mat.Dense {
	var s mat.Dense
	s.Scale(a, m)
	return &s
}

func TestExpLogInverse(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	rng := rand.New(rand.NewPCG(19, 23))
	m := NewMetric(ambient.R2)
	for k := 0; k < 5; k++ {
		base := randomCurve(t, rng, 10)
		point := randomCurve(t, rng, 10)
		log, err := m.Log(point, base)
		require.NoError(t, err)
		back, err := m.Exp(log, base)
		require.NoError(t, err)
		assert.True(t, elastic.AllClose(back, point, close8), "exp(log(p)) != p")
		v := randomField(rng, 10, 2, 0.05)
		end, err := m.Exp(v, base)
		require.NoError(t, err)
		vv, err := m.Log(end, base)
		require.NoError(t, err)
		assert.True(t, elastic.AllClose(vv, v, close8), "log(exp(v)) != v")
	}
}

func TestLogOfTranslation(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	m := NewMetric(ambient.R2)
	base := elastic.CurveFromPairs(elastic.P(0, 0), elastic.P(1, 0), elastic.P(2, 1))
	moved, err := elastic.TransformCurve(elastic.Translation(elastic.P(3, -1)), base)
	require.NoError(t, err)
	log, err := m.Log(moved, base)
	require.NoError(t, err)
	want := [][]float64{{3, -1}, {3, -1}, {3, -1}}
	if diff := cmp.Diff(want, rows(log), approx(1e-12)); diff != "" {
		t.Errorf("log of translated curve mismatch (-want +got):\n%s", diff)
	}
}

func TestDistProperties(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	rng := rand.New(rand.NewPCG(29, 31))
	m := NewMetric(ambient.R2)
	for k := 0; k < 5; k++ {
		a := randomCurve(t, rng, 9)
		b := randomCurve(t, rng, 9)
		dab, err := m.Dist(a, b)
		require.NoError(t, err)
		dba, err := m.Dist(b, a)
		require.NoError(t, err)
		assert.InDelta(t, dab, dba, 1e-12)
		assert.Greater(t, dab, 0.0)
		daa, err := m.Dist(a, a)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, daa, 1e-12)
		rot := elastic.Rotation(0.7)
		ra, err := elastic.TransformCurve(rot, a)
		require.NoError(t, err)
		rb, err := elastic.TransformCurve(rot, b)
		require.NoError(t, err)
		drot, err := m.Dist(ra, rb)
		require.NoError(t, err)
		assert.InDelta(t, dab, drot, 1e-9)
	}
	_, err := m.Dist(randomCurve(t, rng, 4), randomCurve(t, rng, 5))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGeodesicBoundaryValues(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	rng := rand.New(rand.NewPCG(37, 41))
	m := NewMetric(ambient.R2)
	initial := randomCurve(t, rng, 10)
	end := randomCurve(t, rng, 10)
	geod, err := m.Geodesic(initial, end, nil)
	require.NoError(t, err)
	path, err := geod.At([]float64{0, 0.25, 0.5, 1})
	require.NoError(t, err)
	require.Len(t, path, 4)
	assert.True(t, elastic.AllClose(path[0], initial, close8))
	assert.True(t, elastic.AllClose(path[3], end, close8))
	// the same geodesic, given by its initial tangent
	byTangent, err := m.Geodesic(initial, nil, geod.Tangent())
	require.NoError(t, err)
	mid, err := byTangent.Point(0.5)
	require.NoError(t, err)
	assert.True(t, elastic.AllClose(mid, path[2], close8))
	// both controls, consistent
	_, err = m.Geodesic(initial, end, geod.Tangent())
	assert.NoError(t, err)
}

func TestGeodesicInputErrors(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	rng := rand.New(rand.NewPCG(43, 47))
	m := NewMetric(ambient.R2)
	initial := randomCurve(t, rng, 6)
	end := randomCurve(t, rng, 6)
	_, err := m.Geodesic(initial, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	var none *mat.Dense
	_, err = m.Geodesic(initial, none, none)
	assert.ErrorIs(t, err, ErrInvalidInput)
	wrong := randomField(rng, 6, 2, 1)
	_, err = m.Geodesic(initial, end, wrong)
	assert.ErrorIs(t, err, ErrInconsistentShootingVector)
}

func TestSpaceDerivative(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	const n = 5
	line := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		line.Set(i, 0, float64(i)/(n-1))
	}
	deriv, err := NewMetric(ambient.R2).SpaceDerivative(line)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		assert.InDelta(t, float64(n)/(n-1), deriv.At(i, 0), 1e-12, "row %d", i)
		assert.InDelta(t, 0.0, deriv.At(i, 1), 1e-12, "row %d", i)
	}
	_, err = SpaceDerivative(mat.NewDense(1, 2, nil))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCurvesSpace(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	rng := rand.New(rand.NewPCG(53, 59))
	space := NewMetric(ambient.Hypersphere{N: 2}).Space()
	batch, err := space.RandomBatch(rng, 3, 6, 1)
	require.NoError(t, err)
	require.Equal(t, 3, batch.Len())
	curve := batch.Curve(1)
	assert.True(t, space.Belongs(curve, 1e-9))
	assert.False(t, space.Belongs(mat.NewDense(6, 3, nil), 1e-9))
	v := randomField(rng, 6, 3, 1)
	assert.False(t, space.IsTangent(v, curve, 1e-9))
	tv, err := space.ToTangent(v, curve)
	require.NoError(t, err)
	assert.True(t, space.IsTangent(tv, curve, 1e-9))
	srvs, err := ToSRVBatch(ambient.Hypersphere{N: 2}, batch)
	require.NoError(t, err)
	r, c := srvs[2].Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 3, c)
}
