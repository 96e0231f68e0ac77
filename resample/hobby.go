package resample

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"strings"

	"github.com/npillmayer/elastic"
	"gonum.org/v1/gonum/mat"
)

/*
Hobby splines for planar curves. The primary source of information is:

   Smooth, Easy to Compute Interpolating Splines -- John D. Hobby
   Computer Science Dept. Stanford University
   Report No. STAN-CS-85-1047, Jan 1985

The practical algorithm is explained in Computers & Typesetting, Vol. B.
Curves are interpolated as open paths with curl 1 at both ends and tension 1
at every knot, which is what MetaFont does for a path z0..z1..zn.
*/

const epsilon = 1e-7

// HobbySpline is a planar curve through its knots, one cubic Bézier segment
// between consecutive knots. Knot i sits at parameter params[i].
type HobbySpline struct {
	params []float64
	knots  []elastic.Pair
	post   []elastic.Pair // post[i] is the control point leaving knot i
	pre    []elastic.Pair // pre[i] is the control point entering knot i+1
}

// NewHobby finds Hobby's control points for the planar curve values, with
// knot i placed at params[i]. Consecutive knots must be distinct.
func NewHobby(params []float64, values mat.Matrix) (*HobbySpline, error) {
	n, dim := values.Dims()
	if dim != 2 {
		return nil, fmt.Errorf("%w: Hobby splines are planar, have dimension %d", ErrShape, dim)
	}
	if err := validate(params, n, 2); err != nil {
		return nil, err
	}
	knots, err := elastic.Pairs(values)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n-1; i++ {
		if (knots[i+1] - knots[i]).Abs() <= epsilon {
			return nil, fmt.Errorf("%w: degenerate segment between knots %d and %d", ErrShape, i, i+1)
		}
	}
	h := &HobbySpline{
		params: append([]float64(nil), params...),
		knots:  knots,
		post:   make([]elastic.Pair, n-1),
		pre:    make([]elastic.Pair, n-1),
	}
	h.setControls(h.solveOpen())
	tracer().Debugf("Hobby spline: %s", h)
	return h, nil
}

// N is the number of knots.
func (h *HobbySpline) N() int {
	return len(h.knots)
}

// Controls returns the two control points of segment i, i.e. the post-control
// of knot i and the pre-control of knot i+1.
func (h *HobbySpline) Controls(i int) (elastic.Pair, elastic.Pair) {
	return h.post[i], h.pre[i]
}

// At evaluates the spline at parameter x.
func (h *HobbySpline) At(x float64) []float64 {
	z := h.Point(x)
	return []float64{z.X(), z.Y()}
}

// Point evaluates the spline at parameter x.
func (h *HobbySpline) Point(x float64) elastic.Pair {
	last := len(h.knots) - 1
	x = clamp(x, h.params[0], h.params[last])
	i := sort.SearchFloat64s(h.params, x) - 1
	i = max(0, min(i, last-1))
	t := (x - h.params[i]) / (h.params[i+1] - h.params[i])
	return bezier(h.knots[i], h.post[i], h.pre[i], h.knots[i+1], t)
}

// Resample evaluates the spline at every parameter of xs.
func (h *HobbySpline) Resample(xs []float64) *mat.Dense {
	return resample(h, xs, 2)
}

// String returns the spline in a MetaFont-like notation, e.g.
//
//	(1,1) .. controls (1.0000,1.5523) and (1.4477,2.0000)
//	  .. (2,2)
func (h *HobbySpline) String() string {
	var b strings.Builder
	for i, z := range h.knots {
		if i > 0 {
			fmt.Fprintf(&b, " and %s\n  .. ", ptstring(h.pre[i-1], true))
		}
		b.WriteString(ptstring(z, false))
		if i < len(h.post) {
			fmt.Fprintf(&b, " .. controls %s", ptstring(h.post[i], true))
		}
	}
	return b.String()
}

// --- Solver ----------------------------------------------------------------

func (h *HobbySpline) delta(i int) elastic.Pair {
	return h.knots[i+1] - h.knots[i]
}

func (h *HobbySpline) d(i int) float64 {
	return h.delta(i).Abs()
}

// psi is the turning angle at knot i, zero at the ends of the path.
func (h *HobbySpline) psi(i int) float64 {
	if i <= 0 || i >= len(h.knots)-1 {
		return 0
	}
	return reduceAngle(angle(h.delta(i)) - angle(h.delta(i-1)))
}

// solveOpen computes the angles theta between the outgoing direction and the
// chord at every knot. The tridiagonal system for theta is solved by a
// forward sweep (u, v) followed by back substitution.
func (h *HobbySpline) solveOpen() []float64 {
	n := len(h.knots)
	last := n - 1
	theta := make([]float64, n)
	if n == 2 {
		return theta // straight line
	}
	u := make([]float64, n)
	v := make([]float64, n)
	u[0] = 1 // curl 1, tension 1
	v[0] = -u[0] * h.psi(1)
	for i := 1; i < last; i++ {
		A := 1 / h.d(i-1)
		B := 2 / h.d(i-1)
		C := 2 / h.d(i)
		D := 1 / h.d(i)
		t := B - u[i-1]*A + C
		u[i] = D / t
		v[i] = (-B*h.psi(i) - D*h.psi(i+1) - A*v[i-1]) / t
		tracer().Debugf("u.%d = %.4g, v.%d = %.4g", i, u[i], i, v[i])
	}
	u[last] = 1
	theta[last] = v[last-1] / (u[last-1] - u[last])
	for i := last - 1; i >= 0; i-- {
		theta[i] = v[i] - u[i]*theta[i+1]
	}
	return theta
}

func (h *HobbySpline) setControls(theta []float64) {
	for i := range h.post {
		phi := -h.psi(i+1) - theta[i+1]
		rho, sigma := velocities(theta[i], phi)
		dvec := h.delta(i)
		h.post[i] = h.knots[i] + rotate(dvec, theta[i]).Scaled(rho/3)
		h.pre[i] = h.knots[i+1] - rotate(dvec, -phi).Scaled(sigma/3)
	}
}

// velocities are Hobby's relative control point distances rho and sigma for
// in-angle theta and out-angle phi.
func velocities(theta, phi float64) (float64, float64) {
	const (
		a  = math.Sqrt2          // empiric constants, as explained by J.Hobby
		b  = 0.0625              // 1/16
		c  = 0.38196601125010515 // (3 - sqrt(5)) / 2
		cc = 1 - c
	)
	st, ct := math.Sincos(theta)
	sf, cf := math.Sincos(phi)
	alpha := a * (st - b*sf) * (sf - b*st) * (ct - cf)
	beta := 1 + cc*ct + c*cf
	return (2 + alpha) / beta, (2 - alpha) / beta
}

func bezier(z0, c1, c2, z1 elastic.Pair, t float64) elastic.Pair {
	s := 1 - t
	return z0.Scaled(s*s*s) + c1.Scaled(3*s*s*t) + c2.Scaled(3*s*t*t) + z1.Scaled(t*t*t)
}

func rotate(p elastic.Pair, phi float64) elastic.Pair {
	return elastic.Pair(p.C() * cmplx.Rect(1, phi))
}

func angle(p elastic.Pair) float64 {
	return cmplx.Phase(p.C())
}

// Reduce an angle to fit into -pi .. pi.
func reduceAngle(a float64) float64 {
	if math.Abs(a) > math.Pi {
		if a > 0 {
			a -= 2 * math.Pi
		} else {
			a += 2 * math.Pi
		}
	}
	return a
}

func ptstring(p elastic.Pair, iscontrol bool) string {
	if iscontrol {
		return fmt.Sprintf("(%.4f,%.4f)", p.X(), p.Y())
	}
	return fmt.Sprintf("(%.4g,%.4g)", p.X(), p.Y())
}
