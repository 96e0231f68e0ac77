package srv

import "errors"

var (
	// ErrUnsupportedGeometry indicates an operation requiring a flat (or flat
	// planar) ambient metric was called with a different one.
	ErrUnsupportedGeometry = errors.New("unsupported ambient geometry")
	// ErrInvalidInput indicates structurally invalid arguments, e.g. curves of
	// mismatching shape.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInconsistentShootingVector indicates that a supplied initial tangent
	// vector disagrees with the one implied by an end curve.
	ErrInconsistentShootingVector = errors.New("shooting vector is too far from initial tangent vector")
	// ErrDegenerateCurve indicates a curve with a zero (or non-finite) speed
	// segment, for which the SRV transform is undefined.
	ErrDegenerateCurve = errors.New("degenerate curve")
	// ErrNotConverged is a soft error: an iterative algorithm stopped at its
	// iteration limit. Results returned alongside it are usable but inexact.
	ErrNotConverged = errors.New("iteration did not converge")
)
