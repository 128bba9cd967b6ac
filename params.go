package littleplanet

import (
	"errors"
	"fmt"
)

// Configuration errors returned by Params.Validate. They are detected
// before any per-pixel work starts, so a failed validation never produces
// a partial output buffer.
var (
	// ErrNonPositiveScale reports a zoom factor that is zero or negative.
	ErrNonPositiveScale = errors.New("littleplanet: scale must be positive")

	// ErrNonPositiveSize reports an output or source dimension that is
	// zero or negative.
	ErrNonPositiveSize = errors.New("littleplanet: dimensions must be positive")
)

// EdgePolicy controls what happens to samples whose texture coordinate
// falls outside [0,1].
//
// The two evaluators historically diverge here: the banded CPU path wraps
// via modulo arithmetic while the fragment path discards, leaving the
// pixel transparent. Both policies are available on both paths; each path
// keeps its historical default.
type EdgePolicy uint8

const (
	// EdgeWrap wraps out-of-range coordinates around the source image
	// using floored modulo. The CPU raster default.
	EdgeWrap EdgePolicy = iota

	// EdgeDiscard leaves pixels whose coordinate falls outside [0,1]
	// fully transparent. The fragment shader default.
	EdgeDiscard
)

// String returns the policy name.
func (p EdgePolicy) String() string {
	switch p {
	case EdgeWrap:
		return "Wrap"
	case EdgeDiscard:
		return "Discard"
	default:
		return "Unknown"
	}
}

// ZClamp controls how the rotated z coordinate is clamped before the
// latitude arccosine.
//
// The rotated point sits on the projection sphere up to floating point
// noise, so the clamp only ever trims a few ulps. The CPU path declares an
// upper clamp, the shader a symmetric one; both modes guard the full acos
// domain and produce identical output for on-sphere points. The enum keeps
// each evaluator's declared mode explicit.
type ZClamp uint8

const (
	// ZClampUpper clamps z to at most the sphere radius. The CPU raster
	// default.
	ZClampUpper ZClamp = iota

	// ZClampBoth clamps z into [-radius, radius]. The fragment shader
	// default.
	ZClampBoth
)

// String returns the clamp mode name.
func (z ZClamp) String() string {
	switch z {
	case ZClampUpper:
		return "Upper"
	case ZClampBoth:
		return "Both"
	default:
		return "Unknown"
	}
}

// RadiusDivisor fixes the projection sphere radius relative to the output:
// radius = min(width, height) / RadiusDivisor * scale.
const RadiusDivisor = 10

// Params is the shared parameter contract of every evaluator.
//
// Both the CPU raster path and the GPU fragment path consume the exact
// same struct, so a parameter change produces equivalent output on either
// path (up to the documented sampling differences).
type Params struct {
	// Scale is the zoom factor applied to the projection sphere radius.
	// Must be positive; values below 1 zoom out, above 1 zoom in.
	Scale float64

	// Alpha, Beta and Gamma are the Euler rotation angles in radians
	// around the X, Y and Z axes. The combined rotation is applied as
	// Z(gamma) * Y(beta) * X(alpha).
	Alpha float64
	Beta  float64
	Gamma float64

	// OffsetHor and OffsetVer shift the projection center. 0.5 is
	// centered; the offset in pixels is (offset-0.5) times the output
	// dimension.
	OffsetHor float64
	OffsetVer float64

	// Width and Height are the output dimensions in pixels.
	Width  int
	Height int
}

// Validate checks the parameter invariants. It is called by every
// evaluator before the per-pixel loop; an invalid set of parameters is
// rejected without touching the output buffer.
func (p Params) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: output %dx%d", ErrNonPositiveSize, p.Width, p.Height)
	}
	if !(p.Scale > 0) {
		return fmt.Errorf("%w: got %v", ErrNonPositiveScale, p.Scale)
	}
	return nil
}

// Radius returns the projection sphere radius in output pixels,
// min(Width, Height)/10 scaled by Scale.
func (p Params) Radius() float64 {
	m := p.Width
	if p.Height < m {
		m = p.Height
	}
	return float64(m) / RadiusDivisor * p.Scale
}

// DefaultParams returns centered, unrotated parameters at scale 1 for the
// given output size.
func DefaultParams(width, height int) Params {
	return Params{
		Scale:     1,
		OffsetHor: 0.5,
		OffsetVer: 0.5,
		Width:     width,
		Height:    height,
	}
}
