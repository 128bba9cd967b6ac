// Package projection implements the pure math of the little planet
// mapping: an inverse stereographic unprojection from the output plane
// onto a sphere, an Euler rotation of the sphere, and the conversion of
// the rotated point back to equirectangular texture coordinates.
//
// Everything here is side-effect free and allocation free. The evaluators
// in raster and gpu build on these primitives; they never re-implement the
// math.
package projection

import (
	"math"

	"github.com/gogpu/littleplanet"
)

// Matrix is a 3x3 rotation matrix in row-major order.
type Matrix [9]float64

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Rotation builds the combined Euler rotation Z(gamma) * Y(beta) * X(alpha).
// Angles are in radians. The matrix is orthonormal, so its transpose is its
// inverse.
func Rotation(alpha, beta, gamma float64) Matrix {
	sa, ca := math.Sincos(alpha)
	sb, cb := math.Sincos(beta)
	sg, cg := math.Sincos(gamma)

	return Matrix{
		cg * cb, cg*sb*sa - sg*ca, cg*sb*ca + sg*sa,
		sg * cb, sg*sb*sa + cg*ca, sg*sb*ca - cg*sa,
		-sb, cb * sa, cb * ca,
	}
}

// Apply multiplies the matrix with the column vector (x, y, z).
func (m *Matrix) Apply(x, y, z float64) (rx, ry, rz float64) {
	rx = m[0]*x + m[1]*y + m[2]*z
	ry = m[3]*x + m[4]*y + m[5]*z
	rz = m[6]*x + m[7]*y + m[8]*z
	return rx, ry, rz
}

// Transpose returns the transposed matrix. For a rotation this is the
// inverse.
func (m *Matrix) Transpose() Matrix {
	return Matrix{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Unproject lifts the plane point (x, y) onto the sphere of radius r via
// the inverse stereographic projection from the south pole. The returned
// point satisfies px*px+py*py+pz*pz == r*r up to floating point noise.
func Unproject(x, y, r float64) (px, py, pz float64) {
	k := 2 * r * r / (x*x + y*y + r*r)
	return k * x, k * y, (k - 1) * r
}

// Mapper maps output pixels to normalized source coordinates for one set
// of projection parameters. The rotation matrix is computed once at
// construction and shared by every pixel of the pass.
//
// A Mapper is immutable and safe for concurrent use.
type Mapper struct {
	rot    Matrix
	radius float64
	planeX float64 // vertical plane offset added to the row index
	planeY float64 // horizontal plane offset added to the column index
	clamp  littleplanet.ZClamp
}

// NewMapper builds a Mapper from validated parameters.
func NewMapper(p littleplanet.Params) Mapper {
	return NewMapperZ(p, littleplanet.ZClampUpper)
}

// NewMapperZ builds a Mapper with an explicit z clamp mode.
func NewMapperZ(p littleplanet.Params, clamp littleplanet.ZClamp) Mapper {
	return Mapper{
		rot:    Rotation(p.Alpha, p.Beta, p.Gamma),
		radius: p.Radius(),
		planeX: (p.OffsetVer - 0.5) * float64(p.Height),
		planeY: (p.OffsetHor - 0.5) * float64(p.Width),
		clamp:  clamp,
	}
}

// Radius returns the projection sphere radius in output pixels.
func (m *Mapper) Radius() float64 { return m.radius }

// RotationMatrix returns the rotation applied by this mapper.
func (m *Mapper) RotationMatrix() Matrix { return m.rot }

// PlaneOffsets returns the plane-coordinate offsets derived from the
// normalized parameter offsets, in the (vertical, horizontal) order they
// are added to (row, col).
func (m *Mapper) PlaneOffsets() (x, y float64) { return m.planeX, m.planeY }

// UV maps the output pixel at column col and row row to normalized
// equirectangular coordinates. u is the longitude in [0,1), v the
// latitude in [0,1]. Fractional pixel positions are accepted so the
// fragment path can supersample.
func (m *Mapper) UV(col, row float64) (u, v float64) {
	x := row + m.planeX
	y := col + m.planeY

	px, py, pz := Unproject(x, y, m.radius)
	rx, ry, rz := m.rot.Apply(px, py, pz)

	ratio := rz / m.radius
	switch m.clamp {
	case littleplanet.ZClampUpper:
		if ratio > 1 {
			ratio = 1
		}
		// The lower bound only ever drifts below -1 by a few ulps;
		// guard it so Acos stays in its domain.
		if ratio < -1 {
			ratio = -1
		}
	case littleplanet.ZClampBoth:
		ratio = math.Max(-1, math.Min(1, ratio))
	}

	v = math.Acos(ratio) / math.Pi
	u = math.Atan2(ry, rx)/(2*math.Pi) + 0.5
	return u, v
}

// SourcePixel converts normalized coordinates into source pixel indices
// with wraparound. Both indices are always within [0,srcW) and [0,srcH)
// regardless of rounding, so callers index the source without bounds
// checks.
func SourcePixel(u, v float64, srcW, srcH int) (sx, sy int) {
	sx = WrapIndex(int(math.Round(u*float64(srcW))), srcW)
	sy = WrapIndex(int(math.Round(v*float64(srcH))), srcH)
	return sx, sy
}

// WrapIndex reduces i modulo n into [0, n) using floored division
// semantics, so negative indices wrap to the far edge.
func WrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Discards reports whether a texture coordinate falls outside the unit
// square and should be dropped under littleplanet.EdgeDiscard.
func Discards(u, v float64) bool {
	return u < 0 || u > 1 || v < 0 || v > 1
}
