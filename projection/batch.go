package projection

//go:generate hwygen -input $GOFILE -output . -targets avx2,fallback

import (
	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-highway/hwy/contrib/math"
)

// BaseMapRowUV computes normalized equirectangular coordinates for one
// scanline of output pixels.
//
// planeYs holds the horizontal plane coordinates of the scanline (column
// index plus horizontal offset), planeX the shared vertical plane
// coordinate of the row. The rotation matrix m is row-major. Results are
// written to us and vs, which must be at least len(planeYs) long.
//
// The acos argument is clamped into [-1, 1] before the call.
func BaseMapRowUV[T hwy.Floats](planeYs, us, vs []T, planeX, radius T, m *[9]T) {
	size := min(len(planeYs), min(len(us), len(vs)))

	vX := hwy.Set(planeX)
	vR := hwy.Set(radius)
	vR2 := hwy.Mul(vR, vR)
	vTwoR2 := hwy.Mul(hwy.Set(T(2)), vR2)
	vX2 := hwy.Mul(vX, vX)
	vOne := hwy.Set(T(1))
	vNegOne := hwy.Set(T(-1))
	vHalf := hwy.Set(T(0.5))
	vInvPi := hwy.Set(T(1 / pi))
	vInv2Pi := hwy.Set(T(1 / (2 * pi)))

	m0 := hwy.Set(m[0])
	m1 := hwy.Set(m[1])
	m2 := hwy.Set(m[2])
	m3 := hwy.Set(m[3])
	m4 := hwy.Set(m[4])
	m5 := hwy.Set(m[5])
	m6 := hwy.Set(m[6])
	m7 := hwy.Set(m[7])
	m8 := hwy.Set(m[8])

	for ii := 0; ii < size; ii += vR.NumLanes() {
		y := hwy.Load(planeYs[ii:])

		// k = 2r^2 / (x^2 + y^2 + r^2)
		denom := hwy.Add(hwy.Add(vX2, hwy.Mul(y, y)), vR2)
		k := hwy.Div(vTwoR2, denom)

		// Sphere point before rotation.
		px := hwy.Mul(k, vX)
		py := hwy.Mul(k, y)
		pz := hwy.Mul(hwy.Sub(k, vOne), vR)

		// Rotate.
		rx := hwy.MulAdd(m0, px, hwy.MulAdd(m1, py, hwy.Mul(m2, pz)))
		ry := hwy.MulAdd(m3, px, hwy.MulAdd(m4, py, hwy.Mul(m5, pz)))
		rz := hwy.MulAdd(m6, px, hwy.MulAdd(m7, py, hwy.Mul(m8, pz)))

		// Latitude.
		ratio := hwy.Div(rz, vR)
		ratio = hwy.Max(vNegOne, hwy.Min(vOne, ratio))
		v := hwy.Mul(math.Acos(ratio), vInvPi)

		// Longitude.
		u := hwy.MulAdd(math.Atan2(ry, rx), vInv2Pi, vHalf)

		hwy.Store(u, us[ii:])
		hwy.Store(v, vs[ii:])
	}
}

const pi = 3.14159265358979323846264338327950288419716939937510582097494459

// MapRowUV is the float64 entry point used by the vectorized raster path.
// It dispatches to the portable kernel; generated per-target variants from
// hwygen replace the hot loop on capable CPUs.
//
// All three slices must be padded to a multiple of the vector lane count,
// or the final partial load will read past the end.
func MapRowUV(planeYs, us, vs []float64, planeX, radius float64, m *Matrix) {
	BaseMapRowUV(planeYs, us, vs, planeX, radius, (*[9]float64)(m))
}
