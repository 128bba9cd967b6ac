package projection

import (
	"math"
	"testing"

	"github.com/gogpu/littleplanet"
)

func TestMapRowUVMatchesScalar(t *testing.T) {
	p := littleplanet.Params{
		Scale: 1.4, Alpha: 0.6, Beta: -0.3, Gamma: 2.2,
		OffsetHor: 0.4, OffsetVer: 0.6, Width: 64, Height: 48,
	}
	m := NewMapperZ(p, littleplanet.ZClampBoth)
	rot := m.RotationMatrix()
	planeX, planeY := m.PlaneOffsets()

	const lanes = 8 // pad to the widest supported vector
	width := p.Width
	padded := (width + lanes - 1) / lanes * lanes

	planeYs := make([]float64, padded)
	us := make([]float64, padded)
	vs := make([]float64, padded)

	row := 17
	for col := 0; col < width; col++ {
		planeYs[col] = float64(col) + planeY
	}

	MapRowUV(planeYs, us, vs, float64(row)+planeX, m.Radius(), &rot)

	for col := 0; col < width; col++ {
		wantU, wantV := m.UV(float64(col), float64(row))
		if math.Abs(us[col]-wantU) > 1e-6 || math.Abs(vs[col]-wantV) > 1e-6 {
			t.Fatalf("col %d: kernel (%v, %v), scalar (%v, %v)", col, us[col], vs[col], wantU, wantV)
		}
	}
}

func TestMapRowUVFloat32(t *testing.T) {
	rot := Rotation(0.2, 0.4, -0.8)
	var m32 [9]float32
	for i, v := range rot {
		m32[i] = float32(v)
	}

	const n = 16
	planeYs := make([]float32, n)
	us := make([]float32, n)
	vs := make([]float32, n)
	for i := range planeYs {
		planeYs[i] = float32(i) - 8
	}

	BaseMapRowUV(planeYs, us, vs, 3, 60, &m32)

	mapper := Mapper{rot: rot, radius: 60, clamp: littleplanet.ZClampBoth}
	for i := range planeYs {
		wantU, wantV := mapper.UV(float64(planeYs[i]), 3)
		if math.Abs(float64(us[i])-wantU) > 1e-3 || math.Abs(float64(vs[i])-wantV) > 1e-3 {
			t.Fatalf("lane %d: kernel (%v, %v), scalar (%v, %v)", i, us[i], vs[i], wantU, wantV)
		}
	}
}
