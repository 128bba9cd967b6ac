// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/littleplanet"
)

func f32At(t *testing.T, buf []byte, off int) float32 {
	t.Helper()
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
}

func TestUniformsFromParams(t *testing.T) {
	p := littleplanet.Params{
		Scale: 2, Alpha: 0.1, Beta: 0.2, Gamma: 0.3,
		OffsetHor: 0.75, OffsetVer: 0.25, Width: 800, Height: 600,
	}
	u := UniformsFromParams(p)

	if u.ResolutionX != 800 || u.ResolutionY != 600 {
		t.Errorf("resolution = (%v, %v)", u.ResolutionX, u.ResolutionY)
	}
	// (0.25-0.5)*600 and (0.75-0.5)*800.
	if u.OffsetX != -150 || u.OffsetY != 200 {
		t.Errorf("offsets = (%v, %v), want (-150, 200)", u.OffsetX, u.OffsetY)
	}
	if u.Radius != 120 {
		t.Errorf("radius = %v, want 120", u.Radius)
	}
}

func TestUniformsPackLayout(t *testing.T) {
	u := Uniforms{
		ResolutionX: 1, ResolutionY: 2,
		OffsetX: 3, OffsetY: 4,
		Alpha: 5, Beta: 6, Gamma: 7,
		Scale: 8, Radius: 9,
	}
	buf := u.Pack()

	if len(buf) != uniformSize {
		t.Fatalf("packed size = %d, want %d", len(buf), uniformSize)
	}

	wants := []struct {
		off  int
		want float32
	}{
		{0, 1}, {4, 2}, {8, 3}, {12, 4},
		{16, 5}, {20, 6}, {24, 7},
		{28, 8}, {32, 9},
	}
	for _, w := range wants {
		if got := f32At(t, buf, w.off); got != w.want {
			t.Errorf("offset %d = %v, want %v", w.off, got, w.want)
		}
	}

	// Padding stays zeroed.
	for off := 36; off < uniformSize; off++ {
		if buf[off] != 0 {
			t.Errorf("padding byte %d = %d", off, buf[off])
		}
	}
}
