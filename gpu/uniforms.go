// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/littleplanet"
)

// uniformSize is the byte size of the shader uniform block.
// Layout (std140-compatible, 48 bytes total):
//
//	resolution (vec2<f32>) at  0
//	offset     (vec2<f32>) at  8
//	angles     (vec3<f32>) at 16
//	scale      (f32)       at 28
//	radius     (f32)       at 32
//	padding                at 36..47
const uniformSize = 48

// Uniforms is the parameter block shared with the fragment shader. The
// shader derives the rotation matrix from the angles, so CPU and GPU
// consume the exact same eight scalars.
type Uniforms struct {
	ResolutionX float32
	ResolutionY float32

	// OffsetX and OffsetY are the plane offsets in pixels, in the order
	// the mapping adds them: X to the row, Y to the column.
	OffsetX float32
	OffsetY float32

	Alpha float32
	Beta  float32
	Gamma float32

	Scale  float32
	Radius float32
}

// UniformsFromParams converts validated parameters to the shader block.
func UniformsFromParams(p littleplanet.Params) Uniforms {
	return Uniforms{
		ResolutionX: float32(p.Width),
		ResolutionY: float32(p.Height),
		OffsetX:     float32((p.OffsetVer - 0.5) * float64(p.Height)),
		OffsetY:     float32((p.OffsetHor - 0.5) * float64(p.Width)),
		Alpha:       float32(p.Alpha),
		Beta:        float32(p.Beta),
		Gamma:       float32(p.Gamma),
		Scale:       float32(p.Scale),
		Radius:      float32(p.Radius()),
	}
}

// Pack serializes the block into the 48-byte wire layout.
func (u Uniforms) Pack() []byte {
	buf := make([]byte, uniformSize)
	putF32 := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
	}
	putF32(0, u.ResolutionX)
	putF32(4, u.ResolutionY)
	putF32(8, u.OffsetX)
	putF32(12, u.OffsetY)
	putF32(16, u.Alpha)
	putF32(20, u.Beta)
	putF32(24, u.Gamma)
	putF32(28, u.Scale)
	putF32(32, u.Radius)
	// Padding bytes 36..47 remain zero.
	return buf
}
