// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"image/color"

	"github.com/gogpu/littleplanet"
	"github.com/gogpu/littleplanet/projection"
)

// Supersample is the box filter grid per axis; every fragment averages
// Supersample*Supersample bilinear texture taps.
const Supersample = 8

// Fragment is the CPU transcription of the fragment shader stage for the
// output pixel centered at (fx, fy). It returns the averaged color and
// whether the fragment survives; ok == false means the shader would
// discard and the pixel stays transparent.
//
// The taps jitter in texture space: a one-texel window around the mapped
// coordinate, independent of zoom. The mapper must be built with
// littleplanet.ZClampBoth to match the shader's symmetric clamp.
func Fragment(fx, fy float64, m *projection.Mapper, frame *littleplanet.Frame) (color.NRGBA, bool) {
	u, v := m.UV(fx, fy)
	if projection.Discards(u, v) {
		return color.NRGBA{}, false
	}

	texelU := 1 / float64(frame.Width())
	texelV := 1 / float64(frame.Height())

	var r, g, b, a float64
	for i := 0; i < Supersample; i++ {
		for j := 0; j < Supersample; j++ {
			du := ((float64(i)+0.5)/Supersample - 0.5) * texelU
			dv := ((float64(j)+0.5)/Supersample - 0.5) * texelV
			sr, sg, sb, sa := frame.SampleBilinear(u+du, v+dv)
			r += float64(sr)
			g += float64(sg)
			b += float64(sb)
			a += float64(sa)
		}
	}

	const taps = Supersample * Supersample
	return color.NRGBA{
		R: uint8(r/taps + 0.5),
		G: uint8(g/taps + 0.5),
		B: uint8(b/taps + 0.5),
		A: uint8(a/taps + 0.5),
	}, true
}

// RenderReference evaluates the whole frame with Fragment. It is the
// software rendition of the shader pipeline: same math, same sampling,
// same discard rule, just slow. Tests compare Pipeline output against it.
func RenderReference(frame *littleplanet.Frame, p littleplanet.Params) ([]uint8, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	m := projection.NewMapperZ(p, littleplanet.ZClampBoth)
	out := make([]uint8, p.Width*p.Height*4)

	for row := 0; row < p.Height; row++ {
		for col := 0; col < p.Width; col++ {
			c, ok := Fragment(float64(col), float64(row), &m, frame)
			if !ok {
				continue
			}
			i := (row*p.Width + col) * 4
			out[i+0] = c.R
			out[i+1] = c.G
			out[i+2] = c.B
			out[i+3] = c.A
		}
	}
	return out, nil
}
