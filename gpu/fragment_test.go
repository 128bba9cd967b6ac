// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"image/color"
	"math"
	"testing"

	"github.com/gogpu/littleplanet"
	"github.com/gogpu/littleplanet/projection"
)

func mustUniformFrame(t *testing.T, w, h int, c color.NRGBA) *littleplanet.Frame {
	t.Helper()
	f, err := littleplanet.NewUniformFrame(w, h, c)
	if err != nil {
		t.Fatalf("NewUniformFrame: %v", err)
	}
	return f
}

// A uniform source must come out of the box filter unchanged: all 64
// taps land on the same color, so the average is exact.
func TestFragmentUniformSourceIsExact(t *testing.T) {
	want := color.NRGBA{R: 40, G: 90, B: 160, A: 255}
	frame := mustUniformFrame(t, 64, 32, want)

	p := littleplanet.DefaultParams(160, 120)
	m := projection.NewMapperZ(p, littleplanet.ZClampBoth)

	for _, px := range []struct{ x, y float64 }{
		{80, 60}, {0, 0}, {159, 119}, {10, 110},
	} {
		got, ok := Fragment(px.x, px.y, &m, frame)
		if !ok {
			t.Fatalf("Fragment(%v, %v) discarded", px.x, px.y)
		}
		if got != want {
			t.Errorf("Fragment(%v, %v) = %v, want %v", px.x, px.y, got, want)
		}
	}
}

func TestFragmentMatchesSingleTapForSmoothRegion(t *testing.T) {
	// On a uniform frame the averaged fragment must equal a single
	// bilinear tap at the base coordinate.
	frame := mustUniformFrame(t, 16, 8, color.NRGBA{R: 200, A: 255})
	p := littleplanet.DefaultParams(32, 32)
	m := projection.NewMapperZ(p, littleplanet.ZClampBoth)

	u, v := m.UV(16, 16)
	r, g, b, a := frame.SampleBilinear(u, v)
	got, ok := Fragment(16, 16, &m, frame)
	if !ok {
		t.Fatal("center fragment discarded")
	}
	if got.R != r || got.G != g || got.B != b || got.A != a {
		t.Errorf("Fragment = %v, single tap = (%d %d %d %d)", got, r, g, b, a)
	}
}

func mustCheckerFrame(t *testing.T, w, h int) *littleplanet.Frame {
	t.Helper()
	pix := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			if (x+y)%2 == 0 {
				pix[i] = 255
			}
			pix[i+3] = 255
		}
	}
	f, err := littleplanet.NewFrame(w, h, pix)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	return f
}

// The supersampling window is one texel in texture space, regardless of
// zoom. On a one-texel checkerboard under heavy magnification each
// fragment must average its texel neighborhood, not collapse to a single
// tap the way output-plane jitter would.
func TestFragmentTexelWindowIndependentOfZoom(t *testing.T) {
	frame := mustCheckerFrame(t, 32, 16)
	p := littleplanet.DefaultParams(96, 96)
	p.Scale = 6
	m := projection.NewMapperZ(p, littleplanet.ZClampBoth)

	texelU := 1 / float64(frame.Width())
	texelV := 1 / float64(frame.Height())

	maxPlaneDelta := 0.0
	for y := 0; y < p.Height; y += 8 {
		for x := 0; x < p.Width; x += 8 {
			fx, fy := float64(x), float64(y)
			u, v := m.UV(fx, fy)

			// Texel-window average, written out from the definition.
			var wantR, planeR float64
			for i := 0; i < Supersample; i++ {
				for j := 0; j < Supersample; j++ {
					di := (float64(i)+0.5)/Supersample - 0.5
					dj := (float64(j)+0.5)/Supersample - 0.5

					r, _, _, _ := frame.SampleBilinear(u+di*texelU, v+dj*texelV)
					wantR += float64(r)

					// The rejected alternative: jitter the output pixel
					// and re-project every tap.
					pu, pv := m.UV(fx+di, fy+dj)
					pr, _, _, _ := frame.SampleBilinear(pu, pv)
					planeR += float64(pr)
				}
			}
			wantR /= Supersample * Supersample
			planeR /= Supersample * Supersample

			got, ok := Fragment(fx, fy, &m, frame)
			if !ok {
				t.Fatalf("Fragment(%v, %v) discarded", fx, fy)
			}
			if d := math.Abs(float64(got.R) - wantR); d > 1 {
				t.Errorf("Fragment(%v, %v).R = %d, texel-window average %.1f", fx, fy, got.R, wantR)
			}
			maxPlaneDelta = math.Max(maxPlaneDelta, math.Abs(wantR-planeR))
		}
	}

	// The two schemes must be distinguishable on this input, or the
	// assertions above prove nothing.
	if maxPlaneDelta < 20 {
		t.Fatalf("max delta between texel-window and plane-jitter sampling = %.1f, expected a clear separation", maxPlaneDelta)
	}
}

func TestRenderReference(t *testing.T) {
	frame := mustUniformFrame(t, 32, 16, color.NRGBA{R: 255, A: 255})
	p := littleplanet.DefaultParams(20, 10)

	out, err := RenderReference(frame, p)
	if err != nil {
		t.Fatalf("RenderReference: %v", err)
	}
	if len(out) != 20*10*4 {
		t.Fatalf("output length = %d, want %d", len(out), 20*10*4)
	}
	for i := 0; i < len(out); i += 4 {
		if out[i] != 255 || out[i+3] != 255 {
			t.Fatalf("pixel %d = %v, want solid red", i/4, out[i:i+4])
		}
	}
}

func TestRenderReferenceRejectsInvalidParams(t *testing.T) {
	frame := mustUniformFrame(t, 8, 4, color.NRGBA{A: 255})

	p := littleplanet.DefaultParams(16, 16)
	p.Scale = 0
	if _, err := RenderReference(frame, p); err == nil {
		t.Error("expected error for zero scale")
	}

	p = littleplanet.DefaultParams(0, 16)
	if _, err := RenderReference(frame, p); err == nil {
		t.Error("expected error for zero width")
	}
}
