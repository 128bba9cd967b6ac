package littleplanet

import (
	"image"
	"image/color"
	"testing"
)

func TestNewFrameCopiesData(t *testing.T) {
	pix := []uint8{1, 2, 3, 4, 5, 6, 7, 8}
	f, err := NewFrame(2, 1, pix)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}

	pix[0] = 99
	if r, _, _, _ := f.RGBAAt(0, 0); r != 1 {
		t.Errorf("frame shares caller memory: r = %d, want 1", r)
	}
}

func TestNewFrameRejectsBadSizes(t *testing.T) {
	if _, err := NewFrame(0, 10, nil); err == nil {
		t.Error("zero width accepted")
	}
	if _, err := NewFrame(2, 2, make([]uint8, 15)); err == nil {
		t.Error("short pixel buffer accepted")
	}
}

func TestFrameIDsUnique(t *testing.T) {
	a, err := NewUniformFrame(4, 4, color.NRGBA{R: 255, A: 255})
	if err != nil {
		t.Fatalf("NewUniformFrame: %v", err)
	}
	b, err := NewUniformFrame(4, 4, color.NRGBA{R: 255, A: 255})
	if err != nil {
		t.Fatalf("NewUniformFrame: %v", err)
	}
	if a.ID() == b.ID() {
		t.Errorf("two frames share ID %d", a.ID())
	}
}

func TestFrameFromImageRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(1, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	f, err := FrameFromImage(img)
	if err != nil {
		t.Fatalf("FrameFromImage: %v", err)
	}
	if f.Width() != 3 || f.Height() != 2 {
		t.Fatalf("size = %dx%d, want 3x2", f.Width(), f.Height())
	}
	r, g, b, a := f.RGBAAt(1, 1)
	if r != 10 || g != 20 || b != 30 || a != 255 {
		t.Errorf("RGBAAt(1,1) = (%d,%d,%d,%d), want (10,20,30,255)", r, g, b, a)
	}
}

func TestSampleNearestPicksContainingPixel(t *testing.T) {
	// 2x2 checker: top-left red, bottom-right blue.
	pix := []uint8{
		255, 0, 0, 255, 0, 0, 0, 255,
		0, 0, 0, 255, 0, 0, 255, 255,
	}
	f, err := NewFrame(2, 2, pix)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}

	tests := []struct {
		name  string
		u, v  float64
		wantR uint8
		wantB uint8
	}{
		{"top-left quadrant", 0.2, 0.2, 255, 0},
		{"bottom-right quadrant", 0.8, 0.8, 0, 255},
		{"exact 1.0 clamps to last pixel", 1.0, 1.0, 0, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, b, _ := f.sampleNearest(tt.u, tt.v)
			if r != tt.wantR || b != tt.wantB {
				t.Errorf("sampleNearest(%v,%v) = r%d b%d, want r%d b%d", tt.u, tt.v, r, b, tt.wantR, tt.wantB)
			}
		})
	}
}

func TestSampleBilinearUniformIsExact(t *testing.T) {
	f, err := NewUniformFrame(8, 8, color.NRGBA{R: 40, G: 80, B: 120, A: 255})
	if err != nil {
		t.Fatalf("NewUniformFrame: %v", err)
	}
	for _, uv := range [][2]float64{{0, 0}, {0.5, 0.5}, {0.37, 0.91}, {1, 1}} {
		r, g, b, a := f.SampleBilinear(uv[0], uv[1])
		if r != 40 || g != 80 || b != 120 || a != 255 {
			t.Errorf("SampleBilinear(%v,%v) = (%d,%d,%d,%d), want (40,80,120,255)", uv[0], uv[1], r, g, b, a)
		}
	}
}

func TestSampleBilinearMidpoint(t *testing.T) {
	// Two pixels, black and white. The midpoint between their centers
	// interpolates to 50% gray.
	pix := []uint8{0, 0, 0, 255, 255, 255, 255, 255}
	f, err := NewFrame(2, 1, pix)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	r, _, _, _ := f.SampleBilinear(0.5, 0.5)
	if r < 126 || r > 128 {
		t.Errorf("midpoint r = %d, want ~127", r)
	}
}

func TestFrameImageInterface(t *testing.T) {
	f, err := NewUniformFrame(5, 7, color.NRGBA{G: 200, A: 255})
	if err != nil {
		t.Fatalf("NewUniformFrame: %v", err)
	}
	var img image.Image = f
	if got := img.Bounds(); got != image.Rect(0, 0, 5, 7) {
		t.Errorf("Bounds() = %v", got)
	}
	c := color.NRGBAModel.Convert(img.At(2, 3)).(color.NRGBA)
	if c.G != 200 {
		t.Errorf("At(2,3).G = %d, want 200", c.G)
	}
	if c := img.At(-1, 0); c != (color.NRGBA{}) {
		t.Errorf("At(-1,0) = %v, want transparent", c)
	}
}
