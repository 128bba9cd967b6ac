package littleplanet

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"sync/atomic"
)

// frameSeq hands out unique frame identities for texture caching.
var frameSeq atomic.Uint64

// Frame is an immutable equirectangular RGBA source image.
//
// Pixels are stored row-major, 4 bytes per pixel (R, G, B, A). The
// evaluators only ever read from a Frame, so one Frame may back any number
// of concurrent render passes. Each Frame carries a process-unique ID used
// by the GPU path to key its texture cache.
type Frame struct {
	width  int
	height int
	pix    []uint8
	id     uint64
}

// NewFrame creates a frame from raw RGBA pixel data. The data is copied so
// later writes to pix do not leak into the frame.
//
// NewFrame returns an error when pix does not hold exactly
// width*height*4 bytes.
func NewFrame(width, height int, pix []uint8) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrNonPositiveSize, width, height)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("frame: pixel data is %d bytes, want %d", len(pix), width*height*4)
	}
	f := &Frame{
		width:  width,
		height: height,
		pix:    make([]uint8, len(pix)),
		id:     frameSeq.Add(1),
	}
	copy(f.pix, pix)
	return f, nil
}

// NewUniformFrame creates a frame filled with a single color. Handy for
// tests and for warming the GPU texture cache.
func NewUniformFrame(width, height int, c color.NRGBA) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrNonPositiveSize, width, height)
	}
	pix := make([]uint8, width*height*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i+0] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = c.A
	}
	return &Frame{width: width, height: height, pix: pix, id: frameSeq.Add(1)}, nil
}

// FrameFromImage converts any image.Image into a Frame.
func FrameFromImage(img image.Image) (*Frame, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrNonPositiveSize, width, height)
	}

	pix := make([]uint8, width*height*4)

	// Fast path: image.RGBA with a tightly packed Pix slice.
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == width*4 {
		copy(pix, rgba.Pix)
		return &Frame{width: width, height: height, pix: pix, id: frameSeq.Add(1)}, nil
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			pix[i+0] = c.R
			pix[i+1] = c.G
			pix[i+2] = c.B
			pix[i+3] = c.A
			i += 4
		}
	}
	return &Frame{width: width, height: height, pix: pix, id: frameSeq.Add(1)}, nil
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.width }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.height }

// ID returns the process-unique identity of this frame.
func (f *Frame) ID() uint64 { return f.id }

// Pix returns the raw RGBA pixel data. Callers must treat the returned
// slice as read-only.
func (f *Frame) Pix() []uint8 { return f.pix }

// RGBAAt returns the 4 raw bytes of the pixel at (x, y). Coordinates are
// clamped to the frame bounds.
func (f *Frame) RGBAAt(x, y int) (r, g, b, a uint8) {
	x = clampInt(x, 0, f.width-1)
	y = clampInt(y, 0, f.height-1)
	i := (y*f.width + x) * 4
	return f.pix[i], f.pix[i+1], f.pix[i+2], f.pix[i+3]
}

// sampleNearest performs nearest-neighbor sampling at normalized
// coordinates (u, v), where (0,0) is top-left and (1,1) bottom-right.
// Out-of-range coordinates are clamped to the edge. Point-filter
// counterpart of SampleBilinear.
func (f *Frame) sampleNearest(u, v float64) (r, g, b, a uint8) {
	x := int(math.Floor(u * float64(f.width)))
	y := int(math.Floor(v * float64(f.height)))
	return f.RGBAAt(x, y)
}

// SampleBilinear performs bilinear interpolation at normalized coordinates
// (u, v). Matches the filtering a GPU sampler applies with linear min/mag
// filters and clamp-to-edge addressing.
func (f *Frame) SampleBilinear(u, v float64) (r, g, b, a uint8) {
	fx := u*float64(f.width) - 0.5
	fy := v*float64(f.height) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	r00, g00, b00, a00 := f.RGBAAt(x0, y0)
	r10, g10, b10, a10 := f.RGBAAt(x0+1, y0)
	r01, g01, b01, a01 := f.RGBAAt(x0, y0+1)
	r11, g11, b11, a11 := f.RGBAAt(x0+1, y0+1)

	r = uint8(lerp2D(float64(r00), float64(r10), float64(r01), float64(r11), tx, ty))
	g = uint8(lerp2D(float64(g00), float64(g10), float64(g01), float64(g11), tx, ty))
	b = uint8(lerp2D(float64(b00), float64(b10), float64(b01), float64(b11), tx, ty))
	a = uint8(lerp2D(float64(a00), float64(a10), float64(a01), float64(a11), tx, ty))
	return r, g, b, a
}

// ToImage converts the frame to an image.RGBA copy.
func (f *Frame) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	copy(img.Pix, f.pix)
	return img
}

// SavePNG writes the frame to a PNG file.
func (f *Frame) SavePNG(path string) error {
	file, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()
	return png.Encode(file, f.ToImage())
}

// At implements the image.Image interface.
func (f *Frame) At(x, y int) color.Color {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return color.NRGBA{}
	}
	i := (y*f.width + x) * 4
	return color.NRGBA{R: f.pix[i], G: f.pix[i+1], B: f.pix[i+2], A: f.pix[i+3]}
}

// Bounds implements the image.Image interface.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.width, f.height)
}

// ColorModel implements the image.Image interface.
func (f *Frame) ColorModel() color.Model {
	return color.NRGBAModel
}

func clampInt(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// lerp performs linear interpolation between a and b.
func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// lerp2D performs bilinear interpolation on a 2x2 grid.
func lerp2D(v00, v10, v01, v11, tx, ty float64) float64 {
	v0 := lerp(v00, v10, tx)
	v1 := lerp(v01, v11, tx)
	return lerp(v0, v1, ty)
}
