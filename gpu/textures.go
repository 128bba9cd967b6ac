// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/littleplanet"
)

// sourceTexture is a frame resident on the device: the sampled texture
// the fragment shader reads plus its view.
type sourceTexture struct {
	tex  hal.Texture
	view hal.TextureView
}

func (t *sourceTexture) destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// sourceFor returns the device copy of frame, uploading it on first use.
// Frames are immutable, so a cache hit never needs a re-upload.
func (p *Pipeline) sourceFor(frame *littleplanet.Frame) (*sourceTexture, error) {
	if cached, ok := p.sources.Get(frame.ID()); ok {
		return cached, nil
	}

	src, err := p.uploadFrame(frame)
	if err != nil {
		return nil, err
	}
	p.sources.Set(frame.ID(), src)
	littleplanet.Logger().Debug("gpu: source frame uploaded",
		"frame", frame.ID(),
		"size", fmt.Sprintf("%dx%d", frame.Width(), frame.Height()),
		"resident", p.sources.Len())
	return src, nil
}

// uploadFrame creates the sampled texture and writes the frame pixels.
func (p *Pipeline) uploadFrame(frame *littleplanet.Frame) (*sourceTexture, error) {
	w, h := uint32(frame.Width()), uint32(frame.Height()) //nolint:gosec // frame dimensions validated positive
	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	tex, err := p.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "planet_source",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create source texture: %w", ErrResource, err)
	}

	view, err := p.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "planet_source_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		p.device.DestroyTexture(tex)
		return nil, fmt.Errorf("%w: create source view: %w", ErrResource, err)
	}

	p.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: 0, Y: 0, Z: 0},
			Aspect:   gputypes.TextureAspectAll,
		},
		frame.Pix(),
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		&size,
	)

	return &sourceTexture{tex: tex, view: view}, nil
}

// EvictFrame drops the device copy of a frame, destroying its texture.
// Call when a frame will not be rendered again.
func (p *Pipeline) EvictFrame(frame *littleplanet.Frame) {
	if frame == nil {
		return
	}
	if src, ok := p.sources.Delete(frame.ID()); ok {
		src.destroy(p.device)
	}
}

// ResidentFrames reports how many source frames are on the device.
func (p *Pipeline) ResidentFrames() int { return p.sources.Len() }
