// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/littleplanet"
	"github.com/gogpu/littleplanet/internal/cache"
)

// ErrResource classifies GPU resource failures: allocation, shader
// compilation, submission, readback. A resource failure aborts the pass
// it occurred in; cached source textures from earlier passes stay valid.
var ErrResource = errors.New("gpu: resource failure")

// sourceCacheLimit bounds how many source frames stay resident on the
// device. Interactive use re-renders the same frame with new parameters,
// so a handful of entries covers frame switching without re-uploads.
const sourceCacheLimit = 4

// gpuWaitTimeout bounds the fence wait per submitted pass.
const gpuWaitTimeout = 5 * time.Second

// Pipeline renders little planet frames through the WGSL fragment shader.
//
// The pipeline draws a single fullscreen triangle into an offscreen
// RGBA8 target and reads the result back through a staging buffer. Source
// frames are uploaded once and kept in an LRU cache keyed by Frame.ID;
// evicted textures are destroyed immediately.
//
// Pipeline is not safe for concurrent use; serialize passes externally
// (raster.Session shows the policy).
type Pipeline struct {
	device hal.Device
	queue  hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	sampler    hal.Sampler

	// Offscreen color target, recreated when the output size changes.
	colorTex  hal.Texture
	colorView hal.TextureView
	width     uint32
	height    uint32

	sources *cache.Cache[uint64, *sourceTexture]
}

// NewPipeline wraps an open device and queue. The caller keeps ownership
// of both; Destroy only releases resources the pipeline created.
func NewPipeline(device hal.Device, queue hal.Queue) *Pipeline {
	p := &Pipeline{device: device, queue: queue}
	p.sources = cache.New[uint64, *sourceTexture](sourceCacheLimit, func(t *sourceTexture) {
		t.destroy(device)
	})
	return p
}

// Destroy releases every GPU resource held by the pipeline, including all
// cached source textures. Safe to call multiple times.
func (p *Pipeline) Destroy() {
	p.sources.Clear()
	p.destroyTarget()
	p.destroyPipeline()
}

// Render projects frame through params on the GPU and returns the
// W*H*4 RGBA buffer. Validation failures surface unchanged; everything
// else wraps ErrResource.
func (p *Pipeline) Render(frame *littleplanet.Frame, params littleplanet.Params) ([]uint8, error) {
	if frame == nil {
		return nil, fmt.Errorf("gpu: %w: nil frame", littleplanet.ErrNonPositiveSize)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	w, h := uint32(params.Width), uint32(params.Height) //nolint:gosec // validated positive
	if err := p.ensureReady(w, h); err != nil {
		return nil, err
	}

	src, err := p.sourceFor(frame)
	if err != nil {
		return nil, err
	}

	uniformBuf, err := p.createAndUploadBuffer("planet_uniform", UniformsFromParams(params).Pack(),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	defer p.device.DestroyBuffer(uniformBuf)

	bindGroup, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "planet_bind",
		Layout: p.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: uniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: gputypes.TextureViewHandle(src.view.NativeHandle()),
			}},
			{Binding: 2, Resource: gputypes.SamplerBinding{
				Sampler: gputypes.SamplerHandle(p.sampler.NativeHandle()),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create bind group: %w", ErrResource, err)
	}
	defer p.device.DestroyBindGroup(bindGroup)

	return p.encodeAndReadback(w, h, bindGroup)
}

// ensureReady creates the render pipeline and sizes the color target.
func (p *Pipeline) ensureReady(w, h uint32) error {
	if p.pipeline == nil {
		if err := p.createPipeline(); err != nil {
			return err
		}
	}
	return p.ensureTarget(w, h)
}

// createPipeline compiles the planet shader and builds the render
// pipeline: uniform block + source texture + sampler, no vertex buffers,
// no blending (the target is cleared and written exactly once).
func (p *Pipeline) createPipeline() error {
	if planetShaderSource == "" {
		return fmt.Errorf("%w: planet shader source is empty", ErrResource)
	}

	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "planet_shader",
		Source: hal.ShaderSource{WGSL: planetShaderSource},
	})
	if err != nil {
		return fmt.Errorf("%w: compile planet shader: %w", ErrResource, err)
	}
	p.shader = shader

	bindLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "planet_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: create bind layout: %w", ErrResource, err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "planet_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("%w: create pipeline layout: %w", ErrResource, err)
	}
	p.pipeLayout = pipeLayout

	// Bilinear filtering with clamp-to-edge, matching
	// Frame.SampleBilinear on the CPU side.
	sampler, err := p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "planet_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("%w: create sampler: %w", ErrResource, err)
	}
	p.sampler = sampler

	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "planet_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatRGBA8Unorm,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: create render pipeline: %w", ErrResource, err)
	}
	p.pipeline = pipeline

	littleplanet.Logger().Debug("gpu: planet pipeline created")
	return nil
}

// ensureTarget creates or recreates the offscreen color target when the
// requested output size changes.
func (p *Pipeline) ensureTarget(w, h uint32) error {
	if p.width == w && p.height == h && p.colorTex != nil {
		return nil
	}
	p.destroyTarget()

	tex, err := p.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "planet_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("%w: create target texture: %w", ErrResource, err)
	}
	p.colorTex = tex

	view, err := p.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "planet_target_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		p.destroyTarget()
		return fmt.Errorf("%w: create target view: %w", ErrResource, err)
	}
	p.colorView = view

	p.width = w
	p.height = h
	return nil
}

func (p *Pipeline) destroyTarget() {
	if p.colorView != nil {
		p.device.DestroyTextureView(p.colorView)
		p.colorView = nil
	}
	if p.colorTex != nil {
		p.device.DestroyTexture(p.colorTex)
		p.colorTex = nil
	}
	p.width = 0
	p.height = 0
}

// destroyPipeline releases pipeline resources in reverse creation order.
func (p *Pipeline) destroyPipeline() {
	if p.device == nil {
		return
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// encodeAndReadback runs the render pass, copies the target into a
// staging buffer, submits, waits, and returns the pixels.
func (p *Pipeline) encodeAndReadback(w, h uint32, bindGroup hal.BindGroup) ([]uint8, error) {
	encoder, err := p.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "planet_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create command encoder: %w", ErrResource, err)
	}
	if err := encoder.BeginEncoding("planet_render"); err != nil {
		return nil, fmt.Errorf("%w: begin encoding: %w", ErrResource, err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "planet_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       p.colorView,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
			},
		},
	})
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, bindGroup, nil)
	rp.Draw(3, 1, 0, 0)
	rp.End()

	// The render target must transition to a copy source before the
	// buffer copy; this is a no-op on backends without explicit layouts.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: p.colorTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	pixelBufSize := uint64(w) * uint64(h) * 4
	stagingBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "planet_staging",
		Size:  pixelBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("%w: create staging buffer: %w", ErrResource, err)
	}
	defer p.device.DestroyBuffer(stagingBuf)

	encoder.CopyTextureToBuffer(p.colorTex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: p.colorTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("%w: end encoding: %w", ErrResource, err)
	}
	defer p.device.FreeCommandBuffer(cmdBuf)

	fence, err := p.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("%w: create fence: %w", ErrResource, err)
	}
	defer p.device.DestroyFence(fence)

	if err := p.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("%w: submit: %w", ErrResource, err)
	}
	fenceOK, err := p.device.Wait(fence, 1, gpuWaitTimeout)
	if err != nil || !fenceOK {
		return nil, fmt.Errorf("%w: wait for GPU: ok=%v err=%v", ErrResource, fenceOK, err)
	}

	readback := make([]uint8, pixelBufSize)
	if err := p.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("%w: readback: %w", ErrResource, err)
	}
	return readback, nil
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (p *Pipeline) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrResource, label, err)
	}
	p.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// Size returns the current render target dimensions.
func (p *Pipeline) Size() (uint32, uint32) { return p.width, p.height }
