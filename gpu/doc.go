// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu evaluates the little planet projection through a WGSL
// fragment shader on the gogpu/wgpu HAL.
//
// The package has two faces that must agree:
//
//   - Pipeline drives the real shader: one fullscreen triangle, a uniform
//     block with the projection parameters, the source frame as a sampled
//     texture, offscreen render target, staging readback.
//   - Fragment is a pure Go transcription of the fragment stage, used as
//     the conformance reference in tests and as a fallback when no device
//     is available.
//
// Compared to the banded CPU evaluator in raster, the fragment path
// supersamples each output pixel 8x8 with bilinear filtering and discards
// pixels whose base coordinate leaves the unit square instead of wrapping.
package gpu
