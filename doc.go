// Package littleplanet renders "little planet" images: an inverse
// stereographic projection of an equirectangular panorama onto a plane,
// as if the panorama were wrapped around a tiny sphere photographed from
// above.
//
// The package is split along the two execution paths a projection engine
// needs:
//
//   - projection holds the pure per-pixel mapping (rotation, unprojection,
//     sphere to equirectangular UV).
//   - raster evaluates whole frames on the CPU in horizontal bands with
//     progress reporting and cancellation.
//   - gpu evaluates frames through a WGSL fragment shader on the wgpu HAL,
//     with a CPU reference implementation of the same shader.
//
// Both paths share the parameter contract defined here: Frame for the
// source image and Params for the projection parameters.
package littleplanet
