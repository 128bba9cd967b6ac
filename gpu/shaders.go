// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
)

//go:embed shaders/planet.wgsl
var planetShaderSource string

// PlanetShaderSource returns the WGSL source of the fragment pipeline.
func PlanetShaderSource() string { return planetShaderSource }

// CompileSPIRV compiles the planet shader to SPIR-V words. Backends that
// reject WGSL take this form; it also doubles as a build-time validity
// check of the embedded source.
func CompileSPIRV() ([]uint32, error) {
	return compileWGSL(planetShaderSource)
}

// compileWGSL compiles WGSL source to SPIR-V little-endian 32-bit words.
func compileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile shader: %w", err)
	}

	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
