// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"strings"
	"testing"
)

// TestShaderSourceNonEmpty verifies the shader embedded correctly.
func TestShaderSourceNonEmpty(t *testing.T) {
	src := PlanetShaderSource()
	if src == "" {
		t.Fatal("planet shader source is empty")
	}
	if len(src) < 100 {
		t.Fatalf("planet shader source suspiciously short: %d bytes", len(src))
	}
}

// TestShaderSourceContainsExpectedContent verifies the key elements of
// the pipeline contract are present in the source.
func TestShaderSourceContainsExpectedContent(t *testing.T) {
	required := []string{
		"@vertex",
		"@fragment",
		"vs_main",
		"fs_main",
		"texture_2d<f32>",
		"sampler",
		"textureSampleLevel",
		"textureDimensions",
		"discard",
		"acos",
		"atan2",
		"resolution: vec2<f32>",
		"angles: vec3<f32>",
		"radius: f32",
	}

	src := PlanetShaderSource()
	for _, want := range required {
		if !strings.Contains(src, want) {
			t.Errorf("planet shader missing %q", want)
		}
	}
}

// TestShaderSupersampleGrid pins the supersampling factor the CPU
// reference mirrors.
func TestShaderSupersampleGrid(t *testing.T) {
	if !strings.Contains(PlanetShaderSource(), "const SUPERSAMPLE: i32 = 8;") {
		t.Error("planet shader supersample constant changed; keep Fragment in sync")
	}
}
