//go:build !nogpu

package main

import (
	"github.com/gogpu/littleplanet"
	"github.com/gogpu/littleplanet/gpu"
)

// renderGPU runs a single pass through the fragment pipeline on a
// freshly opened device.
func renderGPU(frame *littleplanet.Frame, params littleplanet.Params) ([]uint8, error) {
	dev, err := gpu.Open()
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	pipeline := gpu.NewPipeline(dev.HAL())
	defer pipeline.Destroy()

	return pipeline.Render(frame, params)
}
