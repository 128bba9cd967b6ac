//go:build nogpu

package main

import (
	"errors"

	"github.com/gogpu/littleplanet"
)

func renderGPU(*littleplanet.Frame, littleplanet.Params) ([]uint8, error) {
	return nil, errors.New("gpu rendering disabled in this build")
}
