// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package power estimates strip current draw and derives the brightness
// cap that keeps a frame inside a configured power budget.
//
// Exceeding the budget is never an error; the frame is dimmed
// proportionally and the effective brightness is reported back.
package power

import "periph.io/x/conn/v3/physic"

// Model holds the calibration constants of a strip's power draw.
//
// Red, Green and Blue are the per-pixel draw of each channel at full duty.
// Dark is the quiescent draw of a pixel with all channels off. Baseline is
// the controller board's own draw, added once per frame.
type Model struct {
	Red      physic.Power
	Green    physic.Power
	Blue     physic.Power
	Dark     physic.Power
	Baseline physic.Power
}

// WS2812Model5V is the default model, calibrated for 5V WS2812-class
// pixels: 16/11/15mA per channel, 1mA dark, 25mA for the MCU.
var WS2812Model5V = Model{
	Red:      80 * physic.MilliWatt,
	Green:    55 * physic.MilliWatt,
	Blue:     75 * physic.MilliWatt,
	Dark:     5 * physic.MilliWatt,
	Baseline: 125 * physic.MilliWatt,
}

// EstimateDraw returns the estimated draw of pixels, three bytes per
// pixel, excluding Baseline.
//
// The estimate is computed per pixel, so it is exactly additive across
// concatenated buffers and linear in each channel.
func (m *Model) EstimateDraw(pixels []byte) physic.Power {
	var total physic.Power
	for i := 0; i+2 < len(pixels); i += 3 {
		total += physic.Power(uint64(pixels[i]) * uint64(m.Red) / 255)
		total += physic.Power(uint64(pixels[i+1]) * uint64(m.Green) / 255)
		total += physic.Power(uint64(pixels[i+2]) * uint64(m.Blue) / 255)
		total += m.Dark
	}
	return total
}

// CapBrightness returns the highest brightness not exceeding target that
// keeps estimate scaled by it within budget.
//
// The returned value is target itself when estimate*target/256 fits the
// budget, otherwise the proportional scale-down
// target*budget/requested. It never exceeds target and only reaches zero
// on a zero budget.
func CapBrightness(estimate physic.Power, target uint8, budget physic.Power) uint8 {
	requested := physic.Power(uint64(estimate) * uint64(target) / 256)
	if requested <= budget {
		return target
	}
	return uint8(uint64(target) * uint64(budget) / uint64(requested))
}

// Budget converts a supply voltage and current limit into a power budget.
func Budget(v physic.ElectricPotential, i physic.ElectricCurrent) physic.Power {
	// Both are stored in nano units; the product in nanowatts is
	// v*i/1e9.
	return physic.Power(uint64(v) / 1000 * uint64(i) / 1000000)
}
