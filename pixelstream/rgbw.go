// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pixelstream

// WhitePolicy selects how a dedicated white channel is synthesized from an
// RGB pixel on 4-channel strips.
type WhitePolicy uint8

const (
	// WhiteOff leaves the white channel dark.
	WhiteOff WhitePolicy = iota
	// WhiteExact moves the common component to the white channel:
	// w = min(r,g,b) and the color channels are reduced by w, so the
	// original color is reproduced exactly by the combined emitters.
	WhiteExact
	// WhiteBoost sets w = min(r,g,b) without reducing the color channels,
	// trading color accuracy for output power.
	WhiteBoost
)

// SplitWhite applies policy to a scaled RGB value.
func SplitWhite(policy WhitePolicy, r, g, b uint8) (uint8, uint8, uint8, uint8) {
	switch policy {
	case WhiteExact:
		w := min3(r, g, b)
		return r - w, g - w, b - w, w
	case WhiteBoost:
		return r, g, b, min3(r, g, b)
	default:
		return r, g, b, 0
	}
}

func min3(a, b, c uint8) uint8 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
