// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pixelstream

// qadd8 adds two bytes, saturating at 255.
func qadd8(a, b uint8) uint8 {
	s := uint16(a) + uint16(b)
	if s > 255 {
		return 255
	}
	return uint8(s)
}

// scale8 scales v by f/256, computed as v*(f+1)>>8 so that a full scale of
// 255 is an exact identity.
func scale8(v, f uint8) uint8 {
	return uint8(uint16(v) * (uint16(f) + 1) >> 8)
}

// scale16by8 scales a 16-bit value by f/256 with the same identity at 255.
func scale16by8(v uint16, f uint8) uint16 {
	return uint16(uint32(v) * (uint32(f) + 1) >> 8)
}

// map8to16 expands an 8-bit value to 16 bits, mapping 255 to 65535.
func map8to16(v uint8) uint16 {
	return uint16(v) * 257
}

// gamma16 applies an approximate gamma 2.0 transform while expanding to 16
// bits. 0 maps to 0 and 255 maps to 65280.
func gamma16(v uint8) uint16 {
	return uint16(uint32(v) * (uint32(v) + 1))
}
