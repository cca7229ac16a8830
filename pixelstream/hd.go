// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pixelstream

// LoadAndScaleHD returns the current pixel gamma corrected at 16-bit
// precision, folded down to three 8-bit color bytes in wire order plus a
// 5-bit global brightness value for protocols carrying a per-pixel
// brightness field.
//
// The separate ColorScale and Brightness of the adjustment are applied here
// rather than premixed, so the extra brightness bits of the protocol are
// not wasted on an 8-bit premultiplication. No dithering is applied; the
// 13 effective output bits make it unnecessary.
func (s *Stream) LoadAndScaleHD() (uint8, uint8, uint8, uint8) {
	var c [3]uint16
	for slot := 0; slot < 3; slot++ {
		ch := s.order[slot]
		v := gamma16(s.data[s.pos+int(ch)])
		v = scale16by8(v, s.adj.ColorScale[ch])
		c[slot] = scale16by8(v, s.adj.Brightness)
	}
	return fiveBitBitshift(c[0], c[1], c[2])
}

// fiveBitBitshift trades halvings of the 5-bit brightness field for
// doublings of the color channels while headroom remains, keeping dim
// colors out of the quantization floor.
func fiveBitBitshift(c0, c1, c2 uint16) (uint8, uint8, uint8, uint8) {
	if c0|c1|c2 == 0 {
		return 0, 0, 0, 0
	}
	v5 := uint8(31)
	for v5 > 1 && c0 <= 0x7fff && c1 <= 0x7fff && c2 <= 0x7fff {
		c0 <<= 1
		c1 <<= 1
		c2 <<= 1
		v5 >>= 1
	}
	return uint8(c0 >> 8), uint8(c1 >> 8), uint8(c2 >> 8), v5
}
