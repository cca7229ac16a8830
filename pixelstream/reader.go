// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pixelstream

// Reader is the type-erased view of a Stream.
//
// Driver code compiled once per strip configuration should take a concrete
// *Stream so the scaling path stays inlined. Reader exists for driver code
// that must handle many order and lane combinations from a single code
// path and is willing to pay one indirect call per operation for it.
type Reader interface {
	// Len returns the per-lane pixel count.
	Len() int
	// Has reports whether at least n pixels remain.
	Has(n int) bool
	// Advance moves to the next pixel.
	Advance()
	// StepDithering alternates the dither offsets between pixels.
	StepDithering()
	// LoadAndScaleRGB returns the current pixel's scaled bytes in wire
	// order.
	LoadAndScaleRGB() (uint8, uint8, uint8)
	// LoadAndScaleRGBW is LoadAndScaleRGB plus a synthesized white byte.
	LoadAndScaleRGBW() (uint8, uint8, uint8, uint8)
}

var _ Reader = &Stream{}
