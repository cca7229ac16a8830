// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pixelstream turns a raw pixel buffer into the ordered, scaled and
// temporally dithered byte sequence a strip driver puts on the wire.
//
// A Stream is constructed per frame over a borrowed buffer, consumed by a
// driver pulling one pixel at a time, and discarded at the end of the
// frame. The buffer holds three tightly packed bytes per pixel in logical
// red, green, blue order; the stream reorders on read according to the
// configured wire order.
package pixelstream

import (
	"errors"

	"periph.io/x/ledstream/adjust"
)

// Order maps wire byte positions to logical color channels. Order[slot] is
// the channel index (0=red, 1=green, 2=blue) transmitted in that slot.
type Order [3]uint8

// The six channel permutations. GRB is the common 3-wire chip ordering.
var (
	RGB = Order{0, 1, 2}
	RBG = Order{0, 2, 1}
	GRB = Order{1, 0, 2}
	GBR = Order{1, 2, 0}
	BRG = Order{2, 0, 1}
	BGR = Order{2, 1, 0}
)

// DitherMode selects the temporal dithering applied below full brightness.
type DitherMode uint8

const (
	// DitherOff emits the plainly scaled value every frame.
	DitherOff DitherMode = iota
	// DitherBinary alternates between adjacent output levels across frames
	// so the time-average converges on the unquantized scaled value.
	DitherBinary
)

// Direction selects strip traversal order. Reverse shows the buffer's last
// pixel first, for strips wired data-in at the far end.
type Direction int8

const (
	Forward Direction = 1
	Reverse Direction = -1
)

// Dithering rate derivation. With frames arriving at up to 400Hz, three
// virtual bits keep a full dither cycle above 50Hz where the eye stops
// noticing the alternation.
const (
	maxUpdateRateHz = 400
	minDitherRateHz = 50

	// VirtualBits is log2(maxUpdateRateHz / minDitherRateHz).
	VirtualBits = 3

	// DitherFrames is the length of a full dither cycle in frames. The
	// frame counter passed to InitDither wraps at this value.
	DitherFrames = 1 << VirtualBits
)

var (
	errShortBuffer = errors.New("pixelstream: buffer shorter than pixel count")
	errLaneCount   = errors.New("pixelstream: lane count must be at least 1")
)

// Stream walks a pixel buffer, applying order, dither and scale on read.
type Stream struct {
	data    []byte
	length  int // pixels per lane
	count   int // pixels remaining
	pos     int // byte offset of the current pixel in lane 0
	stride  int
	laneOff []int
	order   Order
	adj     adjust.Adjustment
	mode    DitherMode
	white   WhitePolicy
	d, e    [3]uint8
}

// New returns a Stream over count pixels of pixels, traversed in dir order.
//
// pixels is borrowed for the lifetime of the Stream and must not be mutated
// while a frame is in flight.
func New(pixels []byte, count int, adj adjust.Adjustment, mode DitherMode, order Order, dir Direction) (*Stream, error) {
	return NewMultiLane(pixels, count, 1, adj, mode, order, dir)
}

// NewMultiLane returns a Stream over lanes consecutive segments of pixels,
// each countPerLane pixels long, advanced in lock-step. Lane l's data
// starts at byte offset l*countPerLane*3.
func NewMultiLane(pixels []byte, countPerLane, lanes int, adj adjust.Adjustment, mode DitherMode, order Order, dir Direction) (*Stream, error) {
	if lanes < 1 {
		return nil, errLaneCount
	}
	if len(pixels) < countPerLane*lanes*3 {
		return nil, errShortBuffer
	}
	s := &Stream{
		data:   pixels,
		length: countPerLane,
		count:  countPerLane,
		stride: 3 * int(dir),
		order:  order,
		adj:    adj,
		mode:   mode,
	}
	if dir == Reverse && countPerLane > 0 {
		s.pos = (countPerLane - 1) * 3
	}
	if lanes > 1 {
		s.laneOff = make([]int, lanes)
		for l := range s.laneOff {
			s.laneOff[l] = l * countPerLane * 3
		}
	}
	return s, nil
}

// Len returns the per-lane pixel count.
func (s *Stream) Len() int { return s.length }

// Lanes returns the number of parallel lanes.
func (s *Stream) Lanes() int {
	if s.laneOff == nil {
		return 1
	}
	return len(s.laneOff)
}

// Has reports whether at least n pixels remain. Drivers must not advance
// past the end.
func (s *Stream) Has(n int) bool { return s.count >= n }

// Advance moves to the next pixel on every lane.
func (s *Stream) Advance() {
	s.pos += s.stride
	s.count--
}

// SetWhitePolicy selects the white channel extraction used by
// LoadAndScaleRGBW.
func (s *Stream) SetWhitePolicy(p WhitePolicy) { s.white = p }

// InitDither seeds the per-channel dither offsets from the engine's frame
// counter. Call once per frame before the first pixel.
//
// The counter's low VirtualBits are bit-reversed so consecutive frames land
// on maximally distant points of the dither cycle, then scaled into each
// channel's quantization step.
func (s *Stream) InitDither(frame uint8) {
	if s.mode == DitherOff {
		s.d = [3]uint8{}
		s.e = [3]uint8{}
		return
	}
	var q uint8
	if frame&0x01 != 0 {
		q |= 0x80
	}
	if frame&0x02 != 0 {
		q |= 0x40
	}
	if frame&0x04 != 0 {
		q |= 0x20
	}
	for i := 0; i < 3; i++ {
		sc := s.adj.Premixed[i]
		if sc != 0 {
			s.e[i] = uint8(256/uint16(sc) + 1)
		} else {
			s.e[i] = 0
		}
		s.d[i] = scale8(q, s.e[i])
		if s.d[i] > 0 {
			s.d[i]--
		}
		if s.e[i] > 0 {
			s.e[i]--
		}
	}
}

// StepDithering flips the dither offsets to their complements. Call once
// per pixel so adjacent pixels alternate rounding direction.
func (s *Stream) StepDithering() {
	if s.mode == DitherOff {
		return
	}
	for i := 0; i < 3; i++ {
		s.d[i] = s.e[i] - s.d[i]
	}
}

// loadAndScale reads the channel for slot on lane, applies the dither
// offset saturating, then the premixed scale.
func (s *Stream) loadAndScale(lane, slot int) uint8 {
	ch := s.order[slot]
	off := s.pos + int(ch)
	if s.laneOff != nil {
		off += s.laneOff[lane]
	}
	return scale8(qadd8(s.data[off], s.d[ch]), s.adj.Premixed[ch])
}

// LoadAndScale0 returns the scaled byte for wire slot 0 of the current
// pixel.
func (s *Stream) LoadAndScale0() uint8 { return s.loadAndScale(0, 0) }

// LoadAndScale1 returns the scaled byte for wire slot 1.
func (s *Stream) LoadAndScale1() uint8 { return s.loadAndScale(0, 1) }

// LoadAndScale2 returns the scaled byte for wire slot 2.
func (s *Stream) LoadAndScale2() uint8 { return s.loadAndScale(0, 2) }

// LoadAndScaleLane is the multi-lane form of LoadAndScale0..2.
func (s *Stream) LoadAndScaleLane(lane, slot int) uint8 {
	return s.loadAndScale(lane, slot)
}

// LoadAndScaleRGB returns the three scaled bytes of the current pixel in
// wire order.
func (s *Stream) LoadAndScaleRGB() (uint8, uint8, uint8) {
	return s.loadAndScale(0, 0), s.loadAndScale(0, 1), s.loadAndScale(0, 2)
}

// LoadAndScaleRGBW returns the scaled pixel with a synthesized white
// channel per the stream's WhitePolicy. The white byte is transmitted after
// the three color slots.
func (s *Stream) LoadAndScaleRGBW() (uint8, uint8, uint8, uint8) {
	b0, b1, b2 := s.LoadAndScaleRGB()
	// Undo the wire permutation for the extraction, then redo it.
	var rgb [3]uint8
	rgb[s.order[0]] = b0
	rgb[s.order[1]] = b1
	rgb[s.order[2]] = b2
	r, g, b, w := SplitWhite(s.white, rgb[0], rgb[1], rgb[2])
	rgb = [3]uint8{r, g, b}
	return rgb[s.order[0]], rgb[s.order[1]], rgb[s.order[2]], w
}

// LoadAndScale16 returns the current pixel's slot expanded to 16 bits and
// scaled. High bit depth protocols carry enough resolution that no
// dithering is applied.
func (s *Stream) LoadAndScale16(slot int) uint16 {
	ch := s.order[slot]
	return scale16by8(map8to16(s.data[s.pos+int(ch)]), s.adj.Premixed[ch])
}
