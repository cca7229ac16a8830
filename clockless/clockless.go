// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package clockless drives self-clocked LED protocols that encode bits
// purely in pulse width on a single data line.
//
// Every bit is a three phase waveform: the line goes high for T1
// nanoseconds, stays high through T2 for a one or drops low for a zero,
// then stays low for T3 before the next bit. The phase durations come from
// the chip's datasheet and are converted to cycle counts once at
// construction.
//
// The waveform tolerates no preemption, so each frame is transmitted
// inside a critical section. Because no platform guarantees the section is
// airtight, the driver measures wall-clock drift against the cycle counter
// and retransmits the frame when a phase was stretched past one bit time,
// up to a bounded retry budget. Exhausting the budget leaves a corrupted
// frame on the strip; there is no caller to report that to, the next frame
// simply overwrites it.
package clockless

import (
	"errors"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"periph.io/x/ledstream/cycle"
	"periph.io/x/ledstream/pixelstream"
)

// Timings holds the three phase durations of one bit, in nanoseconds.
type Timings struct {
	T1, T2, T3 uint32
}

// Datasheet timings for common 3-wire chip families.
var (
	WS2811  = Timings{T1: 320, T2: 320, T3: 640}
	WS2812  = Timings{T1: 350, T2: 350, T3: 550}
	SK6812  = Timings{T1: 300, T2: 600, T3: 300}
	UCS1903 = Timings{T1: 500, T2: 1500, T3: 500}
)

// CriticalSection guards a frame transmission against preemption,
// typically by masking interrupts. Enter and Exit bracket every frame
// attempt.
type CriticalSection interface {
	Enter()
	Exit()
}

// NopSection is a CriticalSection for hosts and tests where nothing can be
// masked.
type NopSection struct{}

func (NopSection) Enter() {}
func (NopSection) Exit()  {}

// defaultRetries is the frame retransmission budget after a detected
// timing violation.
const defaultRetries = 3

// Opts holds optional construction parameters.
type Opts struct {
	// Section guards frame transmission. Defaults to NopSection.
	Section CriticalSection

	// Retries overrides the retransmission budget. Negative disables
	// retransmission entirely.
	Retries int

	// RGBW transmits four bytes per pixel, synthesizing the white channel
	// per the stream's white policy.
	RGBW bool

	// Latch is the quiet time in nanoseconds the chips need after a frame
	// to latch it. Defaults to 300µs.
	Latch uint32

	_ struct{}
}

var (
	errNilPin   = errors.New("clockless: nil pin")
	errTimings  = errors.New("clockless: phase durations must be non-zero")
	errLaneMism = errors.New("clockless: stream lane count does not match driver")
)

// Dev drives a single data line.
type Dev struct {
	p       gpio.PinOut
	clk     cycle.Clock
	t1      uint32 // cycles
	t2      uint32
	t3      uint32
	slack   uint32
	latch   uint32
	retries int
	cs      CriticalSection
	rgbw    bool

	lastEnd  uint32
	hasFrame bool
}

// New returns a Dev emitting t's waveform on p, paced by clkSrc running at
// freq.
func New(p gpio.PinOut, clkSrc cycle.Clock, freq physic.Frequency, t Timings, opts *Opts) (*Dev, error) {
	if p == nil {
		return nil, errNilPin
	}
	c, err := newCommon(clkSrc, freq, t, opts)
	if err != nil {
		return nil, err
	}
	d := &Dev{
		p:       p,
		clk:     clkSrc,
		t1:      c.t1,
		t2:      c.t2,
		t3:      c.t3,
		slack:   c.slack,
		latch:   c.latch,
		retries: c.retries,
		cs:      c.cs,
		rgbw:    c.rgbw,
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string { return "clockless" }

// Halt implements conn.Resource.
func (d *Dev) Halt() error {
	return d.p.Out(gpio.Low)
}

// WritePixels transmits one frame from s.
//
// The stream's dither and scale state advances exactly once even when the
// frame is retransmitted.
func (d *Dev) WritePixels(s *pixelstream.Stream) error {
	d.waitLatch()
	snapshot := *s
	for attempt := 0; ; attempt++ {
		work := snapshot
		d.cs.Enter()
		clean, err := d.writeFrame(&work)
		d.cs.Exit()
		d.lastEnd = d.clk.Cycles()
		d.hasFrame = true
		if err != nil {
			return err
		}
		if clean || attempt >= d.retries {
			*s = work
			return nil
		}
		d.waitLatch()
	}
}

// waitLatch holds the line low long enough for the chips to latch the
// previous frame.
func (d *Dev) waitLatch() {
	if d.hasFrame {
		cycle.WaitUntil(d.clk, d.lastEnd+d.latch)
	}
}

// writeFrame emits every bit of the frame. It reports false when drift
// indicates a phase was stretched past tolerance.
func (d *Dev) writeFrame(s *pixelstream.Stream) (bool, error) {
	var buf [4]uint8
	n := 3
	next := d.clk.Cycles()
	for s.Has(1) {
		if d.rgbw {
			buf[0], buf[1], buf[2], buf[3] = s.LoadAndScaleRGBW()
			n = 4
		} else {
			buf[0], buf[1], buf[2] = s.LoadAndScaleRGB()
		}
		for i := 0; i < n; i++ {
			b := buf[i]
			for bit := 7; bit >= 0; bit-- {
				if err := d.p.Out(gpio.High); err != nil {
					return false, err
				}
				next += d.t1
				cycle.WaitUntil(d.clk, next)
				if b&(1<<bit) == 0 {
					if err := d.p.Out(gpio.Low); err != nil {
						return false, err
					}
				}
				next += d.t2
				cycle.WaitUntil(d.clk, next)
				if err := d.p.Out(gpio.Low); err != nil {
					return false, err
				}
				next += d.t3
				cycle.WaitUntil(d.clk, next)
			}
		}
		if int32(d.clk.Cycles()-next) > int32(d.slack) {
			return false, nil
		}
		s.Advance()
		s.StepDithering()
	}
	return true, nil
}

// common holds the construction work shared with the parallel variant.
type common struct {
	t1, t2, t3 uint32
	slack      uint32
	latch      uint32
	retries    int
	cs         CriticalSection
	rgbw       bool
}

func newCommon(clkSrc cycle.Clock, freq physic.Frequency, t Timings, opts *Opts) (common, error) {
	if t.T1 == 0 || t.T2 == 0 || t.T3 == 0 {
		return common{}, errTimings
	}
	if clkSrc == nil {
		return common{}, errors.New("clockless: nil clock")
	}
	c := common{
		t1:      cycle.FromNanos(freq, t.T1),
		t2:      cycle.FromNanos(freq, t.T2),
		t3:      cycle.FromNanos(freq, t.T3),
		latch:   cycle.FromNanos(freq, 300000),
		retries: defaultRetries,
		cs:      NopSection{},
	}
	c.slack = c.t1 + c.t2 + c.t3
	if opts != nil {
		if opts.Section != nil {
			c.cs = opts.Section
		}
		if opts.Retries != 0 {
			c.retries = opts.Retries
			if c.retries < 0 {
				c.retries = 0
			}
		}
		if opts.Latch != 0 {
			c.latch = cycle.FromNanos(freq, opts.Latch)
		}
		c.rgbw = opts.RGBW
	}
	return c, nil
}
