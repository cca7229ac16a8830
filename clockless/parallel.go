// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package clockless

import (
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"periph.io/x/ledstream/cycle"
	"periph.io/x/ledstream/pixelstream"
)

// ParallelDev drives N data lines of one port in lock-step.
//
// All lanes share a single set of phase timers: each phase transition is
// one port-wide group write with every lane's bit sampled into the word, so
// throughput scales with lane count at no extra per-lane timing cost.
// RGBW is not supported on the parallel path.
type ParallelDev struct {
	g        gpio.Group
	laneBits []gpio.GPIOValue
	mask     gpio.GPIOValue
	clk      cycle.Clock
	t1       uint32
	t2       uint32
	t3       uint32
	slack    uint32
	latch    uint32
	retries  int
	cs       CriticalSection

	lastEnd  uint32
	hasFrame bool
}

// NewParallel returns a ParallelDev emitting t's waveform on the group
// offsets named by laneBits, one per lane.
func NewParallel(g gpio.Group, laneBits []int, clkSrc cycle.Clock, freq physic.Frequency, t Timings, opts *Opts) (*ParallelDev, error) {
	if g == nil || len(laneBits) == 0 {
		return nil, errNilPin
	}
	c, err := newCommon(clkSrc, freq, t, opts)
	if err != nil {
		return nil, err
	}
	d := &ParallelDev{
		g:        g,
		laneBits: make([]gpio.GPIOValue, len(laneBits)),
		clk:      clkSrc,
		t1:       c.t1,
		t2:       c.t2,
		t3:       c.t3,
		slack:    c.slack,
		latch:    c.latch,
		retries:  c.retries,
		cs:       c.cs,
	}
	for i, b := range laneBits {
		d.laneBits[i] = gpio.GPIOValue(1) << b
		d.mask |= d.laneBits[i]
	}
	if err := g.Out(0, d.mask); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *ParallelDev) String() string { return "clockless-parallel" }

// Halt implements conn.Resource.
func (d *ParallelDev) Halt() error {
	return d.g.Out(0, d.mask)
}

// WritePixels transmits one frame from s, which must carry exactly as many
// lanes as the driver.
func (d *ParallelDev) WritePixels(s *pixelstream.Stream) error {
	if s.Lanes() != len(d.laneBits) {
		return errLaneMism
	}
	if d.hasFrame {
		cycle.WaitUntil(d.clk, d.lastEnd+d.latch)
	}
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
		cycle.WaitUntil(d.clk, d.lastEnd+d.latch)
	}
}

func (d *ParallelDev) writeFrame(s *pixelstream.Stream) (bool, error) {
	lanes := len(d.laneBits)
	bytes := make([][3]uint8, lanes)
	next := d.clk.Cycles()
	for s.Has(1) {
		for l := 0; l < lanes; l++ {
			bytes[l][0] = s.LoadAndScaleLane(l, 0)
			bytes[l][1] = s.LoadAndScaleLane(l, 1)
			bytes[l][2] = s.LoadAndScaleLane(l, 2)
		}
		for i := 0; i < 3; i++ {
			for bit := 7; bit >= 0; bit-- {
				var word gpio.GPIOValue
				for l := 0; l < lanes; l++ {
					if bytes[l][i]&(1<<bit) != 0 {
						word |= d.laneBits[l]
					}
				}
				if err := d.g.Out(d.mask, d.mask); err != nil {
					return false, err
				}
				next += d.t1
				cycle.WaitUntil(d.clk, next)
				if err := d.g.Out(word, d.mask); err != nil {
					return false, err
				}
				next += d.t2
				cycle.WaitUntil(d.clk, next)
				if err := d.g.Out(0, d.mask); err != nil {
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
