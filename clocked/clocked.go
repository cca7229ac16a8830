// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package clocked drives SPI-like LED protocols: a data line sampled on the
// rising edge of a separate clock line.
//
// Three transports are supported: real SPI hardware, a software bit-bang
// over two independent GPIO pins, and a bit-bang over a gpio.Group for
// pins sharing one hardware port, where each (bit, clock phase) pair is
// precomputed into a single port word to minimize per-bit work.
package clocked

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"periph.io/x/ledstream/cycle"
	"periph.io/x/ledstream/pixelstream"
)

// Opts holds optional construction parameters.
type Opts struct {
	// Speed is the target clock rate for bit-banged transports. Defaults
	// to 1MHz.
	Speed physic.Frequency

	// CS is an optional active-low chip select asserted around writes.
	CS gpio.PinOut

	_ struct{}
}

var errNilPin = errors.New("clocked: nil pin")

// Dev is a handle to one clocked output.
type Dev struct {
	w  wire
	cs gpio.PinOut
}

// wire is the transport behind a Dev.
type wire interface {
	writeBytes(p []byte) error
	// idle returns the transport to clock low.
	idle() error
}

// NewSPI returns a Dev backed by SPI hardware clocked at f.
func NewSPI(p spi.Port, f physic.Frequency, opts *Opts) (*Dev, error) {
	c, err := p.Connect(f, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("clocked: %w", err)
	}
	d := &Dev{w: &spiWire{c: c}}
	if opts != nil {
		d.cs = opts.CS
	}
	return d, nil
}

// NewBitBang returns a Dev bit-banging data and clk as independent pins.
//
// clkSrc is the cycle counter used to pace the half-bit delays and freq is
// the rate it runs at.
func NewBitBang(data, clk gpio.PinOut, clkSrc cycle.Clock, freq physic.Frequency, opts *Opts) (*Dev, error) {
	if data == nil || clk == nil {
		return nil, errNilPin
	}
	d := &Dev{w: &pinWire{data: data, clk: clk, clkSrc: clkSrc, half: halfBit(freq, opts)}}
	if opts != nil {
		d.cs = opts.CS
	}
	if err := d.w.idle(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewGroup returns a Dev bit-banging over a gpio.Group holding both pins.
// dataBit and clkBit are the pins' offsets within the group.
//
// All four (data, clock) level combinations are baked into port words up
// front so the per-bit path is two group writes.
func NewGroup(g gpio.Group, dataBit, clkBit int, clkSrc cycle.Clock, freq physic.Frequency, opts *Opts) (*Dev, error) {
	if g == nil {
		return nil, errNilPin
	}
	dm := gpio.GPIOValue(1) << dataBit
	cm := gpio.GPIOValue(1) << clkBit
	w := &groupWire{
		g:      g,
		mask:   dm | cm,
		clkSrc: clkSrc,
		half:   halfBit(freq, opts),
	}
	// words[bit][phase]: phase 0 is clock low (setup), phase 1 clock high
	// (sample).
	w.words = [2][2]gpio.GPIOValue{
		{0, cm},
		{dm, dm | cm},
	}
	d := &Dev{w: w}
	if opts != nil {
		d.cs = opts.CS
	}
	if err := w.idle(); err != nil {
		return nil, err
	}
	return d, nil
}

// halfBit returns the half-bit delay in cycles, floored at one cycle so a
// fast clock request can never degenerate into a zero wait.
func halfBit(freq physic.Frequency, opts *Opts) uint32 {
	speed := physic.MegaHertz
	if opts != nil && opts.Speed != 0 {
		speed = opts.Speed
	}
	hz := uint32(speed / physic.Hertz)
	if hz == 0 {
		hz = 1
	}
	h := cycle.FromNanos(freq, 1000000000/(2*hz))
	if h == 0 {
		h = 1
	}
	return h
}

func (d *Dev) String() string { return "clocked" }

// Select asserts the chip select, when one is configured.
func (d *Dev) Select() error {
	if d.cs == nil {
		return nil
	}
	return d.cs.Out(gpio.Low)
}

// Release deasserts the chip select.
func (d *Dev) Release() error {
	if d.cs == nil {
		return nil
	}
	return d.cs.Out(gpio.High)
}

// WriteByte shifts out a single byte, MSB first.
func (d *Dev) WriteByte(b byte) error {
	return d.w.writeBytes([]byte{b})
}

// WriteBytes shifts out p.
func (d *Dev) WriteBytes(p []byte) error {
	return d.w.writeBytes(p)
}

// WritePixels transmits one frame from s and leaves the bus idle: clock
// low, chip released.
func (d *Dev) WritePixels(s *pixelstream.Stream) error {
	if err := d.Select(); err != nil {
		return err
	}
	var buf [3]byte
	for s.Has(1) {
		buf[0], buf[1], buf[2] = s.LoadAndScaleRGB()
		if err := d.w.writeBytes(buf[:]); err != nil {
			return err
		}
		s.Advance()
		s.StepDithering()
	}
	if err := d.Release(); err != nil {
		return err
	}
	return d.w.idle()
}

// WriteReader is WritePixels over the type-erased stream view, for call
// sites handling many strip configurations from one code path.
func (d *Dev) WriteReader(r pixelstream.Reader) error {
	if err := d.Select(); err != nil {
		return err
	}
	var buf [3]byte
	for r.Has(1) {
		buf[0], buf[1], buf[2] = r.LoadAndScaleRGB()
		if err := d.w.writeBytes(buf[:]); err != nil {
			return err
		}
		r.Advance()
		r.StepDithering()
	}
	if err := d.Release(); err != nil {
		return err
	}
	return d.w.idle()
}

// Halt implements conn.Resource; it parks the bus idle.
func (d *Dev) Halt() error {
	if err := d.Release(); err != nil {
		return err
	}
	return d.w.idle()
}

type spiWire struct {
	c spi.Conn
}

func (s *spiWire) writeBytes(p []byte) error { return s.c.Tx(p, nil) }
func (s *spiWire) idle() error               { return nil }

type pinWire struct {
	data   gpio.PinOut
	clk    gpio.PinOut
	clkSrc cycle.Clock
	half   uint32
}

func (w *pinWire) writeBytes(p []byte) error {
	for _, b := range p {
		for bit := 7; bit >= 0; bit-- {
			if err := w.data.Out(gpio.Level(b&(1<<bit) != 0)); err != nil {
				return err
			}
			cycle.Wait(w.clkSrc, w.half)
			if err := w.clk.Out(gpio.High); err != nil {
				return err
			}
			cycle.Wait(w.clkSrc, w.half)
			if err := w.clk.Out(gpio.Low); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *pinWire) idle() error {
	if err := w.clk.Out(gpio.Low); err != nil {
		return err
	}
	return w.data.Out(gpio.Low)
}

type groupWire struct {
	g      gpio.Group
	words  [2][2]gpio.GPIOValue
	mask   gpio.GPIOValue
	clkSrc cycle.Clock
	half   uint32
}

func (w *groupWire) writeBytes(p []byte) error {
	for _, b := range p {
		for bit := 7; bit >= 0; bit-- {
			v := (b >> bit) & 1
			if err := w.g.Out(w.words[v][0], w.mask); err != nil {
				return err
			}
			cycle.Wait(w.clkSrc, w.half)
			if err := w.g.Out(w.words[v][1], w.mask); err != nil {
				return err
			}
			cycle.Wait(w.clkSrc, w.half)
		}
	}
	return nil
}

func (w *groupWire) idle() error {
	return w.g.Out(0, w.mask)
}

var _ fmt.Stringer = &Dev{}
