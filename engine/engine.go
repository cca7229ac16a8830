// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package engine coordinates every registered strip through a global
// per-frame show.
//
// An Engine is an explicit value created at startup and threaded through
// the program; there is no hidden global registry, which keeps the whole
// pipeline testable without hardware. Strips are serviced in registration
// order. A frame is driven in three batched phases: every strip's begin
// hook, then every write, then every end hook, so controllers that overlap
// a "wait for the previous frame" phase (DMA backed ones) can all wait
// before any of them starts transmitting.
package engine

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/physic"

	"periph.io/x/ledstream/adjust"
	"periph.io/x/ledstream/pixelstream"
	"periph.io/x/ledstream/power"
)

// Driver transmits one frame pulled from a pixel stream.
type Driver interface {
	WritePixels(*pixelstream.Stream) error
}

// AsyncDriver is implemented by drivers whose transmission outlives
// WritePixels, typically DMA backed.
//
// BeginFrame blocks until the previous frame's transfer completed;
// EndFrame kicks off the new one. WritePixels on such a driver only stages
// the frame.
type AsyncDriver interface {
	Driver
	BeginFrame()
	EndFrame()
}

var (
	errNilDriver   = errors.New("engine: nil driver")
	errShortBuffer = errors.New("engine: buffer shorter than pixel count")
)

// Opts holds engine construction parameters.
type Opts struct {
	// Model is the power model used for budget estimation. Defaults to
	// power.WS2812Model5V.
	Model power.Model

	_ struct{}
}

// Engine owns the strip registry and the per-frame state.
type Engine struct {
	strips     []*Strip
	nextID     int
	brightness uint8
	dither     uint8 // frame counter, wraps at pixelstream.DitherFrames
	model      power.Model
	budget     physic.Power
	minFrame   time.Duration
	lastShow   time.Time

	frameBegin []func()
	frameEnd   []func()

	nowFn   func() time.Time
	sleepFn func(time.Duration)
}

// New returns an empty Engine at full brightness with no power budget.
func New(opts *Opts) *Engine {
	e := &Engine{
		brightness: 255,
		model:      power.WS2812Model5V,
		nowFn:      time.Now,
		sleepFn:    time.Sleep,
	}
	if opts != nil && opts.Model != (power.Model{}) {
		e.model = opts.Model
	}
	return e
}

// SetBrightness sets the global brightness applied to every strip.
func (e *Engine) SetBrightness(b uint8) { e.brightness = b }

// Brightness returns the configured global brightness. The effective
// brightness of a frame can be lower under a power budget; see Show.
func (e *Engine) Brightness() uint8 { return e.brightness }

// SetPowerBudget caps the estimated draw of a frame. Zero disables the
// cap.
func (e *Engine) SetPowerBudget(budget physic.Power) { e.budget = budget }

// SetPowerBudgetVA is SetPowerBudget from a supply voltage and current
// limit.
func (e *Engine) SetPowerBudgetVA(v physic.ElectricPotential, i physic.ElectricCurrent) {
	e.budget = power.Budget(v, i)
}

// SetModel replaces the power model's calibration constants.
func (e *Engine) SetModel(m power.Model) { e.model = m }

// Model returns the active power model.
func (e *Engine) Model() power.Model { return e.model }

// SetMaxRefreshRate throttles Show to at most hz calls per second. Zero
// disables throttling.
func (e *Engine) SetMaxRefreshRate(hz int) {
	if hz <= 0 {
		e.minFrame = 0
		return
	}
	e.minFrame = time.Second / time.Duration(hz)
}

// OnFrameBegin registers f to run at the start of every Show, before any
// strip is serviced. For consumers observing the frame lifecycle without
// participating in transmission.
func (e *Engine) OnFrameBegin(f func()) { e.frameBegin = append(e.frameBegin, f) }

// OnFrameEnd registers f to run after every strip finished its frame.
func (e *Engine) OnFrameEnd(f func()) { e.frameEnd = append(e.frameEnd, f) }

// Strips returns the registered strips in registration order.
func (e *Engine) Strips() []*Strip {
	out := make([]*Strip, len(e.strips))
	copy(out, e.strips)
	return out
}

// Register adds a strip driving count pixels per lane of pixels through d
// and returns its handle for further configuration.
//
// pixels is borrowed, three bytes per pixel in logical RGB order; it must
// not be mutated while a Show call is in flight.
func (e *Engine) Register(d Driver, pixels []byte, count int, opts *StripOpts) (*Strip, error) {
	if d == nil {
		return nil, errNilDriver
	}
	s := &Strip{
		e:           e,
		drv:         d,
		count:       count,
		lanes:       1,
		order:       pixelstream.GRB,
		direction:   pixelstream.Forward,
		correction:  adjust.UncorrectedColor,
		temperature: adjust.UncorrectedTemperature,
		enabled:     true,
		id:          e.nextID,
	}
	offset := 0
	if opts != nil {
		offset = opts.Offset
		if opts.Lanes > 1 {
			s.lanes = opts.Lanes
		}
		if opts.Order != (pixelstream.Order{}) {
			s.order = opts.Order
		}
		if opts.Direction != 0 {
			s.direction = opts.Direction
		}
		s.dither = opts.Dither
		s.white = opts.White
		s.name = opts.Name
		if opts.Correction != (adjust.Profile{}) {
			s.correction = opts.Correction
		}
		if opts.Temperature != (adjust.Profile{}) {
			s.temperature = opts.Temperature
		}
	}
	need := (offset + count*s.lanes) * 3
	if need > len(pixels) || count < 0 || offset < 0 {
		return nil, errShortBuffer
	}
	s.pixels = pixels[offset*3 : need]
	e.nextID++
	e.strips = append(e.strips, s)
	return s, nil
}

// Remove unregisters s. The common case never removes a strip; this exists
// for tooling that reconfigures at runtime.
func (e *Engine) Remove(s *Strip) {
	for i, c := range e.strips {
		if c == s {
			e.strips = append(e.strips[:i], e.strips[i+1:]...)
			return
		}
	}
}

// Show transmits one frame on every enabled strip at the global
// brightness. It returns the effective brightness actually used, which is
// lower than the configured one when the power budget bites.
func (e *Engine) Show() (uint8, error) {
	return e.ShowBrightness(e.brightness)
}

// ShowBrightness is Show at an explicit brightness.
func (e *Engine) ShowBrightness(b uint8) (uint8, error) {
	e.throttle()
	for _, f := range e.frameBegin {
		f()
	}
	b = e.capBrightness(b)

	// Phase 1: build streams and let every strip wait out its previous
	// frame before any new transmission starts.
	type pending struct {
		s      *Strip
		stream *pixelstream.Stream
		token  pixelstream.DitherMode
	}
	frames := make([]pending, 0, len(e.strips))
	var firstErr error
	for _, s := range e.strips {
		if !s.enabled {
			continue
		}
		st, err := s.stream(b, e.dither)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		frames = append(frames, pending{s: s, stream: st, token: s.beginShow()})
	}

	// Phase 2: transmit in registration order.
	for _, p := range frames {
		if err := p.s.drv.WritePixels(p.stream); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	// Phase 3: end hooks, kicking off async transfers.
	for _, p := range frames {
		p.s.endShow(p.token)
	}

	e.dither = (e.dither + 1) % pixelstream.DitherFrames
	e.lastShow = e.nowFn()
	for _, f := range e.frameEnd {
		f()
	}
	return b, firstErr
}

// capBrightness resolves the power budget into an effective brightness.
func (e *Engine) capBrightness(b uint8) uint8 {
	if e.budget == 0 {
		return b
	}
	total := e.model.Baseline
	for _, s := range e.strips {
		if s.enabled {
			total += e.model.EstimateDraw(s.pixels)
		}
	}
	return power.CapBrightness(total, b, e.budget)
}

func (e *Engine) throttle() {
	if e.minFrame == 0 || e.lastShow.IsZero() {
		return
	}
	if elapsed := e.nowFn().Sub(e.lastShow); elapsed < e.minFrame {
		e.sleepFn(e.minFrame - elapsed)
	}
}
