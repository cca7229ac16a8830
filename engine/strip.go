// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import (
	"fmt"
	"image"

	"periph.io/x/ledstream/adjust"
	"periph.io/x/ledstream/pixelstream"
)

// StripOpts holds per-strip configuration at registration time.
type StripOpts struct {
	// Order is the wire channel order. Defaults to pixelstream.GRB.
	Order pixelstream.Order
	// Correction is the color correction profile. Defaults to
	// adjust.UncorrectedColor.
	Correction adjust.Profile
	// Temperature is the color temperature profile. Defaults to
	// adjust.UncorrectedTemperature.
	Temperature adjust.Profile
	// Dither selects temporal dithering. Zero value is DitherOff; pass
	// pixelstream.DitherBinary explicitly to enable.
	Dither pixelstream.DitherMode
	// White selects RGBW white synthesis for 4-channel drivers.
	White pixelstream.WhitePolicy
	// Direction reverses traversal when set to pixelstream.Reverse.
	Direction pixelstream.Direction
	// Lanes splits the buffer into parallel lanes for a parallel driver.
	Lanes int
	// Offset skips that many pixels at the start of the buffer.
	Offset int
	// Name labels the strip for introspection.
	Name string

	_ struct{}
}

// Strip is the handle to one registered strip.
type Strip struct {
	e           *Engine
	drv         Driver
	pixels      []byte
	count       int
	lanes       int
	order       pixelstream.Order
	correction  adjust.Profile
	temperature adjust.Profile
	dither      pixelstream.DitherMode
	white       pixelstream.WhitePolicy
	direction   pixelstream.Direction
	screenMap   []image.Point
	enabled     bool
	id          int
	name        string
}

// ID returns the strip's registration ordinal.
func (s *Strip) ID() int { return s.id }

// Len returns the per-lane pixel count.
func (s *Strip) Len() int { return s.count }

// Lanes returns the parallel lane count, 1 for a plain strip.
func (s *Strip) Lanes() int { return s.lanes }

// Pixels returns the strip's borrowed pixel buffer. Callers draw into it
// between Show calls.
func (s *Strip) Pixels() []byte { return s.pixels }

// Driver returns the strip's output driver.
func (s *Strip) Driver() Driver { return s.drv }

// Enabled reports whether the strip participates in Show.
func (s *Strip) Enabled() bool { return s.enabled }

// SetEnabled includes or excludes the strip from Show.
func (s *Strip) SetEnabled(on bool) { s.enabled = on }

// SetCorrection sets the color correction profile.
func (s *Strip) SetCorrection(p adjust.Profile) { s.correction = p }

// SetTemperature sets the color temperature profile.
func (s *Strip) SetTemperature(p adjust.Profile) { s.temperature = p }

// SetDither sets the dither mode.
func (s *Strip) SetDither(m pixelstream.DitherMode) { s.dither = m }

// SetWhitePolicy sets the RGBW white synthesis policy.
func (s *Strip) SetWhitePolicy(p pixelstream.WhitePolicy) { s.white = p }

// SetDirection sets the traversal direction.
func (s *Strip) SetDirection(d pixelstream.Direction) { s.direction = d }

// SetScreenMap attaches per-pixel screen coordinates for visualization
// tooling. The engine itself never reads it.
func (s *Strip) SetScreenMap(m []image.Point) { s.screenMap = m }

// ScreenMap returns the coordinates set by SetScreenMap.
func (s *Strip) ScreenMap() []image.Point { return s.screenMap }

func (s *Strip) String() string {
	if s.name != "" {
		return s.name
	}
	return fmt.Sprintf("strip%d", s.id)
}

// stream builds the per-frame pixel stream at brightness b, seeded with
// the engine's dither frame counter.
func (s *Strip) stream(b uint8, frame uint8) (*pixelstream.Stream, error) {
	adj := adjust.Compute(b, s.correction, s.temperature)
	st, err := pixelstream.NewMultiLane(s.pixels, s.count, s.lanes, adj, s.dither, s.order, s.direction)
	if err != nil {
		return nil, err
	}
	st.SetWhitePolicy(s.white)
	st.InitDither(frame)
	return st, nil
}

// beginShow opens the strip's frame. The returned token is the dither mode
// to restore at endShow; reusing it avoids a dedicated field for the
// default synchronous case. Async drivers additionally block here until
// their previous frame completed.
func (s *Strip) beginShow() pixelstream.DitherMode {
	if a, ok := s.drv.(AsyncDriver); ok {
		a.BeginFrame()
	}
	return s.dither
}

// endShow closes the frame, restoring the dither mode and kicking off an
// async driver's transfer.
func (s *Strip) endShow(token pixelstream.DitherMode) {
	s.dither = token
	if a, ok := s.drv.(AsyncDriver); ok {
		a.EndFrame()
	}
}
